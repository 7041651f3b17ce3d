package discord

import (
	"bytes"
	"fmt"

	"matchchat/internal/application"
	"matchchat/internal/models"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) handleCompetitions(s *discordgo.Session, i *discordgo.Interaction) {
	comps, err := b.services.Data.Competitions(b.ctx)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Competitions",
		Description: formatCompetitions(comps, competitionsLimit),
		Color:       colorBlue,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Use /matches competition_id season_id"},
	})
}

func (b *Bot) handleMatches(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i.ApplicationCommandData().Options)
	competitionID := int(opts["competition_id"].IntValue())
	seasonID := int(opts["season_id"].IntValue())

	b.deferred(s, i, func() (string, []*discordgo.File, error) {
		matches, err := b.services.Data.Matches(b.ctx, competitionID, seasonID)
		if err != nil {
			return "", nil, err
		}
		return formatMatches(matches, matchesLimit), nil, nil
	})
}

func (b *Bot) handleSelect(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i.ApplicationCommandData().Options)
	ref := models.MatchRef{MatchID: int(opts["match_id"].IntValue())}
	if o, ok := opts["competition_id"]; ok {
		ref.CompetitionID = int(o.IntValue())
	}
	if o, ok := opts["season_id"]; ok {
		ref.SeasonID = int(o.IntValue())
	}

	id := interactionSessionID(i)
	b.services.Sessions.SwitchMatch(id, ref)

	label := fmt.Sprintf("match %d", ref.MatchID)
	if m, ok := b.services.Data.ResolveMatch(b.ctx, ref); ok {
		label = fmt.Sprintf("**%s** (%s %s)", m.Title(), m.CompetitionName, m.SeasonName)
	}
	b.respondMessage(s, i, fmt.Sprintf("Now chatting about %s. Your previous conversation was cleared.", label), false)
}

func (b *Bot) handleAsk(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i.ApplicationCommandData().Options)
	question := opts["question"].StringValue()
	id := interactionSessionID(i)

	b.deferred(s, i, func() (string, []*discordgo.File, error) {
		answer, err := b.services.Chat.Ask(b.ctx, id, question)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("> %s\n\n%s", question, formatAnswer(answer)), nil, nil
	})
}

func (b *Bot) handleMessageQuestion(s *discordgo.Session, m *discordgo.MessageCreate, question string) {
	if err := s.ChannelTyping(m.ChannelID); err != nil {
		b.logger.Debug("typing indicator: %v", err)
	}

	id := sessionID(m.ChannelID, m.Author.ID)
	text := ""
	answer, err := b.services.Chat.Ask(b.ctx, id, question)
	if err != nil {
		b.logFailure("message", err)
		text = errorText(err)
	} else {
		text = formatAnswer(answer)
	}

	for idx, chunk := range splitMessage(text, maxMessageLength) {
		var sendErr error
		if idx == 0 {
			_, sendErr = s.ChannelMessageSendReply(m.ChannelID, chunk, m.Reference())
		} else {
			_, sendErr = s.ChannelMessageSend(m.ChannelID, chunk)
		}
		if sendErr != nil {
			b.logger.Error("Failed to reply in %s: %v", m.ChannelID, sendErr)
			return
		}
	}
}

func (b *Bot) handleScore(s *discordgo.Session, i *discordgo.Interaction) {
	view, err := b.selectedMatch(i)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	score, err := b.services.Stats.Score(b.ctx, view.Match.MatchID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title: score.Line(),
		Color: colorPitch,
		Fields: []*discordgo.MessageEmbedField{
			{Name: score.HomeTeam, Value: valueOrDefault(score.ScorersFor(score.HomeTeam), "-"), Inline: true},
			{Name: score.AwayTeam, Value: valueOrDefault(score.ScorersFor(score.AwayTeam), "-"), Inline: true},
		},
	})
}

func (b *Bot) handleStats(s *discordgo.Session, i *discordgo.Interaction) {
	view, err := b.selectedMatch(i)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	stats, err := b.services.Stats.TeamStats(b.ctx, view.Match.MatchID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Team statistics",
		Description: formatTeamStats(stats),
		Color:       colorPitch,
	})
}

func (b *Bot) handlePlayer(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i.ApplicationCommandData().Options)
	name := opts["name"].StringValue()
	window := ""
	if o, ok := opts["window"]; ok {
		window = o.StringValue()
	}

	view, err := b.selectedMatch(i)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	players, err := b.services.Stats.PlayerStats(b.ctx, view.Match.MatchID, name, window)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	if len(players) == 0 {
		b.respondMessage(s, i, fmt.Sprintf("%s has no recorded events in that part of the match.", name), true)
		return
	}

	b.respondEmbed(s, i, playerEmbed(players[0]))
}

func (b *Bot) handleCommentary(s *discordgo.Session, i *discordgo.Interaction) {
	id := interactionSessionID(i)
	b.deferred(s, i, func() (string, []*discordgo.File, error) {
		text, err := b.services.Chat.Commentary(b.ctx, id)
		if err != nil {
			return "", nil, err
		}
		return text, nil, nil
	})
}

func (b *Bot) handleReset(s *discordgo.Session, i *discordgo.Interaction) {
	if err := b.services.Sessions.Reset(interactionSessionID(i)); err != nil {
		b.respondError(s, i, err)
		return
	}
	b.respondMessage(s, i, "Conversation cleared. The selected match is kept.", true)
}

func (b *Bot) handleExport(s *discordgo.Session, i *discordgo.Interaction) {
	id := interactionSessionID(i)
	b.deferred(s, i, func() (string, []*discordgo.File, error) {
		data, err := b.services.Export.Excel(b.ctx, id)
		if err != nil {
			return "", nil, err
		}
		return "Your conversation export is ready.", []*discordgo.File{
			{Name: exportName, Reader: bytes.NewReader(data)},
		}, nil
	})
}

func (b *Bot) handleSyncSheet(s *discordgo.Session, i *discordgo.Interaction) {
	id := interactionSessionID(i)
	b.deferred(s, i, func() (string, []*discordgo.File, error) {
		url, err := b.services.Export.SyncSheet(id)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Sheet updated.\nLink: %s", url), nil, nil
	})
}

func (b *Bot) handleRefresh(s *discordgo.Session, i *discordgo.Interaction) {
	view, err := b.selectedMatch(i)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	b.deferred(s, i, func() (string, []*discordgo.File, error) {
		ds, err := b.services.Data.Refresh(b.ctx, view.Match.MatchID)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Reloaded %d events for match %d.", len(ds.Events), ds.MatchID), nil, nil
	})
}

func (b *Bot) selectedMatch(i *discordgo.Interaction) (application.SessionView, error) {
	view := b.services.Sessions.GetOrCreate(interactionSessionID(i))
	if !view.HasMatch() {
		return view, models.ErrNoMatchSelected
	}
	return view, nil
}

func (b *Bot) logFailure(command string, err error) {
	switch models.KindOf(err) {
	case models.KindInvalidRequest, models.KindDataUnavailable, models.KindCanceled:
		b.logger.Debug("/%s: %v", command, err)
	default:
		b.logger.Error("/%s: %v", command, err)
	}
}
