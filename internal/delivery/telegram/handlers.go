package telegram

import (
	"context"
	"fmt"
	"strings"

	"matchchat/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = "Chat about any match with open event data.\n\n" +
	"/competitions - Competitions and seasons\n" +
	"/matches [competition] [season] - Matches of a season\n" +
	"/select [match] [competition] [season] - Pick a match\n" +
	"/score - Final score and scorers\n" +
	"/stats - Team statistics\n" +
	"/player [name] - One player's numbers\n" +
	"/commentary - Pre-match style commentary\n" +
	"/reset - Clear the conversation\n" +
	"/export - Conversation as Excel\n\n" +
	"Anything else you send is answered as a question about the selected match."

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !msg.IsCommand() {
		b.handleQuestion(ctx, chatID, msg.Text)
		return
	}

	args := msg.CommandArguments()
	switch msg.Command() {
	case "start", "help":
		b.sendMessage(chatID, helpText, "empty")
	case "competitions":
		b.handleCompetitions(ctx, chatID)
	case "matches":
		b.handleMatches(ctx, chatID, args)
	case "select":
		b.handleSelect(ctx, chatID, args)
	case "score":
		b.handleScore(ctx, chatID)
	case "stats":
		b.handleStats(ctx, chatID)
	case "player":
		b.handlePlayer(ctx, chatID, args)
	case "commentary":
		b.typing(chatID)
		text, err := b.services.Chat.Commentary(ctx, sessionID(chatID))
		b.reply(chatID, text, err)
	case "reset":
		err := b.services.Sessions.Reset(sessionID(chatID))
		b.reply(chatID, "Conversation cleared. The selected match is kept.", err)
	case "export":
		b.handleExport(ctx, chatID)
	case "sheet":
		b.adminOnly(msg, func() {
			url, err := b.services.Export.SyncSheet(sessionID(chatID))
			b.reply(chatID, "Sheet updated: "+url, err)
		})
	case "refresh":
		b.adminOnly(msg, func() { b.handleRefresh(ctx, chatID) })
	default:
		b.sendMessage(chatID, "Unknown command. Send /help for the list.", "empty")
	}
}

func (b *Bot) handleQuestion(ctx context.Context, chatID int64, text string) {
	b.typing(chatID)
	answer, err := b.services.Chat.Ask(ctx, sessionID(chatID), text)
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	b.sendMessage(chatID, formatAnswer(answer), "questions")
}

func (b *Bot) handleCompetitions(ctx context.Context, chatID int64) {
	comps, err := b.services.Data.Competitions(ctx)
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	b.sendMessage(chatID, formatCompetitions(comps), "empty")
}

func (b *Bot) handleMatches(ctx context.Context, chatID int64, args string) {
	ids, err := parseIDs(args, 2, 2)
	if err != nil {
		b.sendMessage(chatID, "Usage: /matches 43 106", "empty")
		return
	}
	matches, err := b.services.Data.Matches(ctx, ids[0], ids[1])
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	b.sendMessage(chatID, formatMatches(matches), "empty")
}

func (b *Bot) handleSelect(ctx context.Context, chatID int64, args string) {
	ids, err := parseIDs(args, 1, 3)
	if err != nil || len(ids) == 2 {
		b.sendMessage(chatID, "Usage: /select 3869685 [43 106]", "empty")
		return
	}
	ref := models.MatchRef{MatchID: ids[0]}
	if len(ids) == 3 {
		ref.CompetitionID, ref.SeasonID = ids[1], ids[2]
	}

	b.services.Sessions.SwitchMatch(sessionID(chatID), ref)
	label := fmt.Sprintf("match %d", ref.MatchID)
	if m, ok := b.services.Data.ResolveMatch(ctx, ref); ok {
		label = fmt.Sprintf("%s (%s %s)", m.Title(), m.CompetitionName, m.SeasonName)
	}
	b.sendMessage(chatID, fmt.Sprintf("Now chatting about %s. Ask away!", label), "questions")
}

func (b *Bot) handleScore(ctx context.Context, chatID int64) {
	matchID, err := b.selectedMatch(chatID)
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	score, err := b.services.Stats.Score(ctx, matchID)
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	b.sendMessage(chatID, formatScore(score), "empty")
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	matchID, err := b.selectedMatch(chatID)
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	stats, err := b.services.Stats.TeamStats(ctx, matchID)
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	b.sendMessage(chatID, formatTeamStats(stats), "empty")
}

func (b *Bot) handlePlayer(ctx context.Context, chatID int64, args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		b.sendMessage(chatID, "Usage: /player Messi", "empty")
		return
	}
	matchID, err := b.selectedMatch(chatID)
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	players, err := b.services.Stats.PlayerStats(ctx, matchID, name, "")
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	if len(players) == 0 {
		b.sendMessage(chatID, name+" has no recorded events in this match.", "empty")
		return
	}
	b.sendMessage(chatID, formatPlayer(players[0]), "empty")
}

func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	data, err := b.services.Export.Excel(ctx, sessionID(chatID))
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: exportName, Bytes: data})
	if _, err := b.bot.Send(doc); err != nil {
		b.logger.Error("Failed to send export to %d: %v", chatID, err)
	}
}

func (b *Bot) handleRefresh(ctx context.Context, chatID int64) {
	matchID, err := b.selectedMatch(chatID)
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	ds, err := b.services.Data.Refresh(ctx, matchID)
	if err != nil {
		b.reply(chatID, "", err)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("Reloaded %d events for match %d.", len(ds.Events), matchID), "empty")
}

func (b *Bot) selectedMatch(chatID int64) (int, error) {
	view := b.services.Sessions.GetOrCreate(sessionID(chatID))
	if !view.HasMatch() {
		return 0, models.ErrNoMatchSelected
	}
	return view.Match.MatchID, nil
}
