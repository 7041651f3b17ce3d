package discord

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"matchchat/internal/application"
	"matchchat/internal/models"

	"github.com/bwmarrin/discordgo"
)

// sessionID scopes a conversation to one user in one channel.
func sessionID(channelID, userID string) string {
	return fmt.Sprintf("%s:%s:%s", sessionPrefix, channelID, userID)
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func interactionSessionID(i *discordgo.Interaction) string {
	return sessionID(i.ChannelID, interactionUserID(i))
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, o := range options {
		out[o.Name] = o
	}
	return out
}

func stripMention(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}

func errorText(err error) string {
	if msg := models.UserMessage(err); msg != "" {
		return msg
	}
	return "The request was cancelled."
}

// splitMessage cuts text into chunks of at most limit runes, preferring line
// breaks. It always returns at least one chunk.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if currentLen+lineLen <= limit {
			current.WriteString(line)
			currentLen += lineLen
			continue
		}
		flush()
		for lineLen > limit {
			r := []rune(line)
			chunks = append(chunks, string(r[:limit]))
			line = string(r[limit:])
			lineLen -= limit
		}
		current.WriteString(line)
		currentLen = lineLen
	}
	flush()

	if len(chunks) == 0 {
		return []string{""}
	}
	return chunks
}

// formatAnswer appends the distinct snippet titles the answer was grounded on.
func formatAnswer(answer *models.Answer) string {
	var sources []string
	seen := make(map[string]bool)
	for _, s := range answer.Snippets {
		label := s.Title
		if s.Source == models.SourceWeb && s.URL != "" {
			label = fmt.Sprintf("[%s](<%s>)", s.Title, s.URL)
		}
		if seen[label] {
			continue
		}
		seen[label] = true
		sources = append(sources, label)
		if len(sources) == maxSources {
			break
		}
	}

	if len(sources) == 0 {
		return answer.Text
	}
	return fmt.Sprintf("%s\n\n-# Sources: %s", answer.Text, strings.Join(sources, ", "))
}

func formatCompetitions(comps []models.Competition, limit int) string {
	var sb strings.Builder
	for idx, c := range comps {
		if idx == limit {
			sb.WriteString(fmt.Sprintf("...and %d more", len(comps)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("`%d/%d` **%s** %s\n", c.CompetitionID, c.SeasonID, c.CompetitionName, c.SeasonName))
	}
	return sb.String()
}

func formatMatches(matches []models.Match, limit int) string {
	var sb strings.Builder
	for idx, m := range matches {
		if idx == limit {
			sb.WriteString(fmt.Sprintf("...and %d more", len(matches)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("`%d` %s %d - %d %s (%s)\n",
			m.MatchID, m.HomeTeam, m.HomeScore, m.AwayScore, m.AwayTeam, valueOrDefault(m.Date, "no date")))
	}
	return sb.String()
}

func formatTeamStats(stats []application.TeamStats) string {
	var sb strings.Builder
	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("%-16s %5s %5s %5s %6s %6s %5s\n", "Team", "Goals", "Shots", "OnT", "xG", "Pass%", "Fouls"))
	for _, t := range stats {
		sb.WriteString(fmt.Sprintf("%-16s %5d %5d %5d %6.2f %5.0f%% %5d\n",
			truncate(t.Team, 16), t.Goals, t.Shots, t.ShotsOnTarget, t.XG, t.PassCompletion()*100, t.Fouls))
	}
	sb.WriteString("```")
	return sb.String()
}

func playerEmbed(p application.PlayerStats) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s (%s)", p.Player, p.Team),
		Color: colorPitch,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Goals", Value: fmt.Sprintf("%d", p.Goals), Inline: true},
			{Name: "Shots", Value: fmt.Sprintf("%d (%d on target)", p.Shots, p.ShotsOnTarget), Inline: true},
			{Name: "xG", Value: fmt.Sprintf("%.2f", p.XG), Inline: true},
			{Name: "Passes", Value: fmt.Sprintf("%d/%d", p.PassesCompleted, p.PassesAttempted), Inline: true},
			{Name: "Dribbles", Value: fmt.Sprintf("%d/%d", p.DribblesCompleted, p.DribblesAttempted), Inline: true},
			{Name: "Defending", Value: fmt.Sprintf("%d tackles | %d interceptions", p.Tackles, p.Interceptions), Inline: false},
			{Name: "Discipline", Value: fmt.Sprintf("%d fouls | %d yellow | %d red", p.FoulsCommitted, p.YellowCards, p.RedCards), Inline: false},
		},
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
