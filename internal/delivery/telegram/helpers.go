package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"matchchat/internal/application"
	"matchchat/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxMessageLength = 4096
	listLimit        = 40
	exportName       = "match-chat.xlsx"
)

var quickQuestions = []string{"Who scored?", "Compare the two teams", "What happened in the second half?"}

func (b *Bot) isAdmin(id int64) bool {
	_, ok := b.adminIDs[id]
	return ok
}

func (b *Bot) adminOnly(msg *tgbotapi.Message, fn func()) {
	if msg.From == nil || !b.isAdmin(msg.From.ID) {
		b.sendMessage(msg.Chat.ID, "This command is for admins only.", "empty")
		return
	}
	fn()
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("typing indicator for %d: %v", chatID, err)
	}
}

// reply sends text, or the user-facing message for err when it is set.
func (b *Bot) reply(chatID int64, text string, err error) {
	if err != nil {
		switch models.KindOf(err) {
		case models.KindInvalidRequest, models.KindDataUnavailable, models.KindCanceled:
			b.logger.Debug("chat %d: %v", chatID, err)
		default:
			b.logger.Error("chat %d: %v", chatID, err)
		}
		text = models.UserMessage(err)
	}
	b.sendMessage(chatID, text, "empty")
}

func (b *Bot) sendMessage(chatID int64, text string, kbType string) {
	if text == "" {
		return
	}
	for _, chunk := range splitMessage(text, maxMessageLength) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		switch kbType {
		case "questions":
			row := make([]tgbotapi.KeyboardButton, 0, len(quickQuestions))
			for _, q := range quickQuestions {
				row = append(row, tgbotapi.NewKeyboardButton(q))
			}
			keyboard := tgbotapi.NewReplyKeyboard(row)
			keyboard.ResizeKeyboard = true
			msg.ReplyMarkup = keyboard
		default:
			msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		}
		if _, err := b.bot.Send(msg); err != nil {
			b.logger.Error("Failed to send message to %d: %v", chatID, err)
			return
		}
	}
}

func sessionID(chatID int64) string {
	return "telegram:" + strconv.FormatInt(chatID, 10)
}

// parseIDs reads between lo and hi positive integers separated by spaces.
func parseIDs(args string, lo, hi int) ([]int, error) {
	fields := strings.Fields(args)
	if len(fields) < lo || len(fields) > hi {
		return nil, fmt.Errorf("expected %d to %d ids, got %d", lo, hi, len(fields))
	}
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil || id <= 0 {
			return nil, errors.New("ids must be positive integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for j := limit; j > limit/2; j-- {
			if runes[j-1] == '\n' {
				cut = j
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func formatAnswer(answer *models.Answer) string {
	var sources []string
	seen := make(map[string]bool)
	for _, s := range answer.Snippets {
		if seen[s.Title] {
			continue
		}
		seen[s.Title] = true
		sources = append(sources, s.Title)
	}
	if len(sources) == 0 {
		return answer.Text
	}
	return answer.Text + "\n\nSources: " + strings.Join(sources, ", ")
}

func formatCompetitions(comps []models.Competition) string {
	var sb strings.Builder
	sb.WriteString("competition season - name\n")
	for idx, c := range comps {
		if idx == listLimit {
			sb.WriteString(fmt.Sprintf("...and %d more", len(comps)-listLimit))
			break
		}
		sb.WriteString(fmt.Sprintf("%d %d - %s %s\n", c.CompetitionID, c.SeasonID, c.CompetitionName, c.SeasonName))
	}
	return sb.String()
}

func formatMatches(matches []models.Match) string {
	var sb strings.Builder
	for idx, m := range matches {
		if idx == listLimit {
			sb.WriteString(fmt.Sprintf("...and %d more", len(matches)-listLimit))
			break
		}
		sb.WriteString(fmt.Sprintf("%d: %s %d - %d %s\n", m.MatchID, m.HomeTeam, m.HomeScore, m.AwayScore, m.AwayTeam))
	}
	sb.WriteString("\nSend /select <match id> to start.")
	return sb.String()
}

func formatScore(score application.ScoreDetails) string {
	var sb strings.Builder
	sb.WriteString(score.Line())
	for _, team := range []string{score.HomeTeam, score.AwayTeam} {
		if scorers := score.ScorersFor(team); scorers != "" {
			sb.WriteString(fmt.Sprintf("\n%s: %s", team, scorers))
		}
	}
	return sb.String()
}

func formatTeamStats(stats []application.TeamStats) string {
	var sb strings.Builder
	for i, t := range stats {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("%s\nGoals %d | Shots %d (%d on target) | xG %.2f\nPasses %d (%.0f%% completed) | Fouls %d | Corners %d\nCards %d yellow, %d red",
			t.Team, t.Goals, t.Shots, t.ShotsOnTarget, t.XG,
			t.Passes, t.PassCompletion()*100, t.Fouls, t.Corners,
			t.YellowCards, t.RedCards))
	}
	return sb.String()
}

func formatPlayer(p application.PlayerStats) string {
	return fmt.Sprintf("%s (%s)\nGoals %d | Shots %d (%d on target) | xG %.2f\nPasses %d/%d | Dribbles %d/%d\nTackles %d | Interceptions %d | Fouls %d",
		p.Player, p.Team, p.Goals, p.Shots, p.ShotsOnTarget, p.XG,
		p.PassesCompleted, p.PassesAttempted, p.DribblesCompleted, p.DribblesAttempted,
		p.Tackles, p.Interceptions, p.FoulsCommitted)
}
