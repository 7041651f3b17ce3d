package application

import (
	"fmt"
	"strings"

	"matchchat/internal/models"
)

const groundingInstructions = `You are a football (soccer) analyst answering questions about one specific match.
Base every statement on the match data provided below. Quote numbers exactly as given.
If the match data does not contain the answer, say so plainly instead of guessing.
Web results may add background facts; treat them as secondary and never let them override the match data.
Answer in the language of the question, concisely, in plain prose or short lists.`

const noDataFallback = "No specific data found in this match for the question. Answer from the match details above if possible, otherwise say the data does not cover it."

const commentaryInstructions = `You are a sports commentator with expertise in football (soccer). Respond as if you are delivering an engaging analysis for a TV audience.
Always mention the scoreline and the teams involved. Describe the importance of the game and when and where it took place.
Evaluate both starting line-ups, highlight key players and their roles, and mention any surprising decisions.
Use a lively, professional tone that works for fans of all knowledge levels. Only use facts given below.`

// buildPrompt assembles the prompt sections in their fixed order. It is never
// empty: without structured snippets the fallback note takes their place.
func buildPrompt(match models.Match, structured, web []models.Snippet, history []models.Turn, question string) models.Prompt {
	sections := []models.PromptSection{
		{Name: "Match", Body: describeMatch(match)},
	}

	if len(structured) > 0 {
		sections = append(sections, models.PromptSection{Name: "Match data", Body: renderSnippets(structured)})
	} else {
		sections = append(sections, models.PromptSection{Name: "Match data", Body: noDataFallback})
	}

	if len(web) > 0 {
		sections = append(sections, models.PromptSection{Name: "Web results", Body: renderSnippets(web)})
	}

	if len(history) > 0 {
		sections = append(sections, models.PromptSection{Name: "Conversation so far", Body: renderHistory(history)})
	}

	sections = append(sections, models.PromptSection{Name: "Question", Body: question})

	return models.Prompt{System: groundingInstructions, Sections: sections}
}

func buildCommentaryPrompt(match models.Match, score ScoreDetails, lineups []models.TeamLineup) models.Prompt {
	details := describeMatch(match)
	if score.HomeTeam != "" {
		details += "\nScore from events: " + score.Line()
	}

	var sb strings.Builder
	for i, team := range lineups {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s starting XI: ", team.TeamName)
		var names []string
		for _, p := range team.Players {
			if !p.Starting() {
				continue
			}
			name := p.PlayerName
			if p.Nickname != "" {
				name = p.Nickname
			}
			if p.Position != "" {
				name += " (" + p.Position + ")"
			}
			names = append(names, name)
		}
		sb.WriteString(strings.Join(names, ", "))
	}

	sections := []models.PromptSection{{Name: "Match", Body: details}}
	if sb.Len() > 0 {
		sections = append(sections, models.PromptSection{Name: "Line-ups", Body: sb.String()})
	}
	sections = append(sections, models.PromptSection{
		Name: "Task",
		Body: fmt.Sprintf("Deliver the commentary. Start with: \"Hello everyone, I've watched the match between %s and %s...\"", match.HomeTeam, match.AwayTeam),
	})
	return models.Prompt{System: commentaryInstructions, Sections: sections}
}

func describeMatch(m models.Match) string {
	var lines []string
	if m.HomeTeam != "" || m.AwayTeam != "" {
		lines = append(lines, fmt.Sprintf("%s vs %s", m.HomeTeam, m.AwayTeam))
	}
	if m.CompetitionName != "" {
		comp := m.CompetitionName
		if m.SeasonName != "" {
			comp += " " + m.SeasonName
		}
		if m.Stage != "" {
			comp += ", " + m.Stage
		}
		lines = append(lines, "Competition: "+comp)
	}
	if m.Date != "" {
		date := m.Date
		if m.KickOff != "" {
			date += " " + m.KickOff
		}
		lines = append(lines, "Date: "+date)
	}
	if m.Stadium != "" {
		lines = append(lines, "Stadium: "+m.Stadium)
	}
	if m.Referee != "" {
		lines = append(lines, "Referee: "+m.Referee)
	}
	if m.HomeTeam != "" && m.AwayTeam != "" {
		lines = append(lines, fmt.Sprintf("Final score: %s %d - %d %s", m.HomeTeam, m.HomeScore, m.AwayScore, m.AwayTeam))
	}
	lines = append(lines, fmt.Sprintf("Match ID: %d", m.MatchID))
	return strings.Join(lines, "\n")
}

func renderSnippets(snippets []models.Snippet) string {
	blocks := make([]string, 0, len(snippets))
	for _, s := range snippets {
		block := "### " + s.Title + "\n" + s.Text
		if s.URL != "" {
			block += "\nSource: " + s.URL
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func renderHistory(turns []models.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		role := "User"
		if t.Role == models.RoleAssistant {
			role = "Assistant"
		}
		lines = append(lines, role+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}

// recentTurns keeps the last pairs user/assistant pairs.
func recentTurns(turns []models.Turn, pairs int) []models.Turn {
	if pairs <= 0 {
		return nil
	}
	limit := pairs * 2
	if len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}
