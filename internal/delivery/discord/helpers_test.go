package discord

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"matchchat/internal/models"

	"github.com/bwmarrin/discordgo"
)

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short text = %q", got)
	}
	if got := splitMessage("", 10); len(got) != 1 || got[0] != "" {
		t.Fatalf("empty text = %q", got)
	}

	text := "aaaa\nbbbb\ncccc\n"
	got := splitMessage(text, 10)
	if len(got) != 2 || got[0] != "aaaa\nbbbb\n" || got[1] != "cccc\n" {
		t.Errorf("split on lines = %q", got)
	}

	long := strings.Repeat("é", 25)
	got = splitMessage(long, 10)
	if len(got) != 3 {
		t.Fatalf("long line chunks = %d, want 3", len(got))
	}
	for _, c := range got {
		if utf8.RuneCountInString(c) > 10 {
			t.Errorf("chunk %q exceeds limit", c)
		}
	}
	if strings.Join(got, "") != long {
		t.Error("chunks do not reassemble the text")
	}
}

func TestSessionIDs(t *testing.T) {
	if got := sessionID("c1", "u1"); got != "discord:c1:u1" {
		t.Errorf("sessionID = %q", got)
	}

	guild := &discordgo.Interaction{ChannelID: "c1", Member: &discordgo.Member{User: &discordgo.User{ID: "u1"}}}
	if got := interactionSessionID(guild); got != "discord:c1:u1" {
		t.Errorf("guild session = %q", got)
	}
	dm := &discordgo.Interaction{ChannelID: "dm", User: &discordgo.User{ID: "u2"}}
	if got := interactionSessionID(dm); got != "discord:dm:u2" {
		t.Errorf("dm session = %q", got)
	}
}

func TestStripMention(t *testing.T) {
	if got := stripMention("<@42> who scored?", "42"); got != "who scored?" {
		t.Errorf("got %q", got)
	}
	if got := stripMention("<@!42>   ", "42"); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestFormatAnswer(t *testing.T) {
	answer := &models.Answer{
		Text: "Messi scored twice.",
		Snippets: []models.Snippet{
			{Title: "Goals", Source: models.SourceStructured},
			{Title: "Goals", Source: models.SourceStructured},
			{Title: "Match report", Source: models.SourceWeb, URL: "https://example.com/r"},
		},
	}
	got := formatAnswer(answer)
	want := "Messi scored twice.\n\n-# Sources: Goals, [Match report](<https://example.com/r>)"
	if got != want {
		t.Errorf("formatAnswer = %q, want %q", got, want)
	}

	if got := formatAnswer(&models.Answer{Text: "plain"}); got != "plain" {
		t.Errorf("no sources = %q", got)
	}
}

func TestErrorText(t *testing.T) {
	if got := errorText(models.ErrNoMatchSelected); got != "Select a match first." {
		t.Errorf("got %q", got)
	}
	if got := errorText(errors.New("boom")); got != "Something went wrong." {
		t.Errorf("got %q", got)
	}
}

func TestFormatListings(t *testing.T) {
	comps := []models.Competition{
		{CompetitionID: 43, SeasonID: 106, CompetitionName: "FIFA World Cup", SeasonName: "2022"},
		{CompetitionID: 55, SeasonID: 43, CompetitionName: "UEFA Euro", SeasonName: "2020"},
	}
	got := formatCompetitions(comps, 1)
	if !strings.HasPrefix(got, "`43/106` **FIFA World Cup** 2022\n") || !strings.HasSuffix(got, "...and 1 more") {
		t.Errorf("formatCompetitions = %q", got)
	}

	matches := []models.Match{{MatchID: 7, HomeTeam: "Croatia", AwayTeam: "Morocco", HomeScore: 0, AwayScore: 0}}
	if got := formatMatches(matches, 10); got != "`7` Croatia 0 - 0 Morocco (no date)\n" {
		t.Errorf("formatMatches = %q", got)
	}
}
