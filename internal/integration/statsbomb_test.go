package integration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"matchchat/internal/models"
)

const eventsFixture = `[
  {"id":"a1","index":1,"period":1,"timestamp":"00:00:00.000","minute":0,"second":0,
   "type":{"id":35,"name":"Starting XI"},"team":{"id":1,"name":"Argentina"}},
  {"id":"a2","index":2,"period":1,"timestamp":"00:22:10.100","minute":22,"second":10,
   "type":{"id":16,"name":"Shot"},"team":{"id":1,"name":"Argentina"},
   "player":{"id":5503,"name":"Lionel Andrés Messi Cuccittini"},"position":{"id":17,"name":"Right Wing"},
   "play_pattern":{"id":1,"name":"Regular Play"},"location":[108.0,40.0],
   "shot":{"statsbomb_xg":0.78,"end_location":[120.0,38.5,0.4],"outcome":{"id":97,"name":"Goal"},
           "body_part":{"id":40,"name":"Left Foot"},"type":{"id":88,"name":"Penalty"}}},
  {"id":"a3","index":3,"period":1,"timestamp":"00:30:00.000","minute":30,"second":0,
   "type":{"id":22,"name":"Foul Committed"},"team":{"id":2,"name":"France"},
   "player":{"id":1,"name":"Ousmane Dembélé"},"foul_committed":{"card":{"id":7,"name":"Yellow Card"}}}
]`

func TestStatsBombEvents_DecodesTypedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/3869685.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(eventsFixture))
	}))
	defer server.Close()

	c := NewStatsBombClient(server.URL, time.Second)
	events, err := c.Events(context.Background(), 3869685)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	shot := events[1]
	if shot.MatchID != 3869685 {
		t.Errorf("expected match id to be stamped, got %d", shot.MatchID)
	}
	if !shot.IsGoal() {
		t.Errorf("expected goal, got outcome %q", shot.Outcome)
	}
	if shot.XG != 0.78 {
		t.Errorf("expected xg 0.78, got %v", shot.XG)
	}
	if shot.BodyPart != "Left Foot" {
		t.Errorf("expected body part, got %q", shot.BodyPart)
	}
	if shot.Attr("type") != "Penalty" {
		t.Errorf("expected shot type Penalty, got %q", shot.Attr("type"))
	}
	if shot.EndLocation == nil || shot.EndLocation.Z != 0.4 {
		t.Errorf("unexpected end location %+v", shot.EndLocation)
	}
	if shot.Location == nil || shot.Location.X != 108 {
		t.Errorf("unexpected location %+v", shot.Location)
	}
	if events[2].Card() != "Yellow Card" {
		t.Errorf("expected yellow card, got %q", events[2].Card())
	}
}

func TestStatsBombEvents_NotFoundIsDataUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := NewStatsBombClient(server.URL, time.Second)
	_, err := c.Events(context.Background(), 1)
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestStatsBombEvents_ServerErrorIsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewStatsBombClient(server.URL, time.Second)
	_, err := c.Events(context.Background(), 1)
	if !errors.Is(err, models.ErrDataProvider) {
		t.Fatalf("expected ErrDataProvider, got %v", err)
	}
}

func TestStatsBombMatches_MapsDescriptors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"match_id":3869685,"match_date":"2022-12-18","kick_off":"17:00:00.000",
			"competition":{"competition_id":43,"competition_name":"FIFA World Cup"},
			"season":{"season_id":106,"season_name":"2022"},
			"home_team":{"home_team_id":779,"home_team_name":"Argentina"},
			"away_team":{"away_team_id":771,"away_team_name":"France"},
			"home_score":3,"away_score":3,
			"competition_stage":{"id":26,"name":"Final"},
			"stadium":{"id":1,"name":"Lusail Stadium"},"referee":null}]`))
	}))
	defer server.Close()

	c := NewStatsBombClient(server.URL, time.Second)
	matches, err := c.Matches(context.Background(), 43, 106)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.Title() != "Argentina vs France" || m.Stage != "Final" || m.Stadium != "Lusail Stadium" {
		t.Errorf("unexpected match %+v", m)
	}
	if m.Referee != "" {
		t.Errorf("expected empty referee, got %q", m.Referee)
	}
}

func TestStatsBombLineups_StartingXI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"team_id":1,"team_name":"Argentina","lineup":[
			{"player_name":"Emiliano Martínez","player_nickname":null,"jersey_number":23,
			 "positions":[{"position":"Goalkeeper","start_reason":"Starting XI"}]},
			{"player_name":"Paulo Dybala","player_nickname":"Paulo Dybala","jersey_number":21,"positions":[]}]}]`))
	}))
	defer server.Close()

	c := NewStatsBombClient(server.URL, time.Second)
	lineups, err := c.Lineups(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	players := lineups[0].Players
	if !players[0].Starting() || players[1].Starting() {
		t.Errorf("unexpected starting flags: %+v", players)
	}
	if players[1].Nickname != "Paulo Dybala" {
		t.Errorf("expected nickname, got %q", players[1].Nickname)
	}
}

func TestAttributeKey(t *testing.T) {
	cases := map[string]string{
		"Foul Committed": "foul_committed",
		"Goal Keeper":    "goalkeeper",
		"Ball Receipt*":  "ball_receipt",
		"Bad Behaviour":  "bad_behaviour",
		"Pass":           "pass",
	}
	for in, want := range cases {
		if got := attributeKey(in); got != want {
			t.Errorf("attributeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
