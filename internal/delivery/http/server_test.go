package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"matchchat/internal/application"
	"matchchat/internal/models"
)

const testMatchID = 3869685

type stubProvider struct {
	mu     sync.Mutex
	calls  int
	events []models.Event
	err    error
}

func (p *stubProvider) Competitions(ctx context.Context) ([]models.Competition, error) {
	return []models.Competition{{CompetitionID: 43, SeasonID: 106, CompetitionName: "FIFA World Cup", SeasonName: "2022"}}, nil
}

func (p *stubProvider) Matches(ctx context.Context, competitionID, seasonID int) ([]models.Match, error) {
	if competitionID != 43 || seasonID != 106 {
		return nil, nil
	}
	return []models.Match{{MatchID: testMatchID, CompetitionID: 43, SeasonID: 106, HomeTeam: "Argentina", AwayTeam: "France"}}, nil
}

func (p *stubProvider) Events(ctx context.Context, matchID int) ([]models.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if matchID != testMatchID {
		return nil, nil
	}
	return p.events, nil
}

func (p *stubProvider) Lineups(ctx context.Context, matchID int) ([]models.TeamLineup, error) {
	return []models.TeamLineup{{TeamName: "Argentina", Players: []models.LineupPlayer{
		{PlayerName: "Lionel Messi", StartReason: "Starting XI"},
		{PlayerName: "Paulo Dybala", StartReason: "Substitution - On (Tactical)"},
	}}}, nil
}

type stubLLM struct {
	err error
}

func (l *stubLLM) Generate(ctx context.Context, prompt models.Prompt, cfg models.GenerationConfig) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	return "Messi scored twice.", nil
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("connection refused") }

func sampleEvents() []models.Event {
	shot := func(idx, minute int, team, player, outcome string) models.Event {
		return models.Event{
			ID: fmt.Sprintf("ev-%d", idx), Index: idx, MatchID: testMatchID, Period: 1, Minute: minute,
			Type: models.EventShot, Team: team, Player: player, Outcome: outcome, XG: 0.3,
			Attributes: map[string]any{"type": "Open Play"},
		}
	}
	return []models.Event{
		shot(1, 10, "Argentina", "Lionel Messi", "Goal"),
		shot(2, 30, "France", "Kylian Mbappe", "Saved"),
		shot(3, 60, "Argentina", "Lionel Messi", "Goal"),
	}
}

type testServer struct {
	provider *stubProvider
	llm      *stubLLM
	server   *Server
}

func newTestServer() *testServer {
	ts := &testServer{provider: &stubProvider{events: sampleEvents()}, llm: &stubLLM{}}
	app := application.NewService(application.Config{}, application.Deps{Provider: ts.provider, LLM: ts.llm})
	ts.server = NewServer(":0", app, nil, nil)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	ts.server.AddHealthCheck("postgres", failingPinger{})
	rec = ts.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["status"] != "degraded" || body["postgres"] != "connection refused" {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := newTestServer().do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCatalogue(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/v1/competitions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("competitions status = %d", rec.Code)
	}
	if comps := decode[[]models.Competition](t, rec); len(comps) != 1 || comps[0].CompetitionID != 43 {
		t.Errorf("competitions = %+v", comps)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/competitions/43/seasons/106/matches", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("matches status = %d", rec.Code)
	}
	if matches := decode[[]models.Match](t, rec); len(matches) != 1 || matches[0].Title() != "Argentina vs France" {
		t.Errorf("matches = %+v", matches)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/competitions/1/seasons/1/matches", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty season status = %d, want 404", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/competitions/abc/seasons/106/matches", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
	if body := decode[errorResponse](t, rec); body.Error != models.KindInvalidRequest {
		t.Errorf("error kind = %q", body.Error)
	}
}

func TestMatchEndpoints(t *testing.T) {
	ts := newTestServer()
	base := fmt.Sprintf("/api/v1/matches/%d", testMatchID)

	rec := ts.do(t, http.MethodGet, base+"/score", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("score status = %d: %s", rec.Code, rec.Body.String())
	}
	score := decode[application.ScoreDetails](t, rec)
	if score.HomeTeam != "Argentina" || score.HomeGoals != 2 || score.AwayGoals != 0 {
		t.Errorf("score = %+v", score)
	}

	rec = ts.do(t, http.MethodGet, base+"/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	if stats := decode[[]application.TeamStats](t, rec); len(stats) != 2 || stats[0].Shots != 2 || stats[1].Shots != 1 {
		t.Errorf("stats = %+v", stats)
	}

	rec = ts.do(t, http.MethodGet, base+"/players?player=messi&window=first_half", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("players status = %d", rec.Code)
	}
	if players := decode[[]application.PlayerStats](t, rec); len(players) != 1 || players[0].Goals != 2 {
		t.Errorf("players = %+v", players)
	}

	rec = ts.do(t, http.MethodGet, base+"/players?window=injury_time", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad window status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, base+"/lineups", nil)
	if xi := decode[[]models.TeamLineup](t, rec); len(xi) != 1 || len(xi[0].Players) != 1 {
		t.Errorf("lineups = %+v", xi)
	}

	rec = ts.do(t, http.MethodPost, base+"/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}
	if ts.provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2 after refresh", ts.provider.calls)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/matches/99/score", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown match status = %d, want 404", rec.Code)
	}
	if body := decode[errorResponse](t, rec); body.Error != models.KindDataUnavailable {
		t.Errorf("error kind = %q", body.Error)
	}
}

func TestProviderFailure(t *testing.T) {
	ts := newTestServer()
	ts.provider.err = errors.New("dial tcp: timeout")

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/matches/%d/score", testMatchID), nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if body := decode[errorResponse](t, rec); body.Error != models.KindDataProvider || body.Message == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/v1/sessions", sessionRequest{MatchID: testMatchID, CompetitionID: 43, SeasonID: 106})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	view := decode[application.SessionView](t, rec)
	if view.ID == "" {
		t.Fatal("expected a session id")
	}
	base := "/api/v1/sessions/" + view.ID

	rec = ts.do(t, http.MethodPost, base+"/ask", askRequest{Question: "How many goals did Messi score?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("ask status = %d: %s", rec.Code, rec.Body.String())
	}
	if answer := decode[models.Answer](t, rec); answer.Text != "Messi scored twice." || len(answer.Snippets) == 0 {
		t.Errorf("answer = %+v", answer)
	}

	rec = ts.do(t, http.MethodGet, base+"/turns", nil)
	if turns := decode[[]models.Turn](t, rec); len(turns) != 2 {
		t.Errorf("turns = %d, want 2", len(turns))
	}

	rec = ts.do(t, http.MethodGet, base+"/export.json", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), "chat-"+view.ID+".json") {
		t.Errorf("export.json status = %d, disposition %q", rec.Code, rec.Header().Get("Content-Disposition"))
	}

	rec = ts.do(t, http.MethodGet, base+"/export.xlsx", nil)
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Errorf("export.xlsx status = %d, %d bytes", rec.Code, rec.Body.Len())
	}

	rec = ts.do(t, http.MethodPost, base+"/export/sheet", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("sheet export status = %d, want 503 without a spreadsheet", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, base+"/commentary", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("commentary status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, base+"/reset", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reset status = %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, base, nil)
	if got := decode[application.SessionView](t, rec); got.Match.MatchID != testMatchID {
		t.Errorf("reset dropped the match: %+v", got)
	}

	rec = ts.do(t, http.MethodPut, base+"/match", sessionRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("switch without match status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodDelete, base, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted session status = %d, want 404", rec.Code)
	}
}

func TestAskErrors(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/v1/sessions", nil)
	view := decode[application.SessionView](t, rec)
	base := "/api/v1/sessions/" + view.ID

	rec = ts.do(t, http.MethodPost, base+"/ask", askRequest{Question: "Who scored?"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no match status = %d, want 400", rec.Code)
	}
	if body := decode[errorResponse](t, rec); body.Message != "Select a match first." {
		t.Errorf("message = %q", body.Message)
	}

	rec = ts.do(t, http.MethodPut, base+"/match", sessionRequest{MatchID: testMatchID})
	if rec.Code != http.StatusOK {
		t.Fatalf("switch status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, base+"/ask", askRequest{Question: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank question status = %d, want 400", rec.Code)
	}

	ts.llm.err = errors.New("quota exceeded")
	rec = ts.do(t, http.MethodPost, base+"/ask", askRequest{Question: "Who scored?"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("generation failure status = %d, want 502", rec.Code)
	}
	if body := decode[errorResponse](t, rec); body.Error != models.KindGeneration {
		t.Errorf("error kind = %q", body.Error)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/sessions/nobody/ask", askRequest{Question: "Who scored?"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, base+"/ask", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(raw, req)
	if raw.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", raw.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrDataUnavailable, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", models.ErrSessionNotFound), http.StatusNotFound},
		{models.ErrSearch, http.StatusBadGateway},
		{models.ErrConfiguration, http.StatusServiceUnavailable},
		{models.ErrSessionChanged, http.StatusConflict},
		{context.Canceled, http.StatusRequestTimeout},
		{fmt.Errorf("events: %w", context.DeadlineExceeded), http.StatusRequestTimeout},
		{fmt.Errorf("%w: match 1: %w", models.ErrDataProvider, context.DeadlineExceeded), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
