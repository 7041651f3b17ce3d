package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"matchchat/internal/models"
)

const finalMatchID = 3869685

const (
	messi   = "Lionel Andrés Messi Cuccittini"
	diMaria = "Ángel Fabián Di María Hernández"
	mbappe  = "Kylian Mbappé Lottin"
)

var finalMatch = models.Match{
	MatchID:         finalMatchID,
	CompetitionID:   43,
	SeasonID:        106,
	CompetitionName: "FIFA World Cup",
	SeasonName:      "2022",
	Date:            "2022-12-18",
	HomeTeam:        "Argentina",
	AwayTeam:        "France",
	HomeScore:       3,
	AwayScore:       3,
	Stage:           "Final",
	Stadium:         "Lusail Stadium",
}

type eventBuilder struct {
	matchID int
	events  []models.Event
}

func (b *eventBuilder) add(period, minute int, typ, team, player string) *models.Event {
	b.events = append(b.events, models.Event{
		ID:         fmt.Sprintf("ev-%d", len(b.events)+1),
		Index:      len(b.events) + 1,
		MatchID:    b.matchID,
		Period:     period,
		Minute:     minute,
		Type:       typ,
		Team:       team,
		Player:     player,
		Attributes: map[string]any{},
	})
	return &b.events[len(b.events)-1]
}

func (b *eventBuilder) pass(period, minute int, team, player, outcome string) *models.Event {
	e := b.add(period, minute, models.EventPass, team, player)
	e.Outcome = outcome
	return e
}

func (b *eventBuilder) shot(period, minute int, team, player, outcome string, xg float64, kind string) *models.Event {
	e := b.add(period, minute, models.EventShot, team, player)
	e.Outcome = outcome
	e.XG = xg
	e.BodyPart = "Left Foot"
	e.Attributes["type"] = kind
	return e
}

// finalEvents is a condensed 2022 World Cup final: 3-3 after extra time,
// Argentina win the shootout 4-2.
func finalEvents(matchID int) []models.Event {
	b := &eventBuilder{matchID: matchID}
	b.add(1, 0, models.EventStartingXI, "Argentina", "")
	b.add(1, 0, models.EventStartingXI, "France", "")
	b.pass(1, 2, "Argentina", "Rodrigo Javier De Paul", "")
	b.pass(1, 5, "Argentina", messi, "")
	b.pass(1, 8, "France", "Antoine Griezmann", "Incomplete")
	b.add(1, 20, models.EventFoulCommitted, "France", "Ousmane Dembélé")
	b.shot(1, 22, "Argentina", messi, "Goal", 0.78, "Penalty")
	b.shot(1, 35, "Argentina", diMaria, "Goal", 0.3, "Open Play")
	corner := b.pass(1, 40, "France", "Antoine Griezmann", "")
	corner.Attributes["type"] = "Corner"
	foul := b.add(1, 44, models.EventFoulCommitted, "Argentina", "Enzo Fernández")
	foul.Attributes["card"] = "Yellow Card"
	b.shot(2, 70, "France", mbappe, "Saved", 0.1, "Open Play")
	b.shot(2, 79, "France", mbappe, "Goal", 0.78, "Penalty")
	b.shot(2, 80, "France", mbappe, "Goal", 0.2, "Open Play")
	tackle := b.add(2, 85, models.EventDuel, "Argentina", "Cristian Gabriel Romero")
	tackle.Attributes["type"] = "Tackle"
	b.shot(3, 107, "Argentina", messi, "Goal", 0.5, "Open Play")
	b.shot(4, 117, "France", mbappe, "Goal", 0.78, "Penalty")
	b.shot(5, 120, "France", mbappe, "Goal", 0.78, "Penalty")
	b.shot(5, 120, "Argentina", messi, "Goal", 0.78, "Penalty")
	b.shot(5, 120, "France", "Kingsley Coman", "Saved", 0.78, "Penalty")
	b.shot(5, 120, "Argentina", "Paulo Bruno Exequiel Dybala", "Goal", 0.78, "Penalty")
	b.shot(5, 120, "France", "Aurélien Djani Tchouaméni", "Off T", 0.78, "Penalty")
	b.shot(5, 120, "Argentina", "Leandro Daniel Paredes", "Goal", 0.78, "Penalty")
	b.shot(5, 120, "France", "Randal Kolo Muani", "Goal", 0.78, "Penalty")
	b.shot(5, 120, "Argentina", "Gonzalo Ariel Montiel", "Goal", 0.78, "Penalty")
	return b.events
}

// secondEvents is a short second match used for switching.
func secondEvents(matchID int) []models.Event {
	b := &eventBuilder{matchID: matchID}
	b.add(1, 0, models.EventStartingXI, "Croatia", "")
	b.add(1, 0, models.EventStartingXI, "Morocco", "")
	b.shot(1, 7, "Croatia", "Joško Gvardiol", "Goal", 0.4, "Open Play")
	b.shot(1, 9, "Morocco", "Achraf Dari", "Goal", 0.3, "Open Play")
	return b.events
}

type fakeProvider struct {
	mu      sync.Mutex
	events  map[int][]models.Event
	errs    map[int]error
	calls   map[int]int
	matches []models.Match
	lineups []models.TeamLineup

	gate    chan struct{}
	started chan struct{}

	// matchesGate holds Matches until closed.
	matchesGate    chan struct{}
	matchesStarted chan struct{}
	matchesCalls   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		events: map[int][]models.Event{
			finalMatchID: finalEvents(finalMatchID),
			7:            secondEvents(7),
		},
		errs:    make(map[int]error),
		calls:   make(map[int]int),
		matches: []models.Match{finalMatch},
	}
}

func (p *fakeProvider) Competitions(ctx context.Context) ([]models.Competition, error) {
	return []models.Competition{{CompetitionID: 43, SeasonID: 106, CompetitionName: "FIFA World Cup", SeasonName: "2022"}}, nil
}

func (p *fakeProvider) Matches(ctx context.Context, competitionID, seasonID int) ([]models.Match, error) {
	p.mu.Lock()
	p.matchesCalls++
	gate, started := p.matchesGate, p.matchesStarted
	p.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if competitionID != 43 || seasonID != 106 {
		return nil, nil
	}
	return p.matches, nil
}

func (p *fakeProvider) Events(ctx context.Context, matchID int) ([]models.Event, error) {
	p.mu.Lock()
	p.calls[matchID]++
	gate, started := p.gate, p.started
	events, err := p.events[matchID], p.errs[matchID]
	p.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	out := make([]models.Event, len(events))
	copy(out, events)
	return out, nil
}

func (p *fakeProvider) Lineups(ctx context.Context, matchID int) ([]models.TeamLineup, error) {
	return p.lineups, nil
}

func (p *fakeProvider) callCount(matchID int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[matchID]
}

type fakeCache struct {
	mu   sync.Mutex
	data map[int]*models.Dataset
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[int]*models.Dataset)}
}

func (c *fakeCache) Get(ctx context.Context, matchID int) (*models.Dataset, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ds, ok := c.data[matchID]
	return ds, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, ds *models.Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[ds.MatchID] = ds
	c.sets++
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, matchID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, matchID)
	return nil
}

type fakeLLM struct {
	mu      sync.Mutex
	prompts []models.Prompt
	answer  string
	err     error
	// block makes Generate wait for release or ctx.
	block   bool
	release chan struct{}
	called  chan struct{}
}

func newFakeLLM(answer string) *fakeLLM {
	return &fakeLLM{answer: answer, release: make(chan struct{}), called: make(chan struct{}, 8)}
}

func (l *fakeLLM) Generate(ctx context.Context, prompt models.Prompt, cfg models.GenerationConfig) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	n := len(l.prompts)
	block, answer, err := l.block, l.answer, l.err
	l.mu.Unlock()

	select {
	case l.called <- struct{}{}:
	default:
	}
	if block {
		select {
		case <-l.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s #%d", answer, n), nil
}

func (l *fakeLLM) promptCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

func (l *fakeLLM) lastPrompt() models.Prompt {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.prompts) == 0 {
		return models.Prompt{}
	}
	return l.prompts[len(l.prompts)-1]
}

type fakeSearch struct {
	mu      sync.Mutex
	results []models.SearchResult
	err     error
	queries []string
}

func (s *fakeSearch) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) > limit {
		return s.results[:limit], nil
	}
	return s.results, nil
}

func (s *fakeSearch) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

type fakeTranscripts struct {
	mu      sync.Mutex
	saved   []models.Turn
	deleted []string
}

func (t *fakeTranscripts) SaveTurns(ctx context.Context, sessionID string, matchID int, turns []models.Turn) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.saved = append(t.saved, turns...)
	return nil
}

func (t *fakeTranscripts) ListTurns(ctx context.Context, sessionID string, limit int) ([]models.Turn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Turn(nil), t.saved...), nil
}

func (t *fakeTranscripts) DeleteSession(ctx context.Context, sessionID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleted = append(t.deleted, sessionID)
	t.saved = nil
	return nil
}

type fakeSheets struct {
	cleared string
	values  [][]interface{}
}

func (s *fakeSheets) ClearRange(spreadsheetID, rangeStr string) error {
	s.cleared = rangeStr
	return nil
}

func (s *fakeSheets) UpdateValues(spreadsheetID, rangeStr string, values [][]interface{}) error {
	s.values = values
	return nil
}

type testEnv struct {
	provider    *fakeProvider
	llm         *fakeLLM
	search      *fakeSearch
	transcripts *fakeTranscripts
	sheets      *fakeSheets
	svc         *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		provider:    newFakeProvider(),
		llm:         newFakeLLM("answer"),
		search:      &fakeSearch{},
		transcripts: &fakeTranscripts{},
		sheets:      &fakeSheets{},
	}
	cfg := Config{
		DatasetTTL:    time.Hour,
		SpreadsheetID: "sheet-1",
		Chat:          ChatConfig{HistoryTurns: 2, ContextTokens: 400, Timeout: time.Second},
		Search:        SearchConfig{MaxResults: 3, MaxChars: 80},
		Ranking:       DefaultRanking(),
	}
	env.svc = NewService(cfg, Deps{
		Provider:    env.provider,
		LLM:         env.llm,
		Search:      env.search,
		Transcripts: env.transcripts,
		Sheets:      env.sheets,
	})
	return env
}

// selectFinal creates a session pointed at the final.
func (e *testEnv) selectFinal(id string) {
	e.svc.Sessions.SwitchMatch(id, models.MatchRef{MatchID: finalMatchID, CompetitionID: 43, SeasonID: 106})
}

func finalDataset() *models.Dataset {
	return &models.Dataset{MatchID: finalMatchID, Events: finalEvents(finalMatchID)}
}
