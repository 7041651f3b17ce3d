package application

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"matchchat/internal/models"
)

type Facet string

const (
	FacetMoment    Facet = "moment"
	FacetPlayer    Facet = "player"
	FacetTeam      Facet = "team"
	FacetEventType Facet = "event_type"
	FacetPhase     Facet = "phase"
	FacetSummary   Facet = "summary"
)

var facetRank = map[Facet]int{
	FacetMoment:    0,
	FacetPlayer:    1,
	FacetTeam:      2,
	FacetEventType: 3,
	FacetPhase:     4,
	FacetSummary:   5,
}

// FacetMatch is one facet recognised in a question. Position is the index of
// the word that triggered it.
type FacetMatch struct {
	Facet    Facet
	Value    string
	Position int
	Minute   int
}

type Classification struct {
	Matches     []FacetMatch
	NeedsSearch bool
}

func (c Classification) Empty() bool {
	return len(c.Matches) == 0
}

func (c Classification) Has(f Facet) bool {
	for _, m := range c.Matches {
		if m.Facet == f {
			return true
		}
	}
	return false
}

type eventTopic struct {
	key      string
	label    string
	keywords []string
	match    func(models.Event) bool
}

var eventTopics = []eventTopic{
	{key: "goals", label: "Goals", keywords: []string{"goal", "goals", "scored", "scorer", "scorers", "scoring"},
		match: func(e models.Event) bool { return e.IsGoal() || e.Type == models.EventOwnGoalAgainst }},
	{key: "shots", label: "Shots", keywords: []string{"shot", "shots", "shooting", "attempt", "attempts", "xg"},
		match: func(e models.Event) bool { return e.Type == models.EventShot }},
	{key: "passes", label: "Passes", keywords: []string{"pass", "passes", "passing", "passed", "assist", "assists"},
		match: func(e models.Event) bool { return e.Type == models.EventPass }},
	{key: "fouls", label: "Fouls", keywords: []string{"foul", "fouls", "fouled"},
		match: func(e models.Event) bool { return e.Type == models.EventFoulCommitted }},
	{key: "cards", label: "Cards", keywords: []string{"card", "cards", "booked", "booking", "bookings", "yellow", "red", "sent off"},
		match: func(e models.Event) bool { return e.Card() != "" }},
	{key: "corners", label: "Corners", keywords: []string{"corner", "corners"},
		match: isCorner},
	{key: "dribbles", label: "Dribbles", keywords: []string{"dribble", "dribbles", "dribbling", "dribbled"},
		match: func(e models.Event) bool { return e.Type == models.EventDribble }},
	{key: "tackles", label: "Tackles", keywords: []string{"tackle", "tackles", "tackling"},
		match: isTackle},
	{key: "interceptions", label: "Interceptions", keywords: []string{"interception", "interceptions", "intercepted"},
		match: func(e models.Event) bool { return e.Type == models.EventInterception }},
	{key: "offsides", label: "Offsides", keywords: []string{"offside", "offsides"},
		match: isOffside},
	{key: "saves", label: "Saves", keywords: []string{"save", "saves", "saved", "goalkeeper", "keeper", "goalkeeping"},
		match: func(e models.Event) bool {
			return e.Type == models.EventGoalKeeper && strings.Contains(e.Attr("type"), "Saved")
		}},
	{key: "substitutions", label: "Substitutions", keywords: []string{"substitution", "substitutions", "sub", "subs", "substituted", "replaced", "bench"},
		match: func(e models.Event) bool { return e.Type == models.EventSubstitution }},
	{key: "pressures", label: "Pressures", keywords: []string{"press", "pressing", "pressure", "pressures", "pressed"},
		match: func(e models.Event) bool { return e.Type == models.EventPressure }},
}

type matchPhase struct {
	key      string
	label    string
	keywords []string
	periods  []int
}

var matchPhases = []matchPhase{
	{key: WindowFirstHalf, label: "First half", keywords: []string{"first half", "1st half", "opening half"}, periods: []int{1}},
	{key: WindowSecondHalf, label: "Second half", keywords: []string{"second half", "2nd half"}, periods: []int{2}},
	{key: WindowOvertime, label: "Extra time", keywords: []string{"extra time", "overtime"}, periods: []int{3, 4}},
	{key: "shootout", label: "Penalty shootout", keywords: []string{"shootout", "penalties", "penalty shootout", "spot kicks"}, periods: []int{models.PeriodShootout}},
}

var summaryKeywords = []string{
	"score", "scoreline", "result", "final score", "overview", "summary", "summarize", "summarise",
	"stats", "statistics", "won", "win", "winner", "lost", "draw", "happened", "recap", "report",
}

var searchKeywords = []string{
	"news", "biography", "born", "age", "old", "transfer", "transfers", "career", "stadium", "coach",
	"manager", "history", "historical", "rivalry", "injury", "injured", "contract", "salary",
	"nationality", "height", "attendance", "weather", "who is", "previous", "trophies", "record",
}

// otherFixtureKeywords point at meetings outside the loaded match.
var otherFixtureKeywords = []string{"last time", "head to head", "previous meeting", "next match"}

var minuteRegex = regexp.MustCompile(`\b(\d{1,3})(?:st|nd|rd|th)?\s*(?:'|(?:min|mins|minute|minutes)\b)|\b(?:minute|min)\s+(\d{1,3})\b`)

// momentTypes are the events worth listing in a raw moment dump.
var momentTypes = map[string]bool{
	models.EventShot:           true,
	models.EventOwnGoalAgainst: true,
	models.EventFoulCommitted:  true,
	models.EventFoulWon:        true,
	models.EventBadBehaviour:   true,
	models.EventGoalKeeper:     true,
	models.EventSubstitution:   true,
	models.EventOffside:        true,
	models.EventDribble:        true,
	models.EventInterception:   true,
}

// ContextBuilder reduces a match dataset to the snippets relevant to one
// question.
type ContextBuilder struct {
	tokens  TokenCounter
	weights RankingWeights
}

func NewContextBuilder(tokens TokenCounter, weights RankingWeights) *ContextBuilder {
	if weights.isZero() {
		weights = DefaultRanking()
	}
	return &ContextBuilder{tokens: tokens, weights: weights}
}

// Classify recognises facets in question order. The dataset provides the team
// and player vocabulary.
func (b *ContextBuilder) Classify(ds *models.Dataset, match *models.Match, question string) Classification {
	normalized := NormalizeName(question)
	ws := words(question)

	var found []FacetMatch
	add := func(f Facet, value string, pos int) {
		found = append(found, FacetMatch{Facet: f, Value: value, Position: pos})
	}

	for _, loc := range minuteRegex.FindAllStringSubmatchIndex(normalized, -1) {
		digits := ""
		if loc[2] >= 0 {
			digits = normalized[loc[2]:loc[3]]
		} else if loc[4] >= 0 {
			digits = normalized[loc[4]:loc[5]]
		}
		minute, err := strconv.Atoi(digits)
		if err != nil || minute > 130 {
			continue
		}
		pos := len(strings.Fields(normalized[:loc[0]]))
		found = append(found, FacetMatch{Facet: FacetMoment, Value: digits, Position: pos, Minute: minute})
	}

	var teams, players []string
	if ds != nil {
		teams, players = ds.Teams(), ds.Players()
	}
	if match != nil {
		for _, t := range nonEmpty(match.HomeTeam, match.AwayTeam) {
			if !slices.Contains(teams, t) {
				teams = append(teams, t)
			}
		}
	}

	teamWords := make(map[string]bool)
	for _, team := range teams {
		tw := words(team)
		for _, w := range tw {
			teamWords[w] = true
		}
		if pos := findPhrase(ws, tw); pos >= 0 {
			add(FacetTeam, team, pos)
			continue
		}
		if pos := findAnyPart(ws, distinctiveParts(tw), 1.0); pos >= 0 {
			add(FacetTeam, team, pos)
		}
	}

	for _, player := range players {
		pw := words(player)
		if pos := findPhrase(ws, pw); pos >= 0 {
			add(FacetPlayer, player, pos)
			continue
		}
		var parts []string
		for _, p := range pw {
			if !teamWords[p] {
				parts = append(parts, p)
			}
		}
		if pos := findAnyPart(ws, parts, playerMatchMinScore); pos >= 0 {
			add(FacetPlayer, player, pos)
		}
	}

	for _, t := range eventTopics {
		if pos := findKeyword(ws, t.keywords); pos >= 0 {
			add(FacetEventType, t.key, pos)
		}
	}
	for _, p := range matchPhases {
		if pos := findKeyword(ws, p.keywords); pos >= 0 {
			add(FacetPhase, p.key, pos)
		}
	}
	if pos := findKeyword(ws, summaryKeywords); pos >= 0 {
		add(FacetSummary, "", pos)
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Position != found[j].Position {
			return found[i].Position < found[j].Position
		}
		return facetRank[found[i].Facet] < facetRank[found[j].Facet]
	})

	needsSearch := findKeyword(ws, searchKeywords) >= 0 || findKeyword(ws, otherFixtureKeywords) >= 0
	return Classification{Matches: dedupe(found), NeedsSearch: needsSearch}
}

func dedupe(in []FacetMatch) []FacetMatch {
	seen := make(map[string]bool, len(in))
	out := make([]FacetMatch, 0, len(in))
	for _, m := range in {
		key := string(m.Facet) + "|" + m.Value
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// Build returns ranked snippets for question within budget tokens. A budget
// of zero or less disables trimming.
func (b *ContextBuilder) Build(ds *models.Dataset, question string, budget int) []models.Snippet {
	return b.BuildFor(ds, nil, question, budget)
}

func (b *ContextBuilder) BuildFor(ds *models.Dataset, match *models.Match, question string, budget int) []models.Snippet {
	return b.BuildClassified(ds, match, b.Classify(ds, match, question), budget)
}

func (b *ContextBuilder) BuildClassified(ds *models.Dataset, match *models.Match, cls Classification, budget int) []models.Snippet {
	if ds == nil || len(ds.Events) == 0 || cls.Empty() {
		return []models.Snippet{}
	}

	home, away := homeAway(ds, match)
	teams := nonEmpty(home, away)

	type candidate struct {
		snippet    models.Snippet
		matchOrder int
	}
	var candidates []candidate
	perFacet := make(map[Facet]int)

	for i, fm := range cls.Matches {
		var built []models.Snippet
		switch fm.Facet {
		case FacetSummary:
			built = b.summarySnippets(ds, home, away, teams)
		case FacetTeam:
			built = b.teamSnippets(ds, fm.Value)
		case FacetPlayer:
			built = b.playerSnippets(ds, fm.Value)
		case FacetEventType:
			built = b.eventTypeSnippets(ds, fm.Value, teams, home, away)
		case FacetPhase:
			built = b.phaseSnippets(ds, fm.Value, teams)
		case FacetMoment:
			built = b.momentSnippets(ds, fm.Minute)
		}

		for _, s := range built {
			pos := perFacet[fm.Facet]
			perFacet[fm.Facet]++
			s.Source = models.SourceStructured
			s.Facet = string(fm.Facet)
			s.Relevance = b.weights.weight(fm.Facet) - b.weights.Decay*float64(pos)
			s.Tokens = b.count(snippetBody(s))
			candidates = append(candidates, candidate{snippet: s, matchOrder: i})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, c := candidates[i], candidates[j]
		if a.snippet.Relevance != c.snippet.Relevance {
			return a.snippet.Relevance > c.snippet.Relevance
		}
		if a.matchOrder != c.matchOrder {
			return a.matchOrder < c.matchOrder
		}
		return a.snippet.Order < c.snippet.Order
	})

	ranked := make([]models.Snippet, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.snippet
	}
	return b.fitBudget(ranked, budget)
}

// fitBudget drops the lowest ranked snippets until the total fits. A lone
// snippet that is still too large is cut line by line.
func (b *ContextBuilder) fitBudget(ranked []models.Snippet, budget int) []models.Snippet {
	if budget <= 0 {
		return ranked
	}

	total := 0
	for _, s := range ranked {
		total += s.Tokens
	}
	for total > budget && len(ranked) > 1 {
		total -= ranked[len(ranked)-1].Tokens
		ranked = ranked[:len(ranked)-1]
	}
	if total <= budget {
		return ranked
	}
	if len(ranked) == 0 {
		return ranked
	}

	s := ranked[0]
	lines := strings.Split(s.Text, "\n")
	for len(lines) > 0 {
		lines = lines[:len(lines)-1]
		s.Text = strings.Join(lines, "\n")
		s.Tokens = b.count(snippetBody(s))
		if len(lines) > 0 && s.Tokens <= budget {
			return []models.Snippet{s}
		}
	}
	return []models.Snippet{}
}

func (b *ContextBuilder) count(text string) int {
	if b.tokens == nil {
		return approxTokens(text)
	}
	return b.tokens.Count(text)
}

func approxTokens(text string) int {
	return (len([]rune(text)) + 3) / 4
}

// snippetBody is the text a snippet contributes to the prompt.
func snippetBody(s models.Snippet) string {
	return s.Title + "\n" + s.Text
}

func (b *ContextBuilder) summarySnippets(ds *models.Dataset, home, away string, teams []string) []models.Snippet {
	score := computeScore(ds.Events, home, away)

	var sb strings.Builder
	sb.WriteString(score.Line())
	for _, team := range teams {
		if scorers := score.ScorersFor(team); scorers != "" {
			fmt.Fprintf(&sb, "\n%s scorers: %s", team, scorers)
		}
	}

	first := ds.Events[0].Index
	return []models.Snippet{
		{
			Title:     "Score",
			Text:      sb.String(),
			Rationale: "question asks about the result",
			Order:     first,
		},
		{
			Title:     "Team comparison",
			Text:      teamComparison(computeTeamStats(ds.Events, teams)),
			Rationale: "whole-match statistics",
			Order:     first,
		},
	}
}

func (b *ContextBuilder) teamSnippets(ds *models.Dataset, team string) []models.Snippet {
	events := ds.Filter(models.EventFilter{Teams: []string{team}})
	if len(events) == 0 {
		return nil
	}
	stats := computeTeamStats(events, []string{team})

	passers := make(map[string]int)
	shooters := make(map[string]int)
	for _, e := range events {
		switch e.Type {
		case models.EventPass:
			if e.Outcome == "" {
				passers[e.Player]++
			}
		case models.EventShot:
			shooters[e.Player]++
		}
	}

	lines := []string{teamLine(stats[0])}
	if top := topN(passers, topPlayersLimit); len(top) > 0 {
		lines = append(lines, "Top passers (completed): "+formatCounts(passers, top))
	}
	if top := topN(shooters, topPlayersLimit); len(top) > 0 {
		lines = append(lines, "Top shooters: "+formatCounts(shooters, top))
	}

	return []models.Snippet{{
		Title:     "Team: " + team,
		Text:      strings.Join(lines, "\n"),
		Rationale: "question mentions " + team,
		Order:     events[0].Index,
	}}
}

func (b *ContextBuilder) playerSnippets(ds *models.Dataset, player string) []models.Snippet {
	events := ds.Filter(models.EventFilter{Players: []string{player}})
	stats := computePlayerStats(events)
	if len(stats) == 0 {
		return nil
	}
	return []models.Snippet{{
		Title:     "Player: " + player,
		Text:      playerLine(stats[0]),
		Rationale: "question mentions " + player,
		Order:     events[0].Index,
	}}
}

func (b *ContextBuilder) eventTypeSnippets(ds *models.Dataset, key string, teams []string, home, away string) []models.Snippet {
	var topic *eventTopic
	for i := range eventTopics {
		if eventTopics[i].key == key {
			topic = &eventTopics[i]
			break
		}
	}
	if topic == nil {
		return nil
	}

	var events []models.Event
	for _, e := range ds.Events {
		if inPlay(e) && topic.match(e) {
			events = append(events, e)
		}
	}
	if len(events) == 0 {
		return nil
	}

	perTeam := make(map[string]int)
	perPlayer := make(map[string]int)
	for _, e := range events {
		perTeam[e.Team]++
		perPlayer[e.Player]++
	}

	var lines []string
	if topic.key == "goals" {
		score := computeScore(ds.Events, home, away)
		lines = append(lines, score.Line())
		for _, g := range score.Goals {
			line := fmt.Sprintf("%s %s (%s)", clockLabel(g.Minute), g.Player, g.Team)
			if g.OwnGoal {
				line += " own goal"
			} else if g.Penalty {
				line += " penalty"
			}
			lines = append(lines, line)
		}
	} else {
		counts := make([]string, 0, len(teams))
		for _, team := range teams {
			counts = append(counts, fmt.Sprintf("%s %d", team, perTeam[team]))
		}
		lines = append(lines, topic.label+": "+strings.Join(counts, ", "))
		if top := topN(perPlayer, topPlayersLimit); len(top) > 0 {
			lines = append(lines, "Most involved: "+formatCounts(perPlayer, top))
		}
		if topic.key == "shots" {
			for _, team := range teams {
				ts := computeTeamStats(events, []string{team})[0]
				lines = append(lines, fmt.Sprintf("%s on target %d/%d (%.0f%%), xG %.2f",
					team, ts.ShotsOnTarget, ts.Shots, percent(ts.ShotsOnTarget, ts.Shots), ts.XG))
			}
		}
		if topic.key == "cards" || topic.key == "substitutions" {
			for _, e := range events {
				lines = append(lines, describeEvent(e))
			}
		}
	}

	return []models.Snippet{{
		Title:     topic.label,
		Text:      strings.Join(lines, "\n"),
		Rationale: "question asks about " + strings.ToLower(topic.label),
		Order:     events[0].Index,
	}}
}

func (b *ContextBuilder) phaseSnippets(ds *models.Dataset, key string, teams []string) []models.Snippet {
	var phase *matchPhase
	for i := range matchPhases {
		if matchPhases[i].key == key {
			phase = &matchPhases[i]
			break
		}
	}
	if phase == nil {
		return nil
	}

	events := ds.Filter(models.EventFilter{Window: models.TimeWindow{Periods: phase.periods}})
	if len(events) == 0 {
		return nil
	}

	var text string
	if phase.key == "shootout" {
		var lines []string
		for _, e := range events {
			if e.Type == models.EventShot {
				lines = append(lines, fmt.Sprintf("%s (%s): %s", e.Player, e.Team, orDash(e.Outcome)))
			}
		}
		text = strings.Join(lines, "\n")
	} else {
		text = teamComparison(computeTeamStats(events, teams))
	}
	if text == "" {
		return nil
	}

	return []models.Snippet{{
		Title:     phase.label,
		Text:      text,
		Rationale: "question is about the " + strings.ToLower(phase.label),
		Order:     events[0].Index,
	}}
}

func (b *ContextBuilder) momentSnippets(ds *models.Dataset, minute int) []models.Snippet {
	center := max(minute-1, 0)
	window := models.TimeWindow{
		FromMinute: max(center-momentWindowMinutes, 0),
		ToMinute:   center + momentWindowMinutes,
	}

	var lines []string
	first := -1
	for _, e := range ds.Filter(models.EventFilter{Window: window}) {
		if !momentTypes[e.Type] && !e.IsGoal() {
			continue
		}
		if e.Type == models.EventFoulWon || (e.Type == models.EventDribble && e.Outcome != "Complete") {
			continue
		}
		if first < 0 {
			first = e.Index
		}
		lines = append(lines, describeEvent(e))
		if len(lines) == maxMomentEvents {
			break
		}
	}
	if len(lines) == 0 {
		return nil
	}

	return []models.Snippet{{
		Title:     fmt.Sprintf("Key events around %d'", minute),
		Text:      strings.Join(lines, "\n"),
		Rationale: fmt.Sprintf("question refers to minute %d", minute),
		Order:     first,
	}}
}

func describeEvent(e models.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", clockLabel(e.Minute), e.Type)
	if e.Player != "" {
		fmt.Fprintf(&sb, " by %s", e.Player)
	}
	if e.Team != "" {
		fmt.Fprintf(&sb, " (%s)", e.Team)
	}

	var details []string
	if e.Outcome != "" {
		details = append(details, e.Outcome)
	}
	if card := e.Card(); card != "" {
		details = append(details, card)
	}
	if e.Type == models.EventSubstitution {
		if r := e.Attr("replacement"); r != "" {
			details = append(details, "replaced by "+r)
		}
	}
	if e.BodyPart != "" {
		details = append(details, e.BodyPart)
	}
	if e.XG > 0 {
		details = append(details, fmt.Sprintf("xG %.2f", e.XG))
	}
	if len(details) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(details, ", "))
	}
	return sb.String()
}

func teamComparison(stats []TeamStats) string {
	lines := make([]string, 0, len(stats))
	for _, ts := range stats {
		lines = append(lines, teamLine(ts))
	}
	return strings.Join(lines, "\n")
}

func teamLine(ts TeamStats) string {
	return fmt.Sprintf("%s: %d goals, %d shots (%d on target, %.0f%%), xG %.2f, %d passes (%.0f%% completed), %d fouls, %d corners, %d yellow, %d red, %d offsides",
		ts.Team, ts.Goals, ts.Shots, ts.ShotsOnTarget, ts.OnTargetRatio()*100, ts.XG,
		ts.Passes, ts.PassCompletion()*100, ts.Fouls, ts.Corners, ts.YellowCards, ts.RedCards, ts.Offsides)
}

func playerLine(ps PlayerStats) string {
	return fmt.Sprintf("%s (%s): passes %d/%d completed, %d shots (%d on target), %d goals, xG %.2f, fouls committed %d, fouls won %d, %d tackles, %d interceptions, dribbles %d/%d, %d yellow, %d red",
		ps.Player, ps.Team, ps.PassesCompleted, ps.PassesAttempted, ps.Shots, ps.ShotsOnTarget, ps.Goals, ps.XG,
		ps.FoulsCommitted, ps.FoulsWon, ps.Tackles, ps.Interceptions, ps.DribblesCompleted, ps.DribblesAttempted,
		ps.YellowCards, ps.RedCards)
}

// findPhrase returns the word position where phrase starts, or -1.
func findPhrase(ws, phrase []string) int {
	if len(phrase) == 0 || len(phrase) > len(ws) {
		return -1
	}
	for i := 0; i+len(phrase) <= len(ws); i++ {
		ok := true
		for j, p := range phrase {
			if ws[i+j] != p {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}

// findAnyPart matches any sufficiently long name part against the question
// words with at least minScore similarity.
// genericTeamWords appear in many club names and in ordinary questions, so
// alone they never identify a team.
var genericTeamWords = map[string]bool{
	"real": true, "city": true, "united": true, "town": true, "county": true,
	"athletic": true, "atletico": true, "sporting": true, "club": true, "rovers": true,
	"wanderers": true, "albion": true, "national": true, "international": true,
	"inter": true, "olympic": true, "olympique": true, "racing": true, "women": true,
	"women's": true, "young": true, "boys": true, "north": true, "south": true,
	"east": true, "west": true, "saint": true, "stade": true, "deportivo": true,
}

func distinctiveParts(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if !genericTeamWords[p] {
			out = append(out, p)
		}
	}
	return out
}

func findAnyPart(ws, parts []string, minScore float64) int {
	best := -1
	for _, part := range parts {
		if len([]rune(part)) < minNamePartLength {
			continue
		}
		for i, w := range ws {
			if best >= 0 && i >= best {
				break
			}
			if w == part || (minScore < 1.0 && SimilarityScore(w, part) >= minScore) {
				best = i
				break
			}
		}
	}
	return best
}

// findKeyword returns the earliest position of any keyword or keyword phrase.
func findKeyword(ws []string, keywords []string) int {
	best := -1
	for _, k := range keywords {
		pos := findPhrase(ws, strings.Fields(k))
		if pos >= 0 && (best < 0 || pos < best) {
			best = pos
		}
	}
	return best
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
