package application

import "time"

const (
	// Chat limits
	defaultHistoryTurns    = 6
	defaultContextTokens   = 1500
	defaultMaxOutputTokens = 600
	defaultChatTimeout     = 60 * time.Second

	// Search limits
	defaultSearchResults = 5
	defaultSearchChars   = 300
	defaultSearchTimeout = 8 * time.Second

	// Context building
	topPlayersLimit     = 3
	momentWindowMinutes = 2
	maxMomentEvents     = 25
	playerMatchMinScore = 0.85
	minNamePartLength   = 4

	// Transcript archive
	archiveTimeout = 5 * time.Second
	archiveLimit   = 200

	// Export
	exportSheetName   = "Chat"
	exportStatsSheet  = "Match stats"
	exportSheetsRange = "A1:Z1000"
)

type Config struct {
	DatasetTTL    time.Duration `env:"DATASET_TTL" envDefault:"1h"`
	SpreadsheetID string        `env:"SPREADSHEET_ID" envDefault:""`

	Chat   ChatConfig   `envPrefix:"CHAT_"`
	Search SearchConfig `envPrefix:"SEARCH_"`

	// Ranking is loaded separately from RANKING_CONFIG.
	Ranking RankingWeights
}

type ChatConfig struct {
	HistoryTurns    int           `env:"HISTORY_TURNS" envDefault:"6"`
	ContextTokens   int           `env:"CONTEXT_TOKENS" envDefault:"1500"`
	MaxOutputTokens int32         `env:"MAX_OUTPUT_TOKENS" envDefault:"600"`
	Temperature     *float32      `env:"TEMPERATURE"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

func (c ChatConfig) withDefaults() ChatConfig {
	if c.HistoryTurns < 0 {
		c.HistoryTurns = 0
	} else if c.HistoryTurns == 0 {
		c.HistoryTurns = defaultHistoryTurns
	}
	if c.ContextTokens <= 0 {
		c.ContextTokens = defaultContextTokens
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = defaultMaxOutputTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultChatTimeout
	}
	return c
}

type SearchConfig struct {
	MaxResults int           `env:"RESULTS" envDefault:"5"`
	MaxChars   int           `env:"SNIPPET_CHARS" envDefault:"300"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"8s"`
}

func (c SearchConfig) withDefaults() SearchConfig {
	if c.MaxResults <= 0 {
		c.MaxResults = defaultSearchResults
	}
	if c.MaxChars <= 0 {
		c.MaxChars = defaultSearchChars
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultSearchTimeout
	}
	return c
}

// RankingWeights are the base relevance of each facet. Snippets inside a
// facet lose Decay per position.
type RankingWeights struct {
	Moment    float64 `koanf:"moment"`
	Player    float64 `koanf:"player"`
	EventType float64 `koanf:"event_type"`
	Team      float64 `koanf:"team"`
	Phase     float64 `koanf:"phase"`
	Summary   float64 `koanf:"summary"`
	Decay     float64 `koanf:"decay"`
}

func DefaultRanking() RankingWeights {
	return RankingWeights{
		Moment:    1.0,
		Player:    0.9,
		EventType: 0.8,
		Team:      0.7,
		Phase:     0.6,
		Summary:   0.5,
		Decay:     0.05,
	}
}

func (w RankingWeights) isZero() bool {
	return w == RankingWeights{}
}

func (w RankingWeights) weight(f Facet) float64 {
	switch f {
	case FacetMoment:
		return w.Moment
	case FacetPlayer:
		return w.Player
	case FacetEventType:
		return w.EventType
	case FacetTeam:
		return w.Team
	case FacetPhase:
		return w.Phase
	default:
		return w.Summary
	}
}
