package application

import (
	"context"

	"matchchat/internal/models"
	"matchchat/pkg/metrics"
)

type DataProvider interface {
	Competitions(ctx context.Context) ([]models.Competition, error)
	Matches(ctx context.Context, competitionID, seasonID int) ([]models.Match, error)
	Events(ctx context.Context, matchID int) ([]models.Event, error)
	Lineups(ctx context.Context, matchID int) ([]models.TeamLineup, error)
}

// DatasetCache is an optional second-level cache shared between processes.
type DatasetCache interface {
	Get(ctx context.Context, matchID int) (*models.Dataset, bool, error)
	Set(ctx context.Context, ds *models.Dataset) error
	Delete(ctx context.Context, matchID int) error
}

type LanguageModel interface {
	Generate(ctx context.Context, prompt models.Prompt, cfg models.GenerationConfig) (string, error)
}

type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

type TokenCounter interface {
	Count(text string) int
}

// TranscriptStore archives answered turns beyond the in-memory session.
type TranscriptStore interface {
	SaveTurns(ctx context.Context, sessionID string, matchID int, turns []models.Turn) error
	ListTurns(ctx context.Context, sessionID string, limit int) ([]models.Turn, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// Deps gathers the adapters the pipeline runs on. Cache, Search, Encyclopedia,
// Transcripts, Sheets and Metrics are optional.
type Deps struct {
	Provider     DataProvider
	Cache        DatasetCache
	LLM          LanguageModel
	Search       SearchProvider
	Encyclopedia SearchProvider
	Tokens       TokenCounter
	Transcripts  TranscriptStore
	Sheets       SheetWriter
	Metrics      *metrics.Manager
	Logger       Logger
}

type Service struct {
	Data     *MatchDataStore
	Builder  *ContextBuilder
	Search   *SearchAugmenter
	Sessions *SessionManager
	Chat     *ChatService
	Stats    *StatsService
	Export   *ExportService
}

func NewService(cfg Config, deps Deps) *Service {
	log := orNop(deps.Logger)

	data := NewMatchDataStore(deps.Provider, deps.Cache, cfg.DatasetTTL, deps.Metrics, log)
	builder := NewContextBuilder(deps.Tokens, cfg.Ranking)
	search := NewSearchAugmenter([]SearchSource{
		{Name: "web", Provider: deps.Search},
		{Name: "wikipedia", Provider: deps.Encyclopedia},
	}, cfg.Search, deps.Metrics, log)
	sessions := NewSessionManager(deps.Metrics)

	return &Service{
		Data:     data,
		Builder:  builder,
		Search:   search,
		Sessions: sessions,
		Chat:     NewChatService(data, builder, search, deps.LLM, sessions, deps.Transcripts, cfg.Chat, deps.Metrics, log),
		Stats:    NewStatsService(data),
		Export:   NewExportService(sessions, data, deps.Sheets, cfg.SpreadsheetID, log),
	}
}
