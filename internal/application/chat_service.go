package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"matchchat/internal/models"
	"matchchat/pkg/metrics"
)

// ChatService answers questions about a session's selected match.
type ChatService struct {
	data        *MatchDataStore
	builder     *ContextBuilder
	search      *SearchAugmenter
	llm         LanguageModel
	sessions    *SessionManager
	transcripts TranscriptStore
	cfg         ChatConfig
	metrics     *metrics.Manager
	logger      Logger
	now         func() time.Time
}

func NewChatService(
	data *MatchDataStore,
	builder *ContextBuilder,
	search *SearchAugmenter,
	llm LanguageModel,
	sessions *SessionManager,
	transcripts TranscriptStore,
	cfg ChatConfig,
	m *metrics.Manager,
	logger Logger,
) *ChatService {
	return &ChatService{
		data:        data,
		builder:     builder,
		search:      search,
		llm:         llm,
		sessions:    sessions,
		transcripts: transcripts,
		cfg:         cfg.withDefaults(),
		metrics:     m,
		logger:      orNop(logger),
		now:         time.Now,
	}
}

// Ask answers question in the context of the session's match. On success the
// user and assistant turns are appended together; on any failure the history
// is left as it was.
func (c *ChatService) Ask(ctx context.Context, sessionID, question string) (*models.Answer, error) {
	answer, err := c.ask(ctx, sessionID, question)
	if err != nil {
		c.metrics.Ask(string(models.KindOf(err)))
		if models.KindOf(err) != models.KindCanceled {
			c.logger.Warn("ask failed for session %s: %v", sessionID, err)
		}
		return nil, err
	}
	c.metrics.Ask("ok")
	return answer, nil
}

func (c *ChatService) ask(ctx context.Context, sessionID, question string) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, models.ErrEmptyQuestion
	}
	if c.llm == nil {
		return nil, fmt.Errorf("%w: language model", models.ErrConfiguration)
	}

	ticket, err := c.sessions.begin(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer ticket.release()

	if ticket.match.MatchID == 0 {
		return nil, models.ErrNoMatchSelected
	}

	ds, err := c.data.Dataset(ctx, ticket.match.MatchID)
	if err != nil {
		return nil, err
	}
	match := c.describe(ctx, ticket.match)

	cls := c.builder.Classify(ds, &match, question)
	structured := c.builder.BuildClassified(ds, &match, cls, c.cfg.ContextTokens)
	c.metrics.ContextTokens(totalTokens(structured))

	var web []models.Snippet
	if cls.NeedsSearch || len(structured) == 0 {
		web = c.search.Search(ctx, searchQuery(question, match))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt := buildPrompt(match, structured, web, recentTurns(ticket.history, c.cfg.HistoryTurns), question)
	c.logger.Debug("session %s asks about match %d with %d data and %d web snippets",
		sessionID, match.MatchID, len(structured), len(web))

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	snippets := make([]models.Snippet, 0, len(structured)+len(web))
	snippets = append(snippets, structured...)
	snippets = append(snippets, web...)

	now := c.now()
	userTurn := models.Turn{Role: models.RoleUser, Text: question, CreatedAt: now}
	assistantTurn := models.Turn{Role: models.RoleAssistant, Text: text, Snippets: snippets, CreatedAt: now}
	if err := c.sessions.commit(ticket, userTurn, assistantTurn); err != nil {
		return nil, err
	}

	c.archive(ctx, sessionID, match.MatchID, userTurn, assistantTurn)
	return &models.Answer{Text: text, Snippets: snippets}, nil
}

// Commentary produces a broadcast-style overview of the session's match from
// its details and starting line-ups. History is not touched.
func (c *ChatService) Commentary(ctx context.Context, sessionID string) (string, error) {
	if c.llm == nil {
		return "", fmt.Errorf("%w: language model", models.ErrConfiguration)
	}
	view, err := c.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	if !view.HasMatch() {
		return "", models.ErrNoMatchSelected
	}

	match := c.describe(ctx, view.Match)
	lineups, err := c.data.Lineups(ctx, match.MatchID)
	if err != nil && !errors.Is(err, models.ErrDataUnavailable) {
		return "", err
	}

	var score ScoreDetails
	if ds, err := c.data.Dataset(ctx, match.MatchID); err == nil {
		home, away := homeAway(ds, &match)
		score = computeScore(ds.Events, home, away)
	} else if errors.Is(err, context.Canceled) {
		return "", err
	}

	return c.generate(ctx, buildCommentaryPrompt(match, score, lineups))
}

// ArchivedTurns lists turns kept in the transcript store, oldest first.
func (c *ChatService) ArchivedTurns(ctx context.Context, sessionID string) ([]models.Turn, error) {
	if c.transcripts == nil {
		return nil, fmt.Errorf("%w: transcript store", models.ErrConfiguration)
	}
	return c.transcripts.ListTurns(ctx, sessionID, archiveLimit)
}

// Forget drops the session and, when archiving is enabled, its stored turns.
func (c *ChatService) Forget(ctx context.Context, sessionID string) error {
	if _, err := c.sessions.Get(sessionID); err != nil {
		return err
	}
	c.sessions.Delete(sessionID)
	if c.transcripts == nil {
		return nil
	}
	if err := c.transcripts.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete archived turns: %w", err)
	}
	return nil
}

func (c *ChatService) generate(ctx context.Context, prompt models.Prompt) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := c.llm.Generate(genCtx, prompt, models.GenerationConfig{
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		Temperature:     c.cfg.Temperature,
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		c.metrics.ObserveGeneration(time.Since(start), "error")
		if errors.Is(err, models.ErrConfiguration) || errors.Is(err, models.ErrGeneration) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", models.ErrGeneration, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.metrics.ObserveGeneration(time.Since(start), "empty")
		return "", fmt.Errorf("%w: empty answer", models.ErrGeneration)
	}
	c.metrics.ObserveGeneration(time.Since(start), "ok")
	return text, nil
}

// describe returns the match descriptor, or a bare one carrying only the ID
// when the season list cannot be loaded.
func (c *ChatService) describe(ctx context.Context, ref models.MatchRef) models.Match {
	if m, ok := c.data.ResolveMatch(ctx, ref); ok {
		return m
	}
	return models.Match{MatchID: ref.MatchID, CompetitionID: ref.CompetitionID, SeasonID: ref.SeasonID}
}

func (c *ChatService) archive(ctx context.Context, sessionID string, matchID int, turns ...models.Turn) {
	if c.transcripts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := c.transcripts.SaveTurns(ctx, sessionID, matchID, turns); err != nil {
		c.logger.Warn("failed to archive turns for session %s: %v", sessionID, err)
	}
}

func searchQuery(question string, match models.Match) string {
	if match.HomeTeam == "" || match.AwayTeam == "" {
		return question
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", question, match.Title(), match.CompetitionName))
}

func totalTokens(snippets []models.Snippet) int {
	total := 0
	for _, s := range snippets {
		total += s.Tokens
	}
	return total
}
