package application

import (
	"context"
	"errors"
	"strings"

	"matchchat/internal/models"
	"matchchat/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// SearchSource is one named backend queried by the augmenter.
type SearchSource struct {
	Name     string
	Provider SearchProvider
}

// SearchAugmenter turns web search results into capped snippets. It never
// fails: every problem degrades to an empty result.
type SearchAugmenter struct {
	sources []SearchSource
	cfg     SearchConfig
	metrics *metrics.Manager
	logger  Logger
}

// NewSearchAugmenter skips sources without a provider.
func NewSearchAugmenter(sources []SearchSource, cfg SearchConfig, m *metrics.Manager, logger Logger) *SearchAugmenter {
	var active []SearchSource
	for _, src := range sources {
		if src.Provider != nil {
			active = append(active, src)
		}
	}
	return &SearchAugmenter{
		sources: active,
		cfg:     cfg.withDefaults(),
		metrics: m,
		logger:  orNop(logger),
	}
}

// Search queries every source in parallel and interleaves their results by
// rank, so each source is represented before the count cap applies.
func (s *SearchAugmenter) Search(ctx context.Context, query string) []models.Snippet {
	query = strings.TrimSpace(query)
	if len(s.sources) == 0 || query == "" {
		s.metrics.SearchRequest("disabled")
		return []models.Snippet{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	results := make([][]models.SearchResult, len(s.sources))
	var g errgroup.Group
	var failed, disabled int
	errs := make([]error, len(s.sources))
	for i, src := range s.sources {
		g.Go(func() error {
			results[i], errs[i] = src.Provider.Search(ctx, query, s.cfg.MaxResults)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, models.ErrConfiguration):
			disabled++
			s.logger.Debug("%s search skipped: %v", s.sources[i].Name, err)
		default:
			failed++
			s.logger.Warn("%s search for %q failed: %v", s.sources[i].Name, query, err)
		}
	}

	snippets := s.interleave(results)
	switch {
	case len(snippets) > 0:
		s.metrics.SearchRequest("ok")
	case failed > 0:
		s.metrics.SearchRequest("error")
	case disabled == len(s.sources):
		s.metrics.SearchRequest("disabled")
	default:
		s.metrics.SearchRequest("empty")
		s.logger.Info("web search for %q returned nothing", query)
	}
	return snippets
}

func (s *SearchAugmenter) interleave(results [][]models.SearchResult) []models.Snippet {
	type ranked struct {
		source string
		result models.SearchResult
	}
	lists := make([][]ranked, len(results))
	longest := 0
	for i, rs := range results {
		for _, r := range rs {
			if strings.TrimSpace(r.Text) == "" {
				continue
			}
			lists[i] = append(lists[i], ranked{source: s.sources[i].Name, result: r})
		}
		longest = max(longest, len(lists[i]))
	}

	snippets := make([]models.Snippet, 0, s.cfg.MaxResults)
	for rank := 0; rank < longest; rank++ {
		for _, list := range lists {
			if len(snippets) == s.cfg.MaxResults {
				return snippets
			}
			if rank >= len(list) {
				continue
			}
			r := list[rank].result
			n := len(snippets)
			snippets = append(snippets, models.Snippet{
				Title:     truncateRunes(strings.TrimSpace(r.Title), s.cfg.MaxChars),
				Text:      truncateRunes(strings.TrimSpace(r.Text), s.cfg.MaxChars),
				Source:    models.SourceWeb,
				Relevance: 1.0 / float64(n+1),
				Rationale: list[rank].source + " result",
				Order:     n,
				URL:       r.URL,
			})
		}
	}
	return snippets
}
