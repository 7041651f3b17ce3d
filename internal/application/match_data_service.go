package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"matchchat/internal/models"
	"matchchat/pkg/metrics"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	dataset   *models.Dataset
	fetchedAt time.Time
}

type seasonKey struct {
	competitionID int
	seasonID      int
}

// MatchDataStore serves competition, match and event data, caching every
// successful fetch. Datasets handed out are shared and must be treated as
// read-only; use Dataset.Filter for derived views.
type MatchDataStore struct {
	provider DataProvider
	l2       DatasetCache
	ttl      time.Duration
	metrics  *metrics.Manager
	logger   Logger
	now      func() time.Time

	mu           sync.RWMutex
	datasets     map[int]*cacheEntry
	epochs       map[int]uint64
	competitions []models.Competition
	matches      map[seasonKey][]models.Match
	matchIndex   map[int]models.Match
	lineups      map[int][]models.TeamLineup

	group singleflight.Group
}

func NewMatchDataStore(provider DataProvider, l2 DatasetCache, ttl time.Duration, m *metrics.Manager, logger Logger) *MatchDataStore {
	return &MatchDataStore{
		provider:   provider,
		l2:         l2,
		ttl:        ttl,
		metrics:    m,
		logger:     orNop(logger),
		now:        time.Now,
		datasets:   make(map[int]*cacheEntry),
		epochs:     make(map[int]uint64),
		matches:    make(map[seasonKey][]models.Match),
		matchIndex: make(map[int]models.Match),
		lineups:    make(map[int][]models.TeamLineup),
	}
}

// Dataset returns the ordered events of a match, fetching them on first use.
// Concurrent callers for the same uncached match share one provider fetch.
func (s *MatchDataStore) Dataset(ctx context.Context, matchID int) (*models.Dataset, error) {
	if ds, ok := s.cached(matchID); ok {
		s.metrics.CacheLookup("hit")
		return ds, nil
	}
	s.metrics.CacheLookup("miss")

	v, err := s.shared(ctx, datasetKey(matchID), func(ctx context.Context) (interface{}, error) {
		epoch := s.epoch(matchID)
		if ds, ok := s.cached(matchID); ok {
			return ds, nil
		}
		return s.fetch(ctx, matchID, epoch)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Dataset), nil
}

// shared runs fn once for all concurrent callers of key. fn runs detached
// from the caller's cancellation, so one caller leaving does not fail the
// others; each caller still returns as soon as its own ctx is done.
func (s *MatchDataStore) shared(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Refresh drops the cached dataset and fetches it again.
func (s *MatchDataStore) Refresh(ctx context.Context, matchID int) (*models.Dataset, error) {
	s.Invalidate(ctx, matchID)
	return s.Dataset(ctx, matchID)
}

// Invalidate drops one cached dataset. Other matches are untouched. A fetch
// already in flight for the match still answers its waiters but is not
// cached, and the next request starts a new fetch.
func (s *MatchDataStore) Invalidate(ctx context.Context, matchID int) {
	s.mu.Lock()
	delete(s.datasets, matchID)
	s.epochs[matchID]++
	s.mu.Unlock()
	s.group.Forget(datasetKey(matchID))

	if s.l2 != nil {
		if err := s.l2.Delete(ctx, matchID); err != nil {
			s.logger.Warn("failed to evict match %d from shared cache: %v", matchID, err)
		}
	}
}

// Cached reports whether a fresh dataset for matchID is held in memory.
func (s *MatchDataStore) Cached(matchID int) bool {
	_, ok := s.cached(matchID)
	return ok
}

func (s *MatchDataStore) cached(matchID int) (*models.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.datasets[matchID]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(entry.fetchedAt) > s.ttl {
		return nil, false
	}
	return entry.dataset, true
}

func (s *MatchDataStore) epoch(matchID int) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epochs[matchID]
}

func (s *MatchDataStore) fetch(ctx context.Context, matchID int, epoch uint64) (*models.Dataset, error) {
	if s.l2 != nil {
		ds, ok, err := s.l2.Get(ctx, matchID)
		switch {
		case err != nil:
			s.logger.Warn("shared cache read for match %d failed: %v", matchID, err)
		case ok && validateDataset(ds, matchID) == nil:
			s.metrics.CacheLookup("l2_hit")
			s.store(ds, epoch)
			return ds, nil
		}
	}

	events, err := s.provider.Events(ctx, matchID)
	if err != nil {
		s.metrics.ProviderRequest("events", string(models.KindOf(err)))
		return nil, classifyProviderError(err, matchID)
	}
	s.metrics.ProviderRequest("events", "ok")

	ds := &models.Dataset{MatchID: matchID, Events: events}
	sort.SliceStable(ds.Events, func(i, j int) bool {
		return ds.Events[i].Index < ds.Events[j].Index
	})
	if err := validateDataset(ds, matchID); err != nil {
		return nil, err
	}

	if !s.store(ds, epoch) {
		s.logger.Info("match %d was invalidated during fetch, result not cached", matchID)
		return ds, nil
	}
	s.logger.Info("cached %d events for match %d", len(ds.Events), matchID)

	if s.l2 != nil {
		if err := s.l2.Set(ctx, ds); err != nil {
			s.logger.Warn("shared cache write for match %d failed: %v", matchID, err)
		}
	}
	return ds, nil
}

// store caches ds unless the match was invalidated since epoch was read.
func (s *MatchDataStore) store(ds *models.Dataset, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epochs[ds.MatchID] != epoch {
		return false
	}
	s.datasets[ds.MatchID] = &cacheEntry{dataset: ds, fetchedAt: s.now()}
	return true
}

func validateDataset(ds *models.Dataset, matchID int) error {
	if ds == nil || len(ds.Events) == 0 {
		return fmt.Errorf("%w: match %d has no events", models.ErrDataUnavailable, matchID)
	}
	for i, e := range ds.Events {
		if e.MatchID != matchID {
			return fmt.Errorf("%w: event %d belongs to match %d, expected %d", models.ErrDataProvider, i, e.MatchID, matchID)
		}
		if i > 0 && e.Index < ds.Events[i-1].Index {
			return fmt.Errorf("%w: events of match %d out of order at %d", models.ErrDataProvider, matchID, i)
		}
	}
	return nil
}

func classifyProviderError(err error, matchID int) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: match %d: %w", models.ErrDataProvider, matchID, err)
	case errors.Is(err, models.ErrDataUnavailable), errors.Is(err, models.ErrDataProvider):
		return err
	default:
		return fmt.Errorf("%w: match %d: %w", models.ErrDataProvider, matchID, err)
	}
}

func datasetKey(matchID int) string {
	return "events:" + strconv.Itoa(matchID)
}

func (s *MatchDataStore) Competitions(ctx context.Context) ([]models.Competition, error) {
	s.mu.RLock()
	cached := s.competitions
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err := s.shared(ctx, "competitions", func(ctx context.Context) (interface{}, error) {
		comps, err := s.provider.Competitions(ctx)
		if err != nil {
			s.metrics.ProviderRequest("competitions", string(models.KindOf(err)))
			return nil, classifyListError(err, "competitions")
		}
		s.metrics.ProviderRequest("competitions", "ok")
		if len(comps) == 0 {
			return nil, fmt.Errorf("%w: no competitions", models.ErrDataUnavailable)
		}
		sort.SliceStable(comps, func(i, j int) bool {
			if comps[i].CompetitionName != comps[j].CompetitionName {
				return comps[i].CompetitionName < comps[j].CompetitionName
			}
			return comps[i].SeasonName > comps[j].SeasonName
		})

		s.mu.Lock()
		s.competitions = comps
		s.mu.Unlock()
		return comps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Competition), nil
}

func (s *MatchDataStore) Matches(ctx context.Context, competitionID, seasonID int) ([]models.Match, error) {
	key := seasonKey{competitionID: competitionID, seasonID: seasonID}

	s.mu.RLock()
	cached, ok := s.matches[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err := s.shared(ctx, fmt.Sprintf("matches:%d:%d", competitionID, seasonID), func(ctx context.Context) (interface{}, error) {
		list, err := s.provider.Matches(ctx, competitionID, seasonID)
		if err != nil {
			s.metrics.ProviderRequest("matches", string(models.KindOf(err)))
			return nil, classifyListError(err, "matches")
		}
		s.metrics.ProviderRequest("matches", "ok")
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: no matches for competition %d season %d", models.ErrDataUnavailable, competitionID, seasonID)
		}
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Title() < list[j].Title()
		})

		s.mu.Lock()
		s.matches[key] = list
		for _, m := range list {
			s.matchIndex[m.MatchID] = m
		}
		s.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Match), nil
}

// Match returns the descriptor of a match whose season list was loaded.
func (s *MatchDataStore) Match(matchID int) (models.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matchIndex[matchID]
	return m, ok
}

// ResolveMatch loads the season list when needed and returns the descriptor.
func (s *MatchDataStore) ResolveMatch(ctx context.Context, ref models.MatchRef) (models.Match, bool) {
	if m, ok := s.Match(ref.MatchID); ok {
		return m, true
	}
	if ref.CompetitionID == 0 || ref.SeasonID == 0 {
		return models.Match{}, false
	}
	if _, err := s.Matches(ctx, ref.CompetitionID, ref.SeasonID); err != nil {
		s.logger.Warn("failed to load matches for competition %d season %d: %v", ref.CompetitionID, ref.SeasonID, err)
		return models.Match{}, false
	}
	return s.Match(ref.MatchID)
}

func (s *MatchDataStore) Lineups(ctx context.Context, matchID int) ([]models.TeamLineup, error) {
	s.mu.RLock()
	cached, ok := s.lineups[matchID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err := s.shared(ctx, "lineups:"+strconv.Itoa(matchID), func(ctx context.Context) (interface{}, error) {
		lineups, err := s.provider.Lineups(ctx, matchID)
		if err != nil {
			s.metrics.ProviderRequest("lineups", string(models.KindOf(err)))
			return nil, classifyListError(err, "lineups")
		}
		s.metrics.ProviderRequest("lineups", "ok")
		if len(lineups) == 0 {
			return nil, fmt.Errorf("%w: no lineups for match %d", models.ErrDataUnavailable, matchID)
		}

		s.mu.Lock()
		s.lineups[matchID] = lineups
		s.mu.Unlock()
		return lineups, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.TeamLineup), nil
}

func classifyListError(err error, resource string) error {
	if errors.Is(err, models.ErrDataUnavailable) || errors.Is(err, models.ErrDataProvider) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", models.ErrDataProvider, resource, err)
}
