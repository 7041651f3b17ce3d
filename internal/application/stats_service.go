package application

import (
	"context"
	"fmt"
	"strings"

	"matchchat/internal/models"
)

// StatsService exposes the aggregations the chat context is built from.
type StatsService struct {
	data *MatchDataStore
}

func NewStatsService(data *MatchDataStore) *StatsService {
	return &StatsService{data: data}
}

type MatchReport struct {
	Match   models.Match  `json:"match"`
	Score   ScoreDetails  `json:"score"`
	Teams   []TeamStats   `json:"teams"`
	Players []PlayerStats `json:"players"`
}

func (s *StatsService) Score(ctx context.Context, matchID int) (ScoreDetails, error) {
	ds, match, err := s.load(ctx, matchID)
	if err != nil {
		return ScoreDetails{}, err
	}
	home, away := homeAway(ds, match)
	return computeScore(ds.Events, home, away), nil
}

func (s *StatsService) TeamStats(ctx context.Context, matchID int) ([]TeamStats, error) {
	ds, match, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	home, away := homeAway(ds, match)
	return computeTeamStats(ds.Events, nonEmpty(home, away)), nil
}

// PlayerStats aggregates players within window. A non-empty player narrows the
// result to the closest matching name.
func (s *StatsService) PlayerStats(ctx context.Context, matchID int, player, window string) ([]PlayerStats, error) {
	w, err := ParseWindow(window)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidArgument, err)
	}
	ds, _, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}

	filter := models.EventFilter{Window: w}
	if player = strings.TrimSpace(player); player != "" {
		name, ok := closestPlayer(ds.Players(), player)
		if !ok {
			return nil, fmt.Errorf("%w: player %q did not play in match %d", models.ErrDataUnavailable, player, matchID)
		}
		filter.Players = []string{name}
	}
	return computePlayerStats(ds.Filter(filter)), nil
}

// StartingXI returns each team's starters from the line-ups.
func (s *StatsService) StartingXI(ctx context.Context, matchID int) ([]models.TeamLineup, error) {
	lineups, err := s.data.Lineups(ctx, matchID)
	if err != nil {
		return nil, err
	}
	out := make([]models.TeamLineup, 0, len(lineups))
	for _, team := range lineups {
		starters := models.TeamLineup{TeamName: team.TeamName}
		for _, p := range team.Players {
			if p.Starting() {
				starters.Players = append(starters.Players, p)
			}
		}
		out = append(out, starters)
	}
	return out, nil
}

func (s *StatsService) Report(ctx context.Context, matchID int) (*MatchReport, error) {
	ds, match, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	home, away := homeAway(ds, match)
	report := &MatchReport{
		Score:   computeScore(ds.Events, home, away),
		Teams:   computeTeamStats(ds.Events, nonEmpty(home, away)),
		Players: computePlayerStats(ds.Events),
	}
	if match != nil {
		report.Match = *match
	} else {
		report.Match = models.Match{MatchID: matchID, HomeTeam: home, AwayTeam: away}
	}
	return report, nil
}

func (s *StatsService) load(ctx context.Context, matchID int) (*models.Dataset, *models.Match, error) {
	ds, err := s.data.Dataset(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if m, ok := s.data.Match(matchID); ok {
		return ds, &m, nil
	}
	return ds, nil, nil
}

func closestPlayer(players []string, query string) (string, bool) {
	query = NormalizeName(query)
	best, bestScore := "", 0.0
	for _, p := range players {
		normalized := NormalizeName(p)
		if normalized == query {
			return p, true
		}
		score := SimilarityScore(normalized, query)
		for _, part := range strings.Fields(normalized) {
			if part == query {
				score = max(score, playerMatchMinScore)
			}
		}
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	return best, bestScore >= playerMatchMinScore
}
