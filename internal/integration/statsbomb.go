package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"matchchat/internal/models"
)

const DefaultStatsBombURL = "https://raw.githubusercontent.com/statsbomb/open-data/master/data"

// StatsBombClient reads the StatsBomb open-data JSON layout over HTTP.
type StatsBombClient struct {
	baseURL string
	client  *http.Client
}

func NewStatsBombClient(baseURL string, timeout time.Duration) *StatsBombClient {
	if baseURL == "" {
		baseURL = DefaultStatsBombURL
	}
	return &StatsBombClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type named struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type rawCompetition struct {
	CompetitionID     int    `json:"competition_id"`
	SeasonID          int    `json:"season_id"`
	CountryName       string `json:"country_name"`
	CompetitionName   string `json:"competition_name"`
	CompetitionGender string `json:"competition_gender"`
	SeasonName        string `json:"season_name"`
}

type rawMatch struct {
	MatchID     int    `json:"match_id"`
	MatchDate   string `json:"match_date"`
	KickOff     string `json:"kick_off"`
	Competition struct {
		CompetitionID   int    `json:"competition_id"`
		CompetitionName string `json:"competition_name"`
	} `json:"competition"`
	Season struct {
		SeasonID   int    `json:"season_id"`
		SeasonName string `json:"season_name"`
	} `json:"season"`
	HomeTeam struct {
		Name string `json:"home_team_name"`
	} `json:"home_team"`
	AwayTeam struct {
		Name string `json:"away_team_name"`
	} `json:"away_team"`
	HomeScore        int    `json:"home_score"`
	AwayScore        int    `json:"away_score"`
	CompetitionStage *named `json:"competition_stage"`
	Stadium          *named `json:"stadium"`
	Referee          *named `json:"referee"`
}

type rawEvent struct {
	ID          string    `json:"id"`
	Index       int       `json:"index"`
	Period      int       `json:"period"`
	Timestamp   string    `json:"timestamp"`
	Minute      int       `json:"minute"`
	Second      int       `json:"second"`
	Type        named     `json:"type"`
	Team        named     `json:"team"`
	Player      *named    `json:"player"`
	Position    *named    `json:"position"`
	PlayPattern *named    `json:"play_pattern"`
	Location    []float64 `json:"location"`
}

type rawLineup struct {
	TeamName string `json:"team_name"`
	Lineup   []struct {
		PlayerName     string  `json:"player_name"`
		PlayerNickname *string `json:"player_nickname"`
		JerseyNumber   int     `json:"jersey_number"`
		Positions      []struct {
			Position    string `json:"position"`
			StartReason string `json:"start_reason"`
		} `json:"positions"`
	} `json:"lineup"`
}

func (c *StatsBombClient) Competitions(ctx context.Context) ([]models.Competition, error) {
	var raw []rawCompetition
	if err := c.getJSON(ctx, "/competitions.json", &raw); err != nil {
		return nil, err
	}

	out := make([]models.Competition, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.Competition{
			CompetitionID:   r.CompetitionID,
			SeasonID:        r.SeasonID,
			CountryName:     r.CountryName,
			CompetitionName: r.CompetitionName,
			SeasonName:      r.SeasonName,
			Gender:          r.CompetitionGender,
		})
	}
	return out, nil
}

func (c *StatsBombClient) Matches(ctx context.Context, competitionID, seasonID int) ([]models.Match, error) {
	var raw []rawMatch
	if err := c.getJSON(ctx, fmt.Sprintf("/matches/%d/%d.json", competitionID, seasonID), &raw); err != nil {
		return nil, err
	}

	out := make([]models.Match, 0, len(raw))
	for _, r := range raw {
		m := models.Match{
			MatchID:         r.MatchID,
			CompetitionID:   r.Competition.CompetitionID,
			SeasonID:        r.Season.SeasonID,
			CompetitionName: r.Competition.CompetitionName,
			SeasonName:      r.Season.SeasonName,
			Date:            r.MatchDate,
			KickOff:         r.KickOff,
			HomeTeam:        r.HomeTeam.Name,
			AwayTeam:        r.AwayTeam.Name,
			HomeScore:       r.HomeScore,
			AwayScore:       r.AwayScore,
		}
		if r.CompetitionStage != nil {
			m.Stage = r.CompetitionStage.Name
		}
		if r.Stadium != nil {
			m.Stadium = r.Stadium.Name
		}
		if r.Referee != nil {
			m.Referee = r.Referee.Name
		}
		out = append(out, m)
	}
	return out, nil
}

// Events returns the match events tagged with matchID, in provider order.
func (c *StatsBombClient) Events(ctx context.Context, matchID int) ([]models.Event, error) {
	var raw []json.RawMessage
	if err := c.getJSON(ctx, fmt.Sprintf("/events/%d.json", matchID), &raw); err != nil {
		return nil, err
	}

	out := make([]models.Event, 0, len(raw))
	for i, msg := range raw {
		e, err := decodeEvent(msg)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d of match %d: %w", models.ErrDataProvider, i, matchID, err)
		}
		e.MatchID = matchID
		out = append(out, e)
	}
	return out, nil
}

func (c *StatsBombClient) Lineups(ctx context.Context, matchID int) ([]models.TeamLineup, error) {
	var raw []rawLineup
	if err := c.getJSON(ctx, fmt.Sprintf("/lineups/%d.json", matchID), &raw); err != nil {
		return nil, err
	}

	out := make([]models.TeamLineup, 0, len(raw))
	for _, team := range raw {
		tl := models.TeamLineup{TeamName: team.TeamName}
		for _, p := range team.Lineup {
			lp := models.LineupPlayer{
				PlayerName:   p.PlayerName,
				JerseyNumber: p.JerseyNumber,
			}
			if p.PlayerNickname != nil {
				lp.Nickname = *p.PlayerNickname
			}
			if len(p.Positions) > 0 {
				lp.Position = p.Positions[0].Position
				lp.StartReason = p.Positions[0].StartReason
			}
			tl.Players = append(tl.Players, lp)
		}
		out = append(out, tl)
	}
	return out, nil
}

func (c *StatsBombClient) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", models.ErrDataProvider, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", models.ErrDataUnavailable, path)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d for %s: %s", models.ErrDataProvider, resp.StatusCode, path, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %w", models.ErrDataProvider, path, err)
	}
	return nil
}

func decodeEvent(msg json.RawMessage) (models.Event, error) {
	var r rawEvent
	if err := json.Unmarshal(msg, &r); err != nil {
		return models.Event{}, err
	}

	e := models.Event{
		ID:        r.ID,
		Index:     r.Index,
		Period:    r.Period,
		Minute:    r.Minute,
		Second:    r.Second,
		Timestamp: r.Timestamp,
		Type:      r.Type.Name,
		Team:      r.Team.Name,
		Location:  toPoint(r.Location),
	}
	if r.Player != nil {
		e.Player = r.Player.Name
	}
	if r.Position != nil {
		e.Position = r.Position.Name
	}
	if r.PlayPattern != nil {
		e.PlayPattern = r.PlayPattern.Name
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil {
		return models.Event{}, err
	}
	detail, ok := fields[attributeKey(e.Type)]
	if !ok {
		return e, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(detail, &obj); err != nil {
		return models.Event{}, err
	}
	attrs := flattenNamed(obj)

	if s, ok := attrs["outcome"].(string); ok {
		e.Outcome = s
		delete(attrs, "outcome")
	}
	if s, ok := attrs["body_part"].(string); ok {
		e.BodyPart = s
	}
	if xg, ok := attrs["statsbomb_xg"].(float64); ok {
		e.XG = xg
	}
	if loc, ok := attrs["end_location"].([]any); ok {
		e.EndLocation = toPoint(toFloats(loc))
		delete(attrs, "end_location")
	}
	if len(attrs) > 0 {
		e.Attributes = attrs
	}
	return e, nil
}

// attributeKey maps an event type name to the key holding its details,
// e.g. "Foul Committed" -> "foul_committed", "Goal Keeper" -> "goalkeeper".
func attributeKey(typeName string) string {
	switch typeName {
	case models.EventGoalKeeper:
		return "goalkeeper"
	case "Ball Receipt*":
		return "ball_receipt"
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimSuffix(typeName, "*"), " ", "_"))
}

// flattenNamed collapses {"id": 1, "name": "x"} objects to "x".
func flattenNamed(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if m, ok := v.(map[string]any); ok {
			if name, ok := m["name"].(string); ok {
				out[k] = name
				continue
			}
		}
		out[k] = v
	}
	return out
}

func toFloats(vs []any) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

func toPoint(coords []float64) *models.Point {
	switch len(coords) {
	case 0, 1:
		return nil
	case 2:
		return &models.Point{X: coords[0], Y: coords[1]}
	default:
		return &models.Point{X: coords[0], Y: coords[1], Z: coords[2]}
	}
}
