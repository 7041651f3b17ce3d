package application

import (
	"fmt"
	"strings"

	"matchchat/internal/models"
)

type TeamStats struct {
	Team              string  `json:"team"`
	Goals             int     `json:"goals"`
	Shots             int     `json:"shots"`
	ShotsOnTarget     int     `json:"shots_on_target"`
	XG                float64 `json:"xg"`
	Passes            int     `json:"passes"`
	PassesCompleted   int     `json:"passes_completed"`
	Fouls             int     `json:"fouls"`
	Corners           int     `json:"corners"`
	YellowCards       int     `json:"yellow_cards"`
	RedCards          int     `json:"red_cards"`
	Offsides          int     `json:"offsides"`
	Dribbles          int     `json:"dribbles"`
	DribblesCompleted int     `json:"dribbles_completed"`
	Tackles           int     `json:"tackles"`
	Interceptions     int     `json:"interceptions"`
}

func (t TeamStats) OnTargetRatio() float64 {
	return ratio(t.ShotsOnTarget, t.Shots)
}

func (t TeamStats) PassCompletion() float64 {
	return ratio(t.PassesCompleted, t.Passes)
}

type PlayerStats struct {
	Player            string  `json:"player"`
	Team              string  `json:"team"`
	PassesCompleted   int     `json:"passes_completed"`
	PassesAttempted   int     `json:"passes_attempted"`
	Shots             int     `json:"shots"`
	ShotsOnTarget     int     `json:"shots_on_target"`
	Goals             int     `json:"goals"`
	XG                float64 `json:"xg"`
	FoulsCommitted    int     `json:"fouls_committed"`
	FoulsWon          int     `json:"fouls_won"`
	Tackles           int     `json:"tackles"`
	Interceptions     int     `json:"interceptions"`
	DribblesCompleted int     `json:"dribbles_successful"`
	DribblesAttempted int     `json:"dribbles_attempted"`
	YellowCards       int     `json:"yellow_cards"`
	RedCards          int     `json:"red_cards"`
}

type Goal struct {
	Team    string `json:"team"`
	Player  string `json:"player"`
	Minute  int    `json:"minute"`
	OwnGoal bool   `json:"own_goal,omitempty"`
	Penalty bool   `json:"penalty,omitempty"`
	Index   int    `json:"-"`
}

type ScoreDetails struct {
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
	HomeGoals    int    `json:"home_goals"`
	AwayGoals    int    `json:"away_goals"`
	HomeShootout int    `json:"home_shootout,omitempty"`
	AwayShootout int    `json:"away_shootout,omitempty"`
	HadShootout  bool   `json:"had_shootout,omitempty"`
	Goals        []Goal `json:"goals"`
}

// Line renders "Argentina 3 - 3 France (4 - 2 on penalties)".
func (s ScoreDetails) Line() string {
	line := fmt.Sprintf("%s %d - %d %s", s.HomeTeam, s.HomeGoals, s.AwayGoals, s.AwayTeam)
	if s.HadShootout {
		line += fmt.Sprintf(" (%d - %d on penalties)", s.HomeShootout, s.AwayShootout)
	}
	return line
}

// ScorersFor lists "Player (23')" entries for one team, own goals marked [OG].
func (s ScoreDetails) ScorersFor(team string) string {
	var parts []string
	for _, g := range s.Goals {
		if g.Team != team {
			continue
		}
		name := g.Player
		switch {
		case g.OwnGoal:
			name += " [OG]"
		case g.Penalty:
			name += " [pen]"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", name, clockLabel(g.Minute)))
	}
	return strings.Join(parts, ", ")
}

// Match windows accepted by the player stats endpoint.
const (
	WindowWholeMatch = "whole_match"
	WindowFirstHalf  = "first_half"
	WindowSecondHalf = "second_half"
	WindowOvertime   = "overtime"
)

func ParseWindow(name string) (models.TimeWindow, error) {
	switch name {
	case "", WindowWholeMatch:
		return models.TimeWindow{Periods: []int{1, 2, 3, 4}}, nil
	case WindowFirstHalf:
		return models.TimeWindow{Periods: []int{1}}, nil
	case WindowSecondHalf:
		return models.TimeWindow{Periods: []int{2}}, nil
	case WindowOvertime:
		return models.TimeWindow{Periods: []int{3, 4}}, nil
	default:
		return models.TimeWindow{}, fmt.Errorf("unknown match window %q", name)
	}
}

var onTargetOutcomes = map[string]bool{
	"Goal":          true,
	"Saved":         true,
	"Saved To Post": true,
}

func isOnTarget(e models.Event) bool {
	return e.Type == models.EventShot && onTargetOutcomes[e.Outcome]
}

func isCorner(e models.Event) bool {
	return e.Type == models.EventPass && e.Attr("type") == "Corner"
}

func isOffside(e models.Event) bool {
	return e.Type == models.EventOffside || (e.Type == models.EventPass && e.Outcome == "Pass Offside")
}

func isTackle(e models.Event) bool {
	return e.Type == models.EventDuel && e.Attr("type") == "Tackle"
}

func isYellow(e models.Event) bool {
	return e.Card() == "Yellow Card"
}

func isRed(e models.Event) bool {
	c := e.Card()
	return c == "Red Card" || c == "Second Yellow"
}

// inPlay excludes the penalty shootout, which is not part of match stats.
func inPlay(e models.Event) bool {
	return e.Period != models.PeriodShootout
}

func computeTeamStats(events []models.Event, teams []string) []TeamStats {
	byTeam := make(map[string]*TeamStats, len(teams))
	out := make([]*TeamStats, 0, len(teams))
	for _, t := range teams {
		ts := &TeamStats{Team: t}
		byTeam[t] = ts
		out = append(out, ts)
	}

	for _, e := range events {
		if !inPlay(e) {
			continue
		}
		ts, ok := byTeam[e.Team]
		if !ok {
			continue
		}
		switch e.Type {
		case models.EventShot:
			ts.Shots++
			ts.XG += e.XG
			if isOnTarget(e) {
				ts.ShotsOnTarget++
			}
			if e.IsGoal() {
				ts.Goals++
			}
		case models.EventPass:
			ts.Passes++
			if e.Outcome == "" {
				ts.PassesCompleted++
			}
			if isCorner(e) {
				ts.Corners++
			}
		case models.EventFoulCommitted:
			ts.Fouls++
		case models.EventDribble:
			ts.Dribbles++
			if e.Outcome == "Complete" {
				ts.DribblesCompleted++
			}
		case models.EventInterception:
			ts.Interceptions++
		}
		if isOffside(e) {
			ts.Offsides++
		}
		if isTackle(e) {
			ts.Tackles++
		}
		if isYellow(e) {
			ts.YellowCards++
		}
		if isRed(e) {
			ts.RedCards++
		}
	}

	result := make([]TeamStats, len(out))
	for i, ts := range out {
		result[i] = *ts
	}
	return result
}

// computePlayerStats aggregates per player in order of first appearance.
func computePlayerStats(events []models.Event) []PlayerStats {
	byPlayer := make(map[string]*PlayerStats)
	var order []string

	for _, e := range events {
		if e.Player == "" || !inPlay(e) {
			continue
		}
		ps, ok := byPlayer[e.Player]
		if !ok {
			ps = &PlayerStats{Player: e.Player, Team: e.Team}
			byPlayer[e.Player] = ps
			order = append(order, e.Player)
		}

		switch e.Type {
		case models.EventPass:
			ps.PassesAttempted++
			if e.Outcome == "" {
				ps.PassesCompleted++
			}
		case models.EventShot:
			ps.Shots++
			ps.XG += e.XG
			if isOnTarget(e) {
				ps.ShotsOnTarget++
			}
			if e.IsGoal() {
				ps.Goals++
			}
		case models.EventFoulCommitted:
			ps.FoulsCommitted++
		case models.EventFoulWon:
			ps.FoulsWon++
		case models.EventInterception:
			ps.Interceptions++
		case models.EventDribble:
			ps.DribblesAttempted++
			if e.Outcome == "Complete" {
				ps.DribblesCompleted++
			}
		}
		if isTackle(e) {
			ps.Tackles++
		}
		if isYellow(e) {
			ps.YellowCards++
		}
		if isRed(e) {
			ps.RedCards++
		}
	}

	out := make([]PlayerStats, 0, len(order))
	for _, name := range order {
		out = append(out, *byPlayer[name])
	}
	return out
}

// computeScore builds the score line. Own goals are credited to the opponent
// and period 5 goals count towards the shootout only.
func computeScore(events []models.Event, home, away string) ScoreDetails {
	s := ScoreDetails{HomeTeam: home, AwayTeam: away}
	opponent := func(team string) string {
		if team == home {
			return away
		}
		return home
	}

	for _, e := range events {
		var g Goal
		switch {
		case e.IsGoal():
			g = Goal{Team: e.Team, Player: e.Player, Minute: e.Minute, Penalty: e.Attr("type") == "Penalty", Index: e.Index}
		case e.Type == models.EventOwnGoalAgainst:
			g = Goal{Team: opponent(e.Team), Player: e.Player, Minute: e.Minute, OwnGoal: true, Index: e.Index}
		default:
			continue
		}

		if e.Period == models.PeriodShootout {
			s.HadShootout = true
			if g.Team == home {
				s.HomeShootout++
			} else if g.Team == away {
				s.AwayShootout++
			}
			continue
		}

		if g.Team == home {
			s.HomeGoals++
		} else if g.Team == away {
			s.AwayGoals++
		}
		s.Goals = append(s.Goals, g)
	}

	if !s.HadShootout {
		for _, e := range events {
			if e.Period == models.PeriodShootout {
				s.HadShootout = true
				break
			}
		}
	}
	return s
}

// homeAway picks the two teams from the descriptor, falling back to the
// order teams appear in the events.
func homeAway(ds *models.Dataset, match *models.Match) (string, string) {
	if match != nil && match.HomeTeam != "" && match.AwayTeam != "" {
		return match.HomeTeam, match.AwayTeam
	}
	teams := ds.Teams()
	switch len(teams) {
	case 0:
		return "", ""
	case 1:
		return teams[0], ""
	default:
		return teams[0], teams[1]
	}
}
