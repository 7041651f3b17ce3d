package models

import "fmt"

type Competition struct {
	CompetitionID   int    `json:"competition_id"`
	SeasonID        int    `json:"season_id"`
	CountryName     string `json:"country_name"`
	CompetitionName string `json:"competition_name"`
	SeasonName      string `json:"season_name"`
	Gender          string `json:"competition_gender"`
}

type Match struct {
	MatchID         int    `json:"match_id"`
	CompetitionID   int    `json:"competition_id"`
	SeasonID        int    `json:"season_id"`
	CompetitionName string `json:"competition_name"`
	SeasonName      string `json:"season_name"`
	Date            string `json:"match_date"`
	KickOff         string `json:"kick_off"`
	HomeTeam        string `json:"home_team"`
	AwayTeam        string `json:"away_team"`
	HomeScore       int    `json:"home_score"`
	AwayScore       int    `json:"away_score"`
	Stage           string `json:"competition_stage"`
	Stadium         string `json:"stadium"`
	Referee         string `json:"referee"`
}

// Title is the label shown in selection controls, e.g. "Argentina vs France".
func (m Match) Title() string {
	return fmt.Sprintf("%s vs %s", m.HomeTeam, m.AwayTeam)
}

// MatchRef points a session at a match. CompetitionID and SeasonID are optional.
type MatchRef struct {
	MatchID       int `json:"match_id"`
	CompetitionID int `json:"competition_id,omitempty"`
	SeasonID      int `json:"season_id,omitempty"`
}

type TeamLineup struct {
	TeamName string         `json:"team_name"`
	Players  []LineupPlayer `json:"players"`
}

type LineupPlayer struct {
	PlayerName   string `json:"player_name"`
	Nickname     string `json:"player_nickname,omitempty"`
	JerseyNumber int    `json:"jersey_number"`
	Position     string `json:"position,omitempty"`
	StartReason  string `json:"start_reason,omitempty"`
}

// Starting reports whether the player started the match.
func (p LineupPlayer) Starting() bool {
	return p.StartReason == "Starting XI"
}
