package models

import (
	"slices"
	"strings"
)

// Common StatsBomb event type names.
const (
	EventPass           = "Pass"
	EventShot           = "Shot"
	EventOwnGoalAgainst = "Own Goal Against"
	EventOwnGoalFor     = "Own Goal For"
	EventFoulCommitted  = "Foul Committed"
	EventFoulWon        = "Foul Won"
	EventBadBehaviour   = "Bad Behaviour"
	EventDribble        = "Dribble"
	EventDuel           = "Duel"
	EventInterception   = "Interception"
	EventOffside        = "Offside"
	EventGoalKeeper     = "Goal Keeper"
	EventSubstitution   = "Substitution"
	EventPressure       = "Pressure"
	EventClearance      = "Clearance"
	EventBlock          = "Block"
	EventStartingXI     = "Starting XI"
	EventHalfStart      = "Half Start"
	EventHalfEnd        = "Half End"
)

// PeriodShootout is the StatsBomb period for penalty shootouts.
const PeriodShootout = 5

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Event is one atomic match occurrence. Attributes holds the type-specific
// fields keyed by their provider name (e.g. "type", "card", "technique").
type Event struct {
	ID          string         `json:"id"`
	Index       int            `json:"index"`
	MatchID     int            `json:"match_id"`
	Period      int            `json:"period"`
	Minute      int            `json:"minute"`
	Second      int            `json:"second"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Type        string         `json:"type"`
	Team        string         `json:"team,omitempty"`
	Player      string         `json:"player,omitempty"`
	Position    string         `json:"position,omitempty"`
	PlayPattern string         `json:"play_pattern,omitempty"`
	Outcome     string         `json:"outcome,omitempty"`
	Location    *Point         `json:"location,omitempty"`
	EndLocation *Point         `json:"end_location,omitempty"`
	BodyPart    string         `json:"body_part,omitempty"`
	XG          float64        `json:"xg,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Attr returns a string attribute, or "" when it is absent or not a string.
func (e Event) Attr(key string) string {
	if e.Attributes == nil {
		return ""
	}
	s, _ := e.Attributes[key].(string)
	return s
}

// IsGoal reports whether the event is a scored shot.
func (e Event) IsGoal() bool {
	return e.Type == EventShot && e.Outcome == "Goal"
}

// Card returns the card shown with a foul or bad behaviour event.
func (e Event) Card() string {
	if e.Type != EventFoulCommitted && e.Type != EventBadBehaviour {
		return ""
	}
	return e.Attr("card")
}

type Dataset struct {
	MatchID int     `json:"match_id"`
	Events  []Event `json:"events"`
}

// TimeWindow restricts events to a set of periods and/or a minute range.
// Zero values mean "no restriction".
type TimeWindow struct {
	Periods    []int `json:"periods,omitempty"`
	FromMinute int   `json:"from_minute,omitempty"`
	ToMinute   int   `json:"to_minute,omitempty"`
}

func (w TimeWindow) IsZero() bool {
	return len(w.Periods) == 0 && w.FromMinute == 0 && w.ToMinute == 0
}

func (w TimeWindow) Contains(e Event) bool {
	if len(w.Periods) > 0 && !slices.Contains(w.Periods, e.Period) {
		return false
	}
	if w.FromMinute > 0 && e.Minute < w.FromMinute {
		return false
	}
	if w.ToMinute > 0 && e.Minute > w.ToMinute {
		return false
	}
	return true
}

type EventFilter struct {
	Teams   []string
	Players []string
	Types   []string
	Window  TimeWindow
}

func (f EventFilter) Match(e Event) bool {
	if len(f.Teams) > 0 && !containsFold(f.Teams, e.Team) {
		return false
	}
	if len(f.Players) > 0 && !containsFold(f.Players, e.Player) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	return f.Window.Contains(e)
}

// Filter returns the events matching f in dataset order. The dataset itself
// is never modified.
func (d *Dataset) Filter(f EventFilter) []Event {
	out := make([]Event, 0)
	for _, e := range d.Events {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Teams returns team names in order of first appearance.
func (d *Dataset) Teams() []string {
	return d.distinct(func(e Event) string { return e.Team })
}

// Players returns player names in order of first appearance.
func (d *Dataset) Players() []string {
	return d.distinct(func(e Event) string { return e.Player })
}

func (d *Dataset) distinct(field func(Event) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range d.Events {
		v := field(e)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
