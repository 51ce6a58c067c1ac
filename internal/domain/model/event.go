// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Side identifies which team an event or lead belongs to.
type Side string

// Known sides. SideNone doubles as "no leader" (tied score).
const (
	SideHome Side = "home"
	SideAway Side = "away"
	SideNone Side = "none"
)

// Opponent returns the other side; SideNone has no opponent.
func (s Side) Opponent() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	default:
		return SideNone
	}
}

// Score is a home/away score pair.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// String renders the score as "H-A".
func (s Score) String() string {
	return strconv.Itoa(s.Home) + "-" + strconv.Itoa(s.Away)
}

// IsZero reports whether neither side has scored.
func (s Score) IsZero() bool { return s.Home == 0 && s.Away == 0 }

// Differential is home minus away.
func (s Score) Differential() int { return s.Home - s.Away }

// ParseScore parses an "H-A" string.
func ParseScore(v string) (Score, error) {
	parts := strings.SplitN(strings.TrimSpace(v), "-", 2)
	if len(parts) != 2 {
		return Score{}, fmt.Errorf("invalid score %q", v)
	}
	home, err := strconv.Atoi(parts[0])
	if err != nil {
		return Score{}, fmt.Errorf("invalid home score %q: %w", v, err)
	}
	away, err := strconv.Atoi(parts[1])
	if err != nil {
		return Score{}, fmt.Errorf("invalid away score %q: %w", v, err)
	}
	return Score{Home: home, Away: away}, nil
}

// PlayEvent is one externally supplied, immutable in-game event.
// Events are ordered by PlayIndex, which is unique and strictly increasing.
type PlayEvent struct {
	GameID      string `json:"game_id" yaml:"game_id"`
	PlayIndex   int    `json:"play_index" yaml:"play_index"`
	Period      int    `json:"period" yaml:"period"`
	Clock       string `json:"clock" yaml:"clock"` // "MM:SS"
	HomeScore   int    `json:"home_score" yaml:"home_score"`
	AwayScore   int    `json:"away_score" yaml:"away_score"`
	Side        Side   `json:"side,omitempty" yaml:"side,omitempty"`
	EventKind   string `json:"event_kind" yaml:"event_kind"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Team        string `json:"team,omitempty" yaml:"team,omitempty"`
	Player      string `json:"player,omitempty" yaml:"player,omitempty"`
}

// Score returns the score after this event.
func (e PlayEvent) Score() Score {
	return Score{Home: e.HomeScore, Away: e.AwayScore}
}

// ClockSeconds parses Clock ("MM:SS" or "SS") into seconds.
// The boolean is false when the clock is absent or malformed.
func (e PlayEvent) ClockSeconds() (int, bool) {
	return ParseClock(e.Clock)
}

// ParseClock parses "MM:SS" (or plain seconds) into seconds.
func ParseClock(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	minutes, seconds, found := strings.Cut(v, ":")
	if !found {
		s, err := strconv.Atoi(v)
		return s, err == nil && s >= 0
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 {
		return 0, false
	}
	// Tenths ("04.7") are truncated.
	whole, _, _ := strings.Cut(seconds, ".")
	s, err := strconv.Atoi(whole)
	if err != nil || s < 0 || s >= 60 {
		return 0, false
	}
	return m*60 + s, true
}

// Game is the full generation input for one contest.
type Game struct {
	ID       string      `json:"game_id" yaml:"game_id"`
	Sport    string      `json:"sport" yaml:"sport"`
	League   string      `json:"league,omitempty" yaml:"league,omitempty"`
	Date     string      `json:"date,omitempty" yaml:"date,omitempty"`
	HomeTeam string      `json:"home_team,omitempty" yaml:"home_team,omitempty"`
	AwayTeam string      `json:"away_team,omitempty" yaml:"away_team,omitempty"`
	Events   []PlayEvent `json:"events" yaml:"events"`
}
