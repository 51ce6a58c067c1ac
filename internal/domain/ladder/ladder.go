// Package ladder maps running score differentials onto discrete control tiers.
//
// The tracker is total and causal: the state for an event depends only on
// that event and the ones before it, so it can run incrementally over a
// stream and always produces one state per event.
package ladder

import (
	"github.com/okian/swing/internal/domain/model"
)

// Tracker converts score differentials into ladder states.
type Tracker struct {
	thresholds []int
}

// NewTracker builds a tracker for an ascending threshold table.
func NewTracker(thresholds []int) *Tracker {
	t := make([]int, len(thresholds))
	copy(t, thresholds)
	return &Tracker{thresholds: t}
}

// Tier returns the highest threshold index (1-based) that |differential|
// meets or exceeds; 0 below the first threshold.
func (t *Tracker) Tier(differential int) int {
	if differential < 0 {
		differential = -differential
	}
	tier := 0
	for _, threshold := range t.thresholds {
		if differential < threshold {
			break
		}
		tier++
	}
	return tier
}

// State derives the ladder state after a single event.
func (t *Tracker) State(e model.PlayEvent) model.LadderState {
	diff := e.HomeScore - e.AwayScore
	return model.LadderState{
		PlayIndex:    e.PlayIndex,
		Tier:         t.Tier(diff),
		Leader:       LeaderOf(diff),
		Differential: diff,
	}
}

// Track returns one ladder state per event, in order.
func (t *Tracker) Track(events []model.PlayEvent) []model.LadderState {
	states := make([]model.LadderState, len(events))
	for i, e := range events {
		states[i] = t.State(e)
	}
	return states
}

// Pregame is the state before the first event: level score, tier 0.
func Pregame() model.LadderState {
	return model.LadderState{PlayIndex: -1, Leader: model.SideNone}
}

// LeaderOf returns the leading side for a home-minus-away differential.
func LeaderOf(differential int) model.Side {
	switch {
	case differential > 0:
		return model.SideHome
	case differential < 0:
		return model.SideAway
	default:
		return model.SideNone
	}
}
