// Package moment builds the initial partition of a game timeline into
// candidate moments and recomputes moment spans after merges.
package moment

import (
	"fmt"
	"sort"

	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/ladder"
	"github.com/okian/swing/internal/domain/model"
)

// Timeline bundles the derived per-event data every later stage reads.
type Timeline struct {
	Events  []model.PlayEvent
	States  []model.LadderState
	Runs    []model.RunInfo
	Profile config.SportProfile
}

// Len is the number of events on the timeline.
func (tl *Timeline) Len() int { return len(tl.Events) }

// Before returns the ladder state preceding position pos.
func (tl *Timeline) Before(pos int) model.LadderState {
	if pos <= 0 {
		return ladder.Pregame()
	}
	return tl.States[pos-1]
}

// ScoreBefore returns the score before the event at pos (0-0 at the start).
func (tl *Timeline) ScoreBefore(pos int) model.Score {
	if pos <= 0 {
		return model.Score{}
	}
	return tl.Events[pos-1].Score()
}

// Span derives a moment covering positions [start, end] inclusive.
func (tl *Timeline) Span(id string, trigger model.TriggerType, start, end int) model.Moment {
	first, last := tl.Events[start], tl.Events[end]
	m := model.Moment{
		ID:             id,
		TriggerType:    trigger,
		StartPlayIndex: first.PlayIndex,
		EndPlayIndex:   last.PlayIndex,
		PlayCount:      end - start + 1,
		ScoreStart:     tl.ScoreBefore(start),
		ScoreEnd:       last.Score(),
		TeamInControl:  tl.States[end].Leader,
		LadderTier:     tl.States[end].Tier,
		PeriodStart:    first.Period,
		PeriodEnd:      last.Period,
		ClockStart:     first.Clock,
		ClockEnd:       last.Clock,
		StartPos:       start,
		EndPos:         end,
	}

	teams := map[string]struct{}{}
	players := map[string]struct{}{}
	for pos := start; pos <= end; pos++ {
		e := tl.Events[pos]
		if e.Team != "" {
			teams[e.Team] = struct{}{}
		}
		if e.Player != "" {
			players[e.Player] = struct{}{}
		}
		if tl.Profile.IsKeyPlay(e.EventKind) {
			m.KeyPlays = append(m.KeyPlays, e.PlayIndex)
		}
	}
	m.Teams = sortedKeys(teams)
	m.Players = sortedKeys(players)
	m.Run = tl.runWithin(start, end)
	return m
}

// runWithin returns the biggest run concluded inside [start, end], earliest on ties.
func (tl *Timeline) runWithin(start, end int) *model.RunInfo {
	var best *model.RunInfo
	for i := range tl.Runs {
		r := tl.Runs[i]
		if r.EndPosition < start || r.EndPosition > end {
			continue
		}
		if best == nil || r.Points > best.Points {
			best = &r
		}
	}
	return best
}

// CandidateID renders the deterministic id of the n-th candidate (1-based).
func CandidateID(n int) string {
	return fmt.Sprintf("m%03d", n)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
