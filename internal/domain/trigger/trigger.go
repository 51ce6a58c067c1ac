// Package trigger classifies every ladder-state transition into exactly one
// trigger type.
package trigger

import (
	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/ladder"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/runs"
)

// Detector assigns one trigger per event.
type Detector struct {
	profile config.SportProfile
}

// NewDetector returns a detector for the given sport profile.
func NewDetector(profile config.SportProfile) *Detector {
	return &Detector{profile: profile}
}

// Detect returns one trigger per event. states must be the ladder states for
// events and detected the runs over the same slice.
func (d *Detector) Detect(events []model.PlayEvent, states []model.LadderState, detected []model.RunInfo) []model.Trigger {
	out := make([]model.Trigger, len(events))
	runAt := runs.ByEndPosition(detected)

	prev := ladder.Pregame()
	lastLeader := model.SideNone
	streak := 0
	closed := false

	for i, e := range events {
		cur := states[i]

		if cur.Leader != model.SideNone && cur.Leader == prev.Leader {
			streak++
		} else if cur.Leader != model.SideNone {
			streak = 1
		} else {
			streak = 0
		}

		candidates := d.candidates(i, events, prev, cur, lastLeader, streak, closed)
		chosen := pick(candidates)
		if chosen == model.TriggerClosingControl {
			closed = true
		}

		t := model.Trigger{Type: chosen, PlayIndex: e.PlayIndex, Position: i}
		if r, ok := runAt[i]; ok {
			t.Run = &r
		}
		out[i] = t

		if cur.Leader != model.SideNone {
			lastLeader = cur.Leader
		}
		prev = cur
	}
	return out
}

// candidates lists every trigger type whose condition holds for event i.
func (d *Detector) candidates(i int, events []model.PlayEvent, prev, cur model.LadderState, lastLeader model.Side, streak int, closed bool) []model.TriggerType {
	var found []model.TriggerType

	if cur.Leader != model.SideNone && lastLeader != model.SideNone && cur.Leader != lastLeader {
		found = append(found, model.TriggerFlip)
	}
	if cur.Differential == 0 && prev.Differential != 0 {
		found = append(found, model.TriggerTie)
	}
	if d.profile.IsHighImpact(events[i].EventKind) {
		found = append(found, model.TriggerHighImpact)
	}
	if !closed && d.isClosing(i, len(events), cur, streak) {
		found = append(found, model.TriggerClosingControl)
	}
	if cur.Leader != model.SideNone {
		sameSide := cur.Leader == prev.Leader || prev.Leader == model.SideNone
		switch {
		case cur.Tier > prev.Tier && sameSide:
			found = append(found, model.TriggerLeadBuild)
		case cur.Tier < prev.Tier && cur.Leader == prev.Leader:
			found = append(found, model.TriggerCut)
		}
	}
	if i == 0 || events[i].Period != events[i-1].Period {
		found = append(found, model.TriggerOpener)
	}
	return found
}

func (d *Detector) isClosing(i, total int, cur model.LadderState, streak int) bool {
	if total == 0 || cur.Leader == model.SideNone {
		return false
	}
	progress := float64(i+1) / float64(total)
	if progress < d.profile.LateGameProgressThreshold {
		return false
	}
	minStreak := d.profile.ClosingMinStreak
	if minStreak < 1 {
		minStreak = 1
	}
	return streak >= minStreak
}

// pick returns the highest-precedence trigger, NEUTRAL when none applies.
func pick(found []model.TriggerType) model.TriggerType {
	best := model.TriggerNeutral
	for _, t := range found {
		if t.Precedence() < best.Precedence() {
			best = t
		}
	}
	return best
}
