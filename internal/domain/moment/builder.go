package moment

import (
	"github.com/okian/swing/internal/domain/model"
)

// Build partitions the timeline into candidates: every non-NEUTRAL trigger
// opens a new candidate and NEUTRAL events extend the open one. The result is
// a gap-free, non-overlapping cover of all events.
func Build(tl *Timeline, triggers []model.Trigger) []model.Moment {
	if tl.Len() == 0 {
		return nil
	}

	var (
		out        []model.Moment
		start      = 0
		openedWith = model.TriggerOpener
	)
	if len(triggers) > 0 && triggers[0].Type != model.TriggerNeutral {
		openedWith = triggers[0].Type
	}

	for pos := 1; pos < tl.Len(); pos++ {
		t := triggers[pos]
		if t.Type == model.TriggerNeutral {
			continue
		}
		out = append(out, tl.Span(CandidateID(len(out)+1), openedWith, start, pos-1))
		start, openedWith = pos, t.Type
	}
	return append(out, tl.Span(CandidateID(len(out)+1), openedWith, start, tl.Len()-1))
}
