// Package validate decides whether a candidate moment carries a narrative
// change. It is the single source of truth for moment validity; callers read
// the Verdict and never re-derive the rules.
package validate

import (
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/moment"
)

// Issue is a machine-readable rejection reason.
type Issue string

// Rejection reasons.
const (
	IssueStartsScoreless   Issue = "starts_scoreless"
	IssueSinglePlay        Issue = "single_play"
	IssueShortOpener       Issue = "short_opener"
	IssueNoNarrativeChange Issue = "no_narrative_change"
)

// Signal names a qualifying narrative signal.
type Signal string

// Qualifying signals. Any one of them makes a candidate meaningful.
const (
	SignalScoreChanged   Signal = "score_changed"
	SignalControlChanged Signal = "control_changed"
	SignalTierChanged    Signal = "tier_changed"
	SignalRunQualified   Signal = "run_qualified"
	SignalKeyPlays       Signal = "key_plays"
	SignalHardTrigger    Signal = "hard_trigger"
)

const shortOpenerPlays = 3

// Verdict is the validator outcome for one candidate.
type Verdict struct {
	Passed  bool     `json:"passed"`
	Issues  []Issue  `json:"issues,omitempty"`
	Signals []Signal `json:"signals,omitempty"`
}

// Has reports whether the verdict carries issue.
func (v Verdict) Has(issue Issue) bool {
	for _, i := range v.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

// Validator checks candidates against one timeline.
type Validator struct {
	tl *moment.Timeline
}

// New returns a validator over tl.
func New(tl *moment.Timeline) *Validator {
	return &Validator{tl: tl}
}

// Validate checks m. first is true for the earliest candidate of the game,
// which alone may start at 0-0.
func (v *Validator) Validate(m model.Moment, first bool) Verdict {
	signals := v.signals(m)
	hard := m.TriggerType.IsHard()

	var issues []Issue
	if !first && m.ScoreStart.IsZero() {
		issues = append(issues, IssueStartsScoreless)
	}
	if m.PlayCount == 1 && !hard {
		issues = append(issues, IssueSinglePlay)
	}
	if len(signals) == 0 {
		if m.TriggerType == model.TriggerOpener && m.PlayCount <= shortOpenerPlays {
			issues = append(issues, IssueShortOpener)
		} else {
			issues = append(issues, IssueNoNarrativeChange)
		}
	}
	return Verdict{Passed: len(issues) == 0, Issues: issues, Signals: signals}
}

// All validates a whole candidate list in order.
func (v *Validator) All(ms []model.Moment) []Verdict {
	out := make([]Verdict, len(ms))
	for i, m := range ms {
		out[i] = v.Validate(m, i == 0)
	}
	return out
}

func (v *Validator) signals(m model.Moment) []Signal {
	var out []Signal
	if m.ScoreStart != m.ScoreEnd {
		out = append(out, SignalScoreChanged)
	}

	before := v.tl.Before(m.StartPos)
	controlChanged, tierChanged := false, false
	for pos := m.StartPos; pos <= m.EndPos && pos < len(v.tl.States); pos++ {
		s := v.tl.States[pos]
		if s.Leader != before.Leader {
			controlChanged = true
		}
		if s.Tier != before.Tier {
			tierChanged = true
		}
	}
	if controlChanged {
		out = append(out, SignalControlChanged)
	}
	if tierChanged {
		out = append(out, SignalTierChanged)
	}
	// MinRunPoints is exclusive: a run must exceed it, matching runs.Detect.
	if m.Run != nil && m.Run.Points > v.tl.Profile.MinRunPoints {
		out = append(out, SignalRunQualified)
	}
	if len(m.KeyPlays) > 0 {
		out = append(out, SignalKeyPlays)
	}
	if m.TriggerType.IsHard() {
		out = append(out, SignalHardTrigger)
	}
	return out
}
