package model

// TriggerType classifies a transition between consecutive ladder states.
type TriggerType string

// Trigger types, see Precedence for tie ordering.
const (
	TriggerFlip           TriggerType = "FLIP"
	TriggerTie            TriggerType = "TIE"
	TriggerLeadBuild      TriggerType = "LEAD_BUILD"
	TriggerCut            TriggerType = "CUT"
	TriggerClosingControl TriggerType = "CLOSING_CONTROL"
	TriggerHighImpact     TriggerType = "HIGH_IMPACT"
	TriggerOpener         TriggerType = "OPENER"
	TriggerNeutral        TriggerType = "NEUTRAL"
)

// AllTriggers lists every trigger type in precedence order.
var AllTriggers = []TriggerType{
	TriggerFlip,
	TriggerTie,
	TriggerHighImpact,
	TriggerClosingControl,
	TriggerLeadBuild,
	TriggerCut,
	TriggerOpener,
	TriggerNeutral,
}

// IsHard reports whether the trigger must survive merging whenever possible.
func (t TriggerType) IsHard() bool {
	switch t {
	case TriggerFlip, TriggerTie, TriggerHighImpact, TriggerClosingControl:
		return true
	default:
		return false
	}
}

// Precedence returns the rank used to pick one trigger per transition.
// Lower wins. LEAD_BUILD and CUT share a rank since they are mutually exclusive.
func (t TriggerType) Precedence() int {
	switch t {
	case TriggerFlip:
		return 0
	case TriggerTie:
		return 1
	case TriggerHighImpact:
		return 2
	case TriggerClosingControl:
		return 3
	case TriggerLeadBuild, TriggerCut:
		return 4
	case TriggerOpener:
		return 5
	default:
		return 6
	}
}

// Valid reports whether t is a known trigger type.
func (t TriggerType) Valid() bool {
	for _, known := range AllTriggers {
		if t == known {
			return true
		}
	}
	return false
}

// LadderState is the derived control state after one play.
type LadderState struct {
	PlayIndex    int  `json:"play_index"`
	Tier         int  `json:"tier"`
	Leader       Side `json:"leading_side"`
	Differential int  `json:"differential"`
}

// Trigger is the classification attached to the transition ending at PlayIndex.
type Trigger struct {
	Type      TriggerType `json:"type"`
	PlayIndex int         `json:"play_index"`
	Position  int         `json:"position"` // offset into the event slice
	Run       *RunInfo    `json:"run,omitempty"`
}

// RunInfo describes an unanswered scoring sequence by one side.
type RunInfo struct {
	Team          Side `json:"team"`
	Points        int  `json:"points"`
	StartPosition int  `json:"start_position"`
	EndPosition   int  `json:"end_position"`
}
