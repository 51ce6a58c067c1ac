package model

// Moment is one contiguous narrative span of the timeline. Candidates produced
// by the builder share the shape; the merge engine narrows them to the final set.
type Moment struct {
	ID             string      `json:"id"`
	TriggerType    TriggerType `json:"trigger_type"`
	StartPlayIndex int         `json:"start_play_index"`
	EndPlayIndex   int         `json:"end_play_index"`
	PlayCount      int         `json:"play_count"`
	ScoreStart     Score       `json:"score_start"`
	ScoreEnd       Score       `json:"score_end"`
	TeamInControl  Side        `json:"team_in_control"`
	Teams          []string    `json:"teams"`
	Players        []string    `json:"players"`
	Run            *RunInfo    `json:"run_info,omitempty"`
	LadderTier     int         `json:"ladder_tier"`
	PeriodStart    int         `json:"period_start"`
	PeriodEnd      int         `json:"period_end"`
	ClockStart     string      `json:"clock_start"`
	ClockEnd       string      `json:"clock_end"`
	KeyPlays       []int       `json:"key_plays,omitempty"`
	Importance     float64     `json:"importance"`
	AbsorbedIDs    []string    `json:"absorbed_ids,omitempty"`

	// Hard trigger types of absorbed candidates that the moment's own trigger
	// does not already stand for.
	SubsumedTriggers []TriggerType `json:"subsumed_triggers,omitempty"`

	// Positions into the event slice; not part of the persisted payload.
	StartPos int `json:"-"`
	EndPos   int `json:"-"`
}

// Half returns 1 or 2 for the half the moment starts in. Overtime periods
// count toward the second half.
func (m Moment) Half(regulationPeriods int) int {
	if regulationPeriods <= 1 {
		return 1
	}
	if m.PeriodStart*2 <= regulationPeriods {
		return 1
	}
	return 2
}

// Contains reports whether playIndex lies inside the moment.
func (m Moment) Contains(playIndex int) bool {
	return playIndex >= m.StartPlayIndex && playIndex <= m.EndPlayIndex
}
