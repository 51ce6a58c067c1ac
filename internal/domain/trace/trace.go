// Package trace records, per final moment, the signals that justified it and
// the action history that produced it.
package trace

import (
	"sort"

	"github.com/okian/swing/internal/domain/merge"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/moment"
	"github.com/okian/swing/internal/domain/validate"
)

// ActionKind names a step in a moment's history.
type ActionKind string

// Action kinds, in the order they can appear.
const (
	ActionCreated  ActionKind = "created"
	ActionRejected ActionKind = "rejected"
	ActionAbsorbed ActionKind = "absorbed"
	ActionPromoted ActionKind = "promoted"
	ActionSubsumed ActionKind = "subsumed"
	ActionAccepted ActionKind = "accepted"
)

// Action is one entry of a moment's history.
type Action struct {
	Seq      int        `json:"seq"`
	Kind     ActionKind `json:"kind"`
	MomentID string     `json:"moment_id"`
	Ref      string     `json:"ref,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

// MomentTrace explains one final moment.
type MomentTrace struct {
	MomentID          string           `json:"moment_id"`
	Signals           Signals          `json:"signals"`
	Validation        validate.Verdict `json:"validation"`
	Actions           []Action         `json:"actions"`
	AbsorbedMomentIDs []string         `json:"absorbed_moment_ids"`
}

// Record builds one trace per final moment. triggers and candidates are the
// detector and builder output the merge result was computed from.
func Record(tl *moment.Timeline, triggers []model.Trigger, candidates []model.Moment, res merge.Result) []MomentTrace {
	initial := make(map[string]validate.Verdict, len(candidates))
	for i, c := range candidates {
		if i < len(res.InitialVerdicts) {
			initial[c.ID] = res.InitialVerdicts[i]
		}
	}

	out := make([]MomentTrace, len(res.Moments))
	for i, m := range res.Moments {
		var verdict validate.Verdict
		if i < len(res.Verdicts) {
			verdict = res.Verdicts[i]
		}
		absorbed := append([]string{}, m.AbsorbedIDs...)
		out[i] = MomentTrace{
			MomentID:          m.ID,
			Signals:           SignalsFor(tl, triggers, m),
			Validation:        verdict,
			Actions:           history(m, initial, res.Records),
			AbsorbedMomentIDs: absorbed,
		}
	}
	return out
}

// history orders the creation, rejection and merge actions of every candidate
// folded into m, then closes with acceptance.
func history(m model.Moment, initial map[string]validate.Verdict, records []merge.Record) []Action {
	members := map[string]bool{m.ID: true}
	for _, id := range m.AbsorbedIDs {
		members[id] = true
	}
	ids := append([]string{m.ID}, m.AbsorbedIDs...)
	sort.Strings(ids)

	var actions []Action
	add := func(a Action) {
		a.Seq = len(actions) + 1
		actions = append(actions, a)
	}

	for _, id := range ids {
		add(Action{Kind: ActionCreated, MomentID: id})
		if v, ok := initial[id]; ok && !v.Passed {
			add(Action{Kind: ActionRejected, MomentID: id, Reason: issuesReason(v.Issues)})
		}
	}
	for _, r := range records {
		if !members[r.AbsorbingID] {
			continue
		}
		add(Action{Kind: ActionAbsorbed, MomentID: r.AbsorbingID, Ref: r.AbsorbedID, Reason: r.Reason})
		if r.Promoted {
			add(Action{Kind: ActionPromoted, MomentID: r.AbsorbingID, Ref: r.AbsorbedID})
		}
		if r.Subsumed {
			add(Action{Kind: ActionSubsumed, MomentID: r.AbsorbingID, Ref: r.AbsorbedID})
		}
	}
	add(Action{Kind: ActionAccepted, MomentID: m.ID})
	return actions
}

func issuesReason(issues []validate.Issue) string {
	out := ""
	for i, issue := range issues {
		if i > 0 {
			out += ","
		}
		out += string(issue)
	}
	return out
}

// SignalsFor snapshots the ladder at m's boundaries and explains its trigger.
func SignalsFor(tl *moment.Timeline, triggers []model.Trigger, m model.Moment) Signals {
	before := tl.Before(m.StartPos)
	after := tl.States[m.EndPos]
	s := Signals{
		LeadBefore:   before.Differential,
		LeadAfter:    after.Differential,
		TierBefore:   before.Tier,
		TierAfter:    after.Tier,
		LeaderBefore: before.Leader,
		LeaderAfter:  after.Leader,
		Detail:       detailFor(tl, triggerPosition(triggers, m), m.TriggerType),
	}
	if m.Run != nil {
		s.Run = &RunSignal{Team: m.Run.Team, Points: m.Run.Points}
	}
	return s
}

func detailFor(tl *moment.Timeline, pos int, t model.TriggerType) Detail {
	prev, cur := tl.Before(pos), tl.States[pos]
	e := tl.Events[pos]

	switch t {
	case model.TriggerFlip:
		from := prev.Leader
		if from == model.SideNone {
			from = cur.Leader.Opponent()
		}
		return FlipDetail{From: from, To: cur.Leader, Margin: abs(cur.Differential)}
	case model.TriggerTie:
		return TieDetail{PriorLeader: prev.Leader, PriorMargin: abs(prev.Differential), Score: e.Score().String()}
	case model.TriggerLeadBuild, model.TriggerCut:
		return LeadDetail{
			Leader:   cur.Leader,
			TierFrom: prev.Tier,
			TierTo:   cur.Tier,
			Cut:      t == model.TriggerCut,
		}
	case model.TriggerClosingControl:
		streak := 0
		for k := pos; k >= 0 && tl.States[k].Leader == cur.Leader; k-- {
			streak++
		}
		return ClosingDetail{
			Leader:   cur.Leader,
			Streak:   streak,
			Progress: float64(pos+1) / float64(tl.Len()),
		}
	case model.TriggerHighImpact:
		return HighImpactDetail{PlayIndex: e.PlayIndex, EventKind: e.EventKind, Description: e.Description}
	case model.TriggerOpener:
		return OpenerDetail{Period: e.Period}
	default:
		return NeutralDetail{}
	}
}

// triggerPosition finds the event inside m whose trigger names m. Merged spans
// may start before it; promoted spans carry the trigger of an absorbed candidate.
func triggerPosition(triggers []model.Trigger, m model.Moment) int {
	for pos := m.StartPos; pos <= m.EndPos && pos < len(triggers); pos++ {
		if triggers[pos].Type == m.TriggerType {
			return pos
		}
	}
	return m.StartPos
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
