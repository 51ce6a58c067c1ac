package trace

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/swing/internal/domain/model"
)

// Detail is the trigger-specific part of a moment's signals. Each variant
// carries only the fields that explain its trigger.
type Detail interface {
	Kind() model.TriggerType
}

// FlipDetail explains a lead change.
type FlipDetail struct {
	From   model.Side `json:"from"`
	To     model.Side `json:"to"`
	Margin int        `json:"margin"`
}

// TieDetail explains a lead being erased.
type TieDetail struct {
	PriorLeader model.Side `json:"prior_leader"`
	PriorMargin int        `json:"prior_margin"`
	Score       string     `json:"score"`
}

// LeadDetail explains a tier move by the same leader, up (LEAD_BUILD) or down (CUT).
type LeadDetail struct {
	Leader   model.Side `json:"leader"`
	TierFrom int        `json:"tier_from"`
	TierTo   int        `json:"tier_to"`
	Cut      bool       `json:"-"`
}

// ClosingDetail explains a late-game lock-in.
type ClosingDetail struct {
	Leader   model.Side `json:"leader"`
	Streak   int        `json:"streak"`
	Progress float64    `json:"progress"`
}

// HighImpactDetail names the notable event.
type HighImpactDetail struct {
	PlayIndex   int    `json:"play_index"`
	EventKind   string `json:"event_kind"`
	Description string `json:"description,omitempty"`
}

// OpenerDetail marks a period start.
type OpenerDetail struct {
	Period int `json:"period"`
}

// NeutralDetail has no fields.
type NeutralDetail struct{}

func (FlipDetail) Kind() model.TriggerType       { return model.TriggerFlip }
func (TieDetail) Kind() model.TriggerType        { return model.TriggerTie }
func (ClosingDetail) Kind() model.TriggerType    { return model.TriggerClosingControl }
func (HighImpactDetail) Kind() model.TriggerType { return model.TriggerHighImpact }
func (OpenerDetail) Kind() model.TriggerType     { return model.TriggerOpener }
func (NeutralDetail) Kind() model.TriggerType    { return model.TriggerNeutral }

func (d LeadDetail) Kind() model.TriggerType {
	if d.Cut {
		return model.TriggerCut
	}
	return model.TriggerLeadBuild
}

// RunSignal is the run concluded inside the moment, if any.
type RunSignal struct {
	Team   model.Side `json:"team"`
	Points int        `json:"points"`
}

// Signals snapshots the ladder at a moment's boundaries plus its trigger detail.
type Signals struct {
	LeadBefore   int
	LeadAfter    int
	TierBefore   int
	TierAfter    int
	LeaderBefore model.Side
	LeaderAfter  model.Side
	Run          *RunSignal
	Detail       Detail
	// Extension is opaque and passed through untouched.
	Extension json.RawMessage
}

type signalsJSON struct {
	LeadBefore   int             `json:"lead_before"`
	LeadAfter    int             `json:"lead_after"`
	TierBefore   int             `json:"tier_before"`
	TierAfter    int             `json:"tier_after"`
	LeaderBefore model.Side      `json:"leader_before"`
	LeaderAfter  model.Side      `json:"leader_after"`
	Run          *RunSignal      `json:"run,omitempty"`
	Detail       json.RawMessage `json:"detail"`
	Extension    json.RawMessage `json:"extension,omitempty"`
}

// MarshalJSON encodes Detail as an object tagged with "kind".
func (s Signals) MarshalJSON() ([]byte, error) {
	detail := s.Detail
	if detail == nil {
		detail = NeutralDetail{}
	}
	raw, err := marshalDetail(detail)
	if err != nil {
		return nil, err
	}
	return json.Marshal(signalsJSON{
		LeadBefore:   s.LeadBefore,
		LeadAfter:    s.LeadAfter,
		TierBefore:   s.TierBefore,
		TierAfter:    s.TierAfter,
		LeaderBefore: s.LeaderBefore,
		LeaderAfter:  s.LeaderAfter,
		Run:          s.Run,
		Detail:       raw,
		Extension:    s.Extension,
	})
}

// UnmarshalJSON decodes the "kind" tag back into the matching Detail variant.
func (s *Signals) UnmarshalJSON(data []byte) error {
	var w signalsJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	detail, err := unmarshalDetail(w.Detail)
	if err != nil {
		return err
	}
	*s = Signals{
		LeadBefore:   w.LeadBefore,
		LeadAfter:    w.LeadAfter,
		TierBefore:   w.TierBefore,
		TierAfter:    w.TierAfter,
		LeaderBefore: w.LeaderBefore,
		LeaderAfter:  w.LeaderAfter,
		Run:          w.Run,
		Detail:       detail,
		Extension:    w.Extension,
	}
	return nil
}

func marshalDetail(d Detail) (json.RawMessage, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding %s detail: %w", d.Kind(), err)
	}
	kind, _ := json.Marshal(d.Kind())

	var buf bytes.Buffer
	buf.WriteString(`{"kind":`)
	buf.Write(kind)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func unmarshalDetail(raw json.RawMessage) (Detail, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return NeutralDetail{}, nil
	}
	var tag struct {
		Kind model.TriggerType `json:"kind"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("decoding detail kind: %w", err)
	}

	var (
		d   Detail
		err error
	)
	switch tag.Kind {
	case model.TriggerFlip:
		d, err = decode(raw, FlipDetail{})
	case model.TriggerTie:
		d, err = decode(raw, TieDetail{})
	case model.TriggerLeadBuild, model.TriggerCut:
		d, err = decode(raw, LeadDetail{Cut: tag.Kind == model.TriggerCut})
	case model.TriggerClosingControl:
		d, err = decode(raw, ClosingDetail{})
	case model.TriggerHighImpact:
		d, err = decode(raw, HighImpactDetail{})
	case model.TriggerOpener:
		d, err = decode(raw, OpenerDetail{})
	case model.TriggerNeutral:
		d = NeutralDetail{}
	default:
		return nil, fmt.Errorf("unknown detail kind %q", tag.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s detail: %w", tag.Kind, err)
	}
	return d, nil
}

func decode[T Detail](raw json.RawMessage, v T) (Detail, error) {
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
