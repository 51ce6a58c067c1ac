// Package diff aligns the moment lists of two payload versions of one game
// and reports structural and narrative deltas between them.
package diff

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/scoring"
)

const (
	defaultRegulationPeriods = 4
	defaultTolerance         = 0.05
)

// Status classifies one aligned slot.
type Status string

// Slot statuses.
const (
	StatusUnchanged Status = "unchanged"
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusModified  Status = "modified"
)

// Change reasons attached to modified slots.
const (
	ChangeRange      = "range"
	ChangeTrigger    = "trigger"
	ChangeLeader     = "team_in_control"
	ChangeImportance = "importance"
	ChangeMerged     = "merged" // several moments of A collapse into one of B
	ChangeSplit      = "split"  // one moment of A spreads over several of B
)

// Side is one version and its committed moments.
type Side struct {
	Version model.PayloadVersion
	Moments []model.Moment
}

// MomentRef is the part of a moment the comparison looks at.
type MomentRef struct {
	ID             string            `json:"id"`
	TriggerType    model.TriggerType `json:"trigger_type"`
	StartPlayIndex int               `json:"start_play_index"`
	EndPlayIndex   int               `json:"end_play_index"`
	PlayCount      int               `json:"play_count"`
	TeamInControl  model.Side        `json:"team_in_control"`
	Importance     float64           `json:"importance"` // normalized to [0,1]
}

// Row is one aligned slot. A holds moments from the first version, B from the second.
type Row struct {
	Status  Status      `json:"status"`
	A       []MomentRef `json:"a,omitempty"`
	B       []MomentRef `json:"b,omitempty"`
	Changes []string    `json:"changes,omitempty"`
}

// Count pairs a tally from both versions.
type Count struct {
	A     int `json:"a"`
	B     int `json:"b"`
	Delta int `json:"delta"`
}

// Aggregates are the whole-timeline deltas (B minus A).
type Aggregates struct {
	MomentCountDelta  int                         `json:"moment_count_delta"`
	Halves            map[int]Count               `json:"halves"`
	AvgPlayCountA     float64                     `json:"avg_play_count_a"`
	AvgPlayCountB     float64                     `json:"avg_play_count_b"`
	AvgPlayCountDelta float64                     `json:"avg_play_count_delta"`
	ByTrigger         map[model.TriggerType]Count `json:"by_trigger"`
	ByTier            map[int]Count               `json:"by_tier"`
}

// Summary counts rows per status.
type Summary struct {
	Unchanged int `json:"unchanged"`
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Modified  int `json:"modified"`
}

// Result is the comparison of two versions. It is derived and never persisted.
type Result struct {
	GameID      string     `json:"game_id"`
	VersionA    int        `json:"version_a"`
	VersionB    int        `json:"version_b"`
	HashA       string     `json:"hash_a"`
	HashB       string     `json:"hash_b"`
	HashesMatch bool       `json:"hashes_match"`
	Identical   bool       `json:"identical"`
	Rows        []Row      `json:"rows"`
	Summary     Summary    `json:"summary"`
	Aggregates  Aggregates `json:"aggregates"`
}

// Engine compares versions.
type Engine struct {
	regulationPeriods int
	tolerance         float64
}

// NewEngine creates a diff engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{regulationPeriods: defaultRegulationPeriods, tolerance: defaultTolerance}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compare aligns b against a. Matching content hashes short-circuit to an
// identical result with no rows.
func (e *Engine) Compare(a, b Side) (*Result, error) {
	if a.Version.GameID != b.Version.GameID {
		return nil, fmt.Errorf("%w: %q vs %q", ErrGameMismatch, a.Version.GameID, b.Version.GameID)
	}

	res := &Result{
		GameID:     a.Version.GameID,
		VersionA:   a.Version.VersionNumber,
		VersionB:   b.Version.VersionNumber,
		HashA:      a.Version.ContentHash,
		HashB:      b.Version.ContentHash,
		Rows:       []Row{},
		Aggregates: e.aggregate(a.Moments, b.Moments),
	}
	if a.Version.ContentHash != "" && a.Version.ContentHash == b.Version.ContentHash {
		res.HashesMatch = true
		res.Identical = true
		return res, nil
	}

	res.Rows = e.align(a.Moments, b.Moments)
	for _, r := range res.Rows {
		switch r.Status {
		case StatusUnchanged:
			res.Summary.Unchanged++
		case StatusAdded:
			res.Summary.Added++
		case StatusRemoved:
			res.Summary.Removed++
		case StatusModified:
			res.Summary.Modified++
		}
	}
	return res, nil
}

type slot struct {
	a, b  []int
	start int
	seq   int
}

// align pairs mutual best-overlap moments into slots, folds the remaining
// moments into the slot of their best counterpart when at least half of them
// overlaps it, and reports the rest as added or removed.
func (e *Engine) align(a, b []model.Moment) []Row {
	bestA := make([]int, len(a))
	for i := range a {
		bestA[i] = bestOverlap(a[i], b)
	}
	bestB := make([]int, len(b))
	for j := range b {
		bestB[j] = bestOverlap(b[j], a)
	}

	var slots []*slot
	slotOfA := make(map[int]*slot)
	slotOfB := make(map[int]*slot)
	for i, j := range bestA {
		if j >= 0 && bestB[j] == i {
			s := &slot{a: []int{i}, b: []int{j}, seq: len(slots)}
			slots = append(slots, s)
			slotOfA[i] = s
			slotOfB[j] = s
		}
	}

	for i, j := range bestA {
		if _, ok := slotOfA[i]; ok {
			continue
		}
		if s, ok := slotOfB[j]; ok && 2*overlap(a[i], b[j]) >= width(a[i]) {
			s.a = append(s.a, i)
			continue
		}
		slots = append(slots, &slot{a: []int{i}, seq: len(slots)})
	}
	for j, i := range bestB {
		if _, ok := slotOfB[j]; ok {
			continue
		}
		if s, ok := slotOfA[i]; ok && 2*overlap(b[j], a[i]) >= width(b[j]) {
			s.b = append(s.b, j)
			continue
		}
		slots = append(slots, &slot{b: []int{j}, seq: len(slots)})
	}

	for _, s := range slots {
		sort.Ints(s.a)
		sort.Ints(s.b)
		s.start = math.MaxInt
		for _, i := range s.a {
			s.start = min(s.start, a[i].StartPlayIndex)
		}
		for _, j := range s.b {
			s.start = min(s.start, b[j].StartPlayIndex)
		}
	}
	sort.SliceStable(slots, func(x, y int) bool {
		if slots[x].start != slots[y].start {
			return slots[x].start < slots[y].start
		}
		return slots[x].seq < slots[y].seq
	})

	rows := make([]Row, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, e.classify(s, a, b))
	}
	return rows
}

func (e *Engine) classify(s *slot, a, b []model.Moment) Row {
	row := Row{}
	for _, i := range s.a {
		row.A = append(row.A, refOf(a[i]))
	}
	for _, j := range s.b {
		row.B = append(row.B, refOf(b[j]))
	}

	switch {
	case len(row.B) == 0:
		row.Status = StatusRemoved
		return row
	case len(row.A) == 0:
		row.Status = StatusAdded
		return row
	}

	first, second := row.A[0], row.B[0]
	if len(row.A) > 1 || len(row.B) > 1 ||
		first.StartPlayIndex != second.StartPlayIndex || first.EndPlayIndex != second.EndPlayIndex {
		row.Changes = append(row.Changes, ChangeRange)
	}
	if first.TriggerType != second.TriggerType {
		row.Changes = append(row.Changes, ChangeTrigger)
	}
	if first.TeamInControl != second.TeamInControl {
		row.Changes = append(row.Changes, ChangeLeader)
	}
	if math.Abs(first.Importance-second.Importance) > e.tolerance {
		row.Changes = append(row.Changes, ChangeImportance)
	}
	if len(row.A) > 1 {
		row.Changes = append(row.Changes, ChangeMerged)
	}
	if len(row.B) > 1 {
		row.Changes = append(row.Changes, ChangeSplit)
	}

	row.Status = StatusUnchanged
	if len(row.Changes) > 0 {
		row.Status = StatusModified
	}
	return row
}

func (e *Engine) aggregate(a, b []model.Moment) Aggregates {
	agg := Aggregates{
		MomentCountDelta: len(b) - len(a),
		Halves:           make(map[int]Count),
		ByTrigger:        make(map[model.TriggerType]Count),
		ByTier:           make(map[int]Count),
		AvgPlayCountA:    avgPlays(a),
		AvgPlayCountB:    avgPlays(b),
	}
	agg.AvgPlayCountDelta = agg.AvgPlayCountB - agg.AvgPlayCountA

	for _, m := range a {
		tally(agg.Halves, m.Half(e.regulationPeriods), 1, 0)
		tally(agg.ByTrigger, m.TriggerType, 1, 0)
		tally(agg.ByTier, m.LadderTier, 1, 0)
	}
	for _, m := range b {
		tally(agg.Halves, m.Half(e.regulationPeriods), 0, 1)
		tally(agg.ByTrigger, m.TriggerType, 0, 1)
		tally(agg.ByTier, m.LadderTier, 0, 1)
	}
	return agg
}

func tally[K comparable](table map[K]Count, key K, da, db int) {
	c := table[key]
	c.A += da
	c.B += db
	c.Delta = c.B - c.A
	table[key] = c
}

func avgPlays(ms []model.Moment) float64 {
	if len(ms) == 0 {
		return 0
	}
	total := 0
	for _, m := range ms {
		total += m.PlayCount
	}
	return float64(total) / float64(len(ms))
}

// bestOverlap returns the index of the moment in others sharing the most of
// m's play range, the earliest on ties, or -1 when nothing overlaps.
func bestOverlap(m model.Moment, others []model.Moment) int {
	best, bestLen := -1, 0
	for i, o := range others {
		if n := overlap(m, o); n > bestLen {
			best, bestLen = i, n
		}
	}
	return best
}

// overlap and width measure play-index ranges, which may skip numbers.
func overlap(x, y model.Moment) int {
	lo := max(x.StartPlayIndex, y.StartPlayIndex)
	hi := min(x.EndPlayIndex, y.EndPlayIndex)
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

func width(m model.Moment) int {
	return m.EndPlayIndex - m.StartPlayIndex + 1
}

func refOf(m model.Moment) MomentRef {
	return MomentRef{
		ID:             m.ID,
		TriggerType:    m.TriggerType,
		StartPlayIndex: m.StartPlayIndex,
		EndPlayIndex:   m.EndPlayIndex,
		PlayCount:      m.PlayCount,
		TeamInControl:  m.TeamInControl,
		Importance:     scoring.Normalized(m.Importance),
	}
}
