// Package merge narrows candidate moments to the per-game budget and
// distribution targets by repeatedly merging the least significant candidate
// into a chronological neighbour.
package merge

import (
	"sort"

	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/moment"
	"github.com/okian/swing/internal/domain/validate"
)

// Merge reasons recorded on every absorption.
const (
	ReasonInvalid       = "invalid"
	ReasonBudget        = "budget"
	ReasonPeriodDensity = "period_density"
	ReasonHalfShare     = "half_share"
)

// Significance ranks; lower merges first.
const (
	rankInvalid = iota
	rankRoutine
	rankLead
	rankHard
)

// Record is one displacement: AbsorbedID was merged into AbsorbingID.
type Record struct {
	Step        int    `json:"step"`
	AbsorbedID  string `json:"absorbed_id"`
	AbsorbingID string `json:"absorbing_id"`
	Reason      string `json:"reason"`
	// Promoted is set when the absorber took over the absorbed hard trigger type.
	Promoted bool `json:"promoted,omitempty"`
	// Subsumed is set when a hard candidate was folded into another hard one;
	// its trigger type survives on the absorber's SubsumedTriggers.
	Subsumed bool `json:"subsumed,omitempty"`
}

// Result is the engine output.
type Result struct {
	Moments  []model.Moment
	Verdicts []validate.Verdict // aligned with Moments
	// Initial verdicts, aligned with the candidates passed to Run.
	InitialVerdicts []validate.Verdict
	Records         []Record
	Budget          int
	HardCount       int
	Rejected        int
}

// Engine merges candidates over one timeline.
type Engine struct {
	tl         *moment.Timeline
	validator  *validate.Validator
	budget     int
	target     config.DistributionTarget
	regulation int
}

// NewEngine builds an engine whose defaults come from the timeline's sport profile.
func NewEngine(tl *moment.Timeline, opts ...Option) *Engine {
	e := &Engine{
		tl:         tl,
		validator:  validate.New(tl),
		budget:     tl.Profile.MomentBudget.Budget(tl.Len()),
		target:     tl.Profile.HalfDistribution,
		regulation: tl.Profile.RegulationPeriods,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Budget is the moment budget in effect.
func (e *Engine) Budget() int { return e.budget }

// Run merges candidates until they are all valid, within budget and within the
// distribution targets, or no legal merge remains. Candidates are not mutated.
func (e *Engine) Run(candidates []model.Moment) (Result, error) {
	ms := make([]model.Moment, len(candidates))
	copy(ms, candidates)

	res := Result{Budget: e.budget}
	res.InitialVerdicts = e.validator.All(ms)
	for i, m := range ms {
		if m.TriggerType.IsHard() {
			res.HardCount++
		}
		if !res.InitialVerdicts[i].Passed {
			res.Rejected++
		}
	}

	for step := 1; ; step++ {
		verdicts := e.validator.All(ms)

		if i, ok := least(ms, verdicts, nil, rankInvalid); ok {
			if len(ms) == 1 {
				return res, &StuckError{MomentID: ms[i].ID, Issues: verdicts[i].Issues}
			}
			j, ok := target(ms, i, verdicts[i], nil)
			if !ok {
				return res, &StuckError{MomentID: ms[i].ID, Issues: verdicts[i].Issues}
			}
			reason := ReasonInvalid + ":" + string(verdicts[i].Issues[0])
			ms = e.merge(ms, i, j, step, reason, &res)
			continue
		}

		if len(ms) > e.budget {
			if i, ok := least(ms, verdicts, nil, rankLead); ok {
				j, _ := target(ms, i, verdicts[i], nil)
				ms = e.merge(ms, i, j, step, ReasonBudget, &res)
				continue
			}
		}

		if i, j, reason, ok := e.distribution(ms, verdicts); ok {
			ms = e.merge(ms, i, j, step, reason, &res)
			continue
		}
		break
	}

	res.Moments = ms
	res.Verdicts = e.validator.All(ms)
	return res, nil
}

// distribution finds a merge that reduces an over-full period or half.
func (e *Engine) distribution(ms []model.Moment, verdicts []validate.Verdict) (int, int, string, bool) {
	if limit := e.target.MaxPerPeriod; limit > 0 {
		counts := map[int]int{}
		for _, m := range ms {
			counts[m.PeriodStart]++
		}
		for _, period := range sortedPeriods(counts) {
			if counts[period] <= limit {
				continue
			}
			inScope := func(k int) bool { return ms[k].PeriodStart == period }
			if i, j, ok := scopedMerge(ms, verdicts, inScope); ok {
				return i, j, ReasonPeriodDensity, true
			}
		}
	}

	share := e.target.MaxHalfShare
	if share <= 0 || len(ms) <= e.target.MinMoments {
		return 0, 0, "", false
	}
	halves := [3]int{}
	for _, m := range ms {
		halves[m.Half(e.regulation)]++
	}
	for half := 1; half <= 2; half++ {
		c := halves[half]
		if c == len(ms) || float64(c)/float64(len(ms)) <= share {
			continue
		}
		inScope := func(k int) bool { return ms[k].Half(e.regulation) == half }
		if i, j, ok := scopedMerge(ms, verdicts, inScope); ok {
			return i, j, ReasonHalfShare, true
		}
	}
	return 0, 0, "", false
}

// scopedMerge picks the least significant in-scope candidate and a target that
// lowers the scope count: the previous neighbour always does, the next one only
// when it is in scope too.
func scopedMerge(ms []model.Moment, verdicts []validate.Verdict, inScope func(int) bool) (int, int, bool) {
	blocked := map[int]bool{}
	for {
		eligible := func(k int) bool { return inScope(k) && !blocked[k] }
		i, ok := least(ms, verdicts, eligible, rankLead)
		if !ok {
			return 0, 0, false
		}
		allowed := func(j int) bool { return j == i-1 || inScope(j) }
		if j, ok := target(ms, i, verdicts[i], allowed); ok {
			return i, j, true
		}
		blocked[i] = true
	}
}

// merge folds ms[i] into ms[j] (adjacent) and returns the new slice.
func (e *Engine) merge(ms []model.Moment, i, j, step int, reason string, res *Result) []model.Moment {
	absorbed, absorber := ms[i], ms[j]
	lo, hi := i, j
	if lo > hi {
		lo, hi = hi, lo
	}

	trigger := absorber.TriggerType
	promoted := absorbed.TriggerType.IsHard() && !absorber.TriggerType.IsHard()
	if promoted {
		trigger = absorbed.TriggerType
	}

	merged := e.tl.Span(absorber.ID, trigger, ms[lo].StartPos, ms[hi].EndPos)
	merged.AbsorbedIDs = make([]string, 0, len(absorber.AbsorbedIDs)+len(absorbed.AbsorbedIDs)+1)
	merged.AbsorbedIDs = append(merged.AbsorbedIDs, absorber.AbsorbedIDs...)
	merged.AbsorbedIDs = append(merged.AbsorbedIDs, absorbed.ID)
	merged.AbsorbedIDs = append(merged.AbsorbedIDs, absorbed.AbsorbedIDs...)

	subsumed := absorbed.TriggerType.IsHard() && !promoted
	merged.SubsumedTriggers = append(merged.SubsumedTriggers, absorber.SubsumedTriggers...)
	if subsumed {
		merged.SubsumedTriggers = append(merged.SubsumedTriggers, absorbed.TriggerType)
	}
	merged.SubsumedTriggers = append(merged.SubsumedTriggers, absorbed.SubsumedTriggers...)

	res.Records = append(res.Records, Record{
		Step:        step,
		AbsorbedID:  absorbed.ID,
		AbsorbingID: absorber.ID,
		Reason:      reason,
		Promoted:    promoted,
		Subsumed:    subsumed,
	})

	out := make([]model.Moment, 0, len(ms)-1)
	out = append(out, ms[:lo]...)
	out = append(out, merged)
	return append(out, ms[hi+1:]...)
}

func rank(m model.Moment, v validate.Verdict) int {
	switch {
	case !v.Passed:
		return rankInvalid
	case m.TriggerType.IsHard():
		return rankHard
	case m.TriggerType == model.TriggerLeadBuild || m.TriggerType == model.TriggerCut:
		return rankLead
	default:
		return rankRoutine
	}
}

// least returns the least significant candidate with rank <= maxRank:
// lowest rank, then fewest plays, then earliest.
func least(ms []model.Moment, verdicts []validate.Verdict, eligible func(int) bool, maxRank int) (int, bool) {
	best, bestRank := -1, 0
	for k := range ms {
		if eligible != nil && !eligible(k) {
			continue
		}
		r := rank(ms[k], verdicts[k])
		if r > maxRank {
			continue
		}
		if best == -1 || r < bestRank || (r == bestRank && ms[k].PlayCount < ms[best].PlayCount) {
			best, bestRank = k, r
		}
	}
	return best, best >= 0
}

// target picks the neighbour giving the smaller merged play count, the previous
// one on ties. A scoreless start can only be fixed by merging backwards.
func target(ms []model.Moment, i int, v validate.Verdict, allowed func(int) bool) (int, bool) {
	ok := func(j int) bool {
		return j >= 0 && j < len(ms) && (allowed == nil || allowed(j))
	}
	if v.Has(validate.IssueStartsScoreless) {
		return i - 1, ok(i - 1)
	}
	best := -1
	for _, j := range []int{i - 1, i + 1} {
		if !ok(j) {
			continue
		}
		if best == -1 || ms[j].PlayCount < ms[best].PlayCount {
			best = j
		}
	}
	return best, best >= 0
}

func sortedPeriods(counts map[int]int) []int {
	out := make([]int, 0, len(counts))
	for p := range counts {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
