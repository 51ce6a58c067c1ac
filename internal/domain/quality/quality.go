// Package quality runs advisory heuristics over a committed version.
// Flags never block a version from being active.
package quality

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/model"
)

// Check names.
const (
	CheckTierWithoutScore  = "tier_change_without_score"
	CheckPeriodClock       = "period_clock_inconsistency"
	CheckHighPeriodDensity = "high_period_density"
	CheckBudgetFloor       = "budget_floor_exceeded"
	CheckLongMoment        = "long_moment"
)

const (
	defaultLongMomentShare = 0.4
	defaultDensityMultiple = 2.0
	minDensityFlagMoments  = 3
)

// flagNamespace scopes the deterministic flag ids.
var flagNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/okian/swing/quality"))

// Input is one committed version with the data the checks read.
type Input struct {
	Version model.PayloadVersion
	Moments []model.Moment
	Summary model.RunSummary
}

// Checker evaluates versions against one sport profile.
type Checker struct {
	profile         config.SportProfile
	longShare       float64
	densityMultiple float64
}

// Option configures a Checker.
type Option func(*Checker)

// WithLongMomentShare sets the share of all plays above which a moment is long.
func WithLongMomentShare(share float64) Option {
	return func(c *Checker) {
		if share > 0 && share <= 1 {
			c.longShare = share
		}
	}
}

// NewChecker creates a checker for profile.
func NewChecker(profile config.SportProfile, opts ...Option) *Checker {
	c := &Checker{profile: profile, longShare: defaultLongMomentShare, densityMultiple: defaultDensityMultiple}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run returns the flags for in, warnings first, each group in timeline order.
func (c *Checker) Run(in Input) []model.QualityFlag {
	flags := []model.QualityFlag{}
	flags = append(flags, c.tierWithoutScore(in)...)
	flags = append(flags, c.periodClock(in)...)
	flags = append(flags, c.periodDensity(in)...)
	flags = append(flags, c.budgetFloor(in)...)
	flags = append(flags, c.longMoments(in)...)
	return flags
}

// tierWithoutScore flags moments whose trigger claims a control change the
// score never shows.
func (c *Checker) tierWithoutScore(in Input) []model.QualityFlag {
	var out []model.QualityFlag
	for _, m := range in.Moments {
		switch m.TriggerType {
		case model.TriggerFlip, model.TriggerTie, model.TriggerLeadBuild, model.TriggerCut:
		default:
			continue
		}
		if m.ScoreStart != m.ScoreEnd {
			continue
		}
		out = append(out, newFlag(in.Version, CheckTierWithoutScore, model.SeverityWarn,
			"Tier change without score",
			fmt.Sprintf("%s moment %s keeps the score at %s", m.TriggerType, m.ID, m.ScoreEnd),
			m.ID))
	}
	return out
}

// periodClock flags adjacent moments whose period or clock runs backwards.
func (c *Checker) periodClock(in Input) []model.QualityFlag {
	var out []model.QualityFlag
	for i, m := range in.Moments {
		if m.PeriodEnd < m.PeriodStart {
			out = append(out, newFlag(in.Version, CheckPeriodClock, model.SeverityWarn,
				"Period runs backwards",
				fmt.Sprintf("moment %s starts in period %d and ends in period %d", m.ID, m.PeriodStart, m.PeriodEnd),
				m.ID))
		}
		if i == 0 {
			continue
		}
		prev := in.Moments[i-1]
		switch {
		case m.PeriodStart < prev.PeriodEnd:
			out = append(out, newFlag(in.Version, CheckPeriodClock, model.SeverityWarn,
				"Period runs backwards",
				fmt.Sprintf("moment %s starts in period %d after %s ended in period %d", m.ID, m.PeriodStart, prev.ID, prev.PeriodEnd),
				prev.ID, m.ID))
		case m.PeriodStart == prev.PeriodEnd && c.clockBackwards(prev.ClockEnd, m.ClockStart):
			out = append(out, newFlag(in.Version, CheckPeriodClock, model.SeverityWarn,
				"Clock runs backwards",
				fmt.Sprintf("moment %s starts at %s after %s ended at %s in period %d", m.ID, m.ClockStart, prev.ID, prev.ClockEnd, m.PeriodStart),
				prev.ID, m.ID))
		}
	}
	return out
}

func (c *Checker) clockBackwards(before, after string) bool {
	b, okB := model.ParseClock(before)
	a, okA := model.ParseClock(after)
	if !okB || !okA {
		return false
	}
	if c.profile.CountsUp() {
		return a < b
	}
	return a > b
}

// periodDensity flags periods holding far more moments than the average.
func (c *Checker) periodDensity(in Input) []model.QualityFlag {
	if len(in.Moments) == 0 {
		return nil
	}
	byPeriod := map[int][]string{}
	for _, m := range in.Moments {
		byPeriod[m.PeriodStart] = append(byPeriod[m.PeriodStart], m.ID)
	}
	limit := c.profile.HalfDistribution.MaxPerPeriod
	if limit <= 0 {
		avg := float64(len(in.Moments)) / float64(len(byPeriod))
		limit = int(math.Ceil(avg * c.densityMultiple))
	}

	periods := make([]int, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	var out []model.QualityFlag
	for _, p := range periods {
		ids := byPeriod[p]
		if len(ids) <= limit || len(ids) < minDensityFlagMoments {
			continue
		}
		out = append(out, newFlag(in.Version, CheckHighPeriodDensity, model.SeverityInfo,
			"High moment density",
			fmt.Sprintf("period %d holds %d of %d moments (limit %d)", p, len(ids), len(in.Moments), limit),
			ids...))
	}
	return out
}

// budgetFloor notes runs where hard triggers kept the count above budget.
func (c *Checker) budgetFloor(in Input) []model.QualityFlag {
	if in.Summary.Budget <= 0 || len(in.Moments) <= in.Summary.Budget {
		return nil
	}
	return []model.QualityFlag{newFlag(in.Version, CheckBudgetFloor, model.SeverityInfo,
		"Budget exceeded at hard-trigger floor",
		fmt.Sprintf("%d moments against a budget of %d with %d hard triggers", len(in.Moments), in.Summary.Budget, in.Summary.HardTriggerCount))}
}

// longMoments notes moments that swallow a large share of the game.
func (c *Checker) longMoments(in Input) []model.QualityFlag {
	total := in.Version.EventCount
	if total == 0 {
		for _, m := range in.Moments {
			total += m.PlayCount
		}
	}
	if total == 0 || len(in.Moments) < 2 {
		return nil
	}
	var out []model.QualityFlag
	for _, m := range in.Moments {
		share := float64(m.PlayCount) / float64(total)
		if share <= c.longShare {
			continue
		}
		out = append(out, newFlag(in.Version, CheckLongMoment, model.SeverityInfo,
			"Long moment",
			fmt.Sprintf("moment %s covers %d of %d plays (%.0f%%)", m.ID, m.PlayCount, total, share*100),
			m.ID))
	}
	return out
}

// FlagID derives a stable id from the version, check and related moments.
func FlagID(v model.PayloadVersion, check string, momentIDs []string) string {
	key := strings.Join([]string{v.GameID, strconv.Itoa(v.VersionNumber), check, strings.Join(momentIDs, ",")}, "|")
	return uuid.NewSHA1(flagNamespace, []byte(key)).String()
}

func newFlag(v model.PayloadVersion, check string, sev model.Severity, title, msg string, ids ...string) model.QualityFlag {
	if ids == nil {
		ids = []string{}
	}
	return model.QualityFlag{
		FlagID:           FlagID(v, check, ids),
		Check:            check,
		Severity:         sev,
		Title:            title,
		Message:          msg,
		RelatedMomentIDs: ids,
	}
}
