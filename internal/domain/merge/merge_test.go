package merge_test

import (
	"errors"
	"testing"

	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/ladder"
	"github.com/okian/swing/internal/domain/merge"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/moment"
	"github.com/okian/swing/internal/domain/runs"
	"github.com/okian/swing/internal/domain/trigger"
	. "github.com/smartystreets/goconvey/convey"
)

type play struct {
	period     int
	home, away int
	kind       string
}

func candidates(plays ...play) (*moment.Timeline, []model.Moment) {
	p := config.DefaultProfiles()["basketball"]
	p.LateGameProgressThreshold = 1
	p.ClosingMinStreak = 1000

	events := make([]model.PlayEvent, len(plays))
	for i, pl := range plays {
		period := pl.period
		if period == 0 {
			period = 1
		}
		events[i] = model.PlayEvent{PlayIndex: i, Period: period, HomeScore: pl.home, AwayScore: pl.away, EventKind: pl.kind}
	}
	tl := &moment.Timeline{
		Events:  events,
		States:  ladder.NewTracker(p.TierThresholds).Track(events),
		Runs:    runs.Detect(events, p.MinRunPoints),
		Profile: p,
	}
	triggers := trigger.NewDetector(p).Detect(tl.Events, tl.States, tl.Runs)
	return tl, moment.Build(tl, triggers)
}

func ids(ms []model.Moment) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func assertPartition(ms []model.Moment, last int) {
	So(ms[0].StartPlayIndex, ShouldEqual, 0)
	for i := 1; i < len(ms); i++ {
		So(ms[i].StartPlayIndex, ShouldEqual, ms[i-1].EndPlayIndex+1)
		So(ms[i].ScoreStart, ShouldResemble, ms[i-1].ScoreEnd)
		So(ms[i].ScoreStart.IsZero(), ShouldBeFalse)
	}
	So(ms[len(ms)-1].EndPlayIndex, ShouldEqual, last)
}

func TestEngine_TieThenLead(t *testing.T) {
	Convey("Given the score sequence 0-0, 2-0, 2-2, 5-2", t, func() {
		tl, cands := candidates(
			play{}, play{home: 2}, play{home: 2, kind: "miss"},
			play{home: 2, away: 2}, play{home: 2, away: 2, kind: "miss"},
			play{home: 5, away: 2}, play{home: 5, away: 2, kind: "miss"},
		)
		res, err := merge.NewEngine(tl).Run(cands)
		So(err, ShouldBeNil)

		Convey("A TIE moment ends at 2-2 and a LEAD_BUILD follows", func() {
			So(len(res.Moments), ShouldEqual, 3)
			tie := res.Moments[1]
			So(tie.TriggerType, ShouldEqual, model.TriggerTie)
			So(tie.ScoreEnd.String(), ShouldEqual, "2-2")
			So(res.Moments[2].TriggerType, ShouldEqual, model.TriggerLeadBuild)
			So(res.Moments[2].ScoreEnd.String(), ShouldEqual, "5-2")
			assertPartition(res.Moments, 6)
		})
	})

	Convey("Given the away side led before the tie", t, func() {
		tl, cands := candidates(
			play{}, play{away: 2}, play{away: 2, kind: "miss"},
			play{home: 2, away: 2}, play{home: 2, away: 2, kind: "miss"},
			play{home: 5, away: 2}, play{home: 5, away: 2, kind: "miss"},
		)
		res, err := merge.NewEngine(tl).Run(cands)
		So(err, ShouldBeNil)

		Convey("The moment reaching 5-2 is a FLIP", func() {
			So(res.Moments[len(res.Moments)-1].TriggerType, ShouldEqual, model.TriggerFlip)
		})
	})
}

func TestEngine_BudgetAndHardFloor(t *testing.T) {
	Convey("Given 14 candidates with 4 hard triggers and a budget of 6", t, func() {
		tl, cands := candidates(
			play{}, play{home: 2}, // OPENER
			play{home: 5}, play{home: 5}, // LEAD_BUILD
			play{home: 8}, play{home: 8}, // LEAD_BUILD
			play{home: 8, kind: "injury"}, play{home: 8}, // HIGH_IMPACT
			play{home: 12}, play{home: 12}, // LEAD_BUILD
			play{home: 12, away: 4}, play{home: 12, away: 4}, // CUT
			play{home: 12, away: 7}, play{home: 12, away: 9}, // CUT
			play{home: 12, away: 12}, play{home: 12, away: 12}, // TIE
			play{home: 12, away: 14}, play{home: 12, away: 14}, // FLIP
			play{home: 12, away: 17}, play{home: 12, away: 17}, // LEAD_BUILD
			play{home: 12, away: 20}, play{home: 12, away: 20}, // LEAD_BUILD
			play{home: 12, away: 20, kind: "review"}, play{home: 12, away: 20}, // HIGH_IMPACT
			play{home: 17, away: 20}, play{home: 17, away: 20}, // CUT
			play{home: 17, away: 24}, play{home: 17, away: 24}, // LEAD_BUILD
		)
		So(len(cands), ShouldEqual, 14)

		res, err := merge.NewEngine(tl,
			merge.WithBudget(6),
			merge.WithDistribution(config.DistributionTarget{}),
		).Run(cands)
		So(err, ShouldBeNil)

		Convey("The output fits the budget", func() {
			So(len(res.Moments), ShouldBeLessThanOrEqualTo, 6)
			So(res.HardCount, ShouldEqual, 4)
			So(res.Rejected, ShouldEqual, 0)
			assertPartition(res.Moments, 27)
		})

		Convey("Every hard trigger survives as its own moment", func() {
			byID := map[string]model.Moment{}
			for _, m := range res.Moments {
				byID[m.ID] = m
			}
			for id, tt := range map[string]model.TriggerType{
				"m004": model.TriggerHighImpact,
				"m008": model.TriggerTie,
				"m009": model.TriggerFlip,
				"m012": model.TriggerHighImpact,
			} {
				m, ok := byID[id]
				So(ok, ShouldBeTrue)
				So(m.TriggerType, ShouldEqual, tt)
			}
			for _, r := range res.Records {
				So(r.AbsorbedID, ShouldNotBeIn, "m004", "m008", "m009", "m012")
				So(r.Reason, ShouldEqual, merge.ReasonBudget)
			}
		})

		Convey("Each merge is recorded once", func() {
			So(len(res.Records), ShouldEqual, 14-len(res.Moments))
		})

		Convey("A budget below the hard count stops at the hard floor", func() {
			floor, err := merge.NewEngine(tl, merge.WithBudget(2),
				merge.WithDistribution(config.DistributionTarget{})).Run(cands)
			So(err, ShouldBeNil)
			So(len(floor.Moments), ShouldEqual, 4)
			for _, m := range floor.Moments {
				So(m.TriggerType.IsHard(), ShouldBeTrue)
			}
		})
	})
}

func TestEngine_InvalidCandidates(t *testing.T) {
	Convey("Given a scoreless short opener followed by a scoreless period start", t, func() {
		tl, cands := candidates(
			play{period: 1}, play{period: 1},
			play{period: 2}, play{period: 2, home: 2}, play{period: 2, home: 2},
		)
		So(ids(cands), ShouldResemble, []string{"m001", "m002"})

		res, err := merge.NewEngine(tl).Run(cands)
		So(err, ShouldBeNil)

		Convey("Invalid candidates are merged, not dropped", func() {
			So(ids(res.Moments), ShouldResemble, []string{"m002"})
			So(res.Moments[0].AbsorbedIDs, ShouldResemble, []string{"m001"})
			So(res.Moments[0].PlayCount, ShouldEqual, 5)
			So(res.Rejected, ShouldEqual, 2)
			So(res.Records[0].Reason, ShouldEqual, "invalid:short_opener")
			So(res.Verdicts[0].Passed, ShouldBeTrue)
		})
	})

	Convey("Given a hard trigger at a scoreless start", t, func() {
		tl, cands := candidates(
			play{kind: "block"}, play{},
			play{kind: "injury"}, play{home: 2}, play{home: 2},
		)
		res, err := merge.NewEngine(tl).Run(cands)
		So(err, ShouldBeNil)

		Convey("It merges backwards and the absorber takes the hard type", func() {
			So(len(res.Moments), ShouldEqual, 1)
			So(res.Moments[0].ID, ShouldEqual, "m001")
			So(res.Moments[0].TriggerType, ShouldEqual, model.TriggerHighImpact)
			So(res.Records[0].Promoted, ShouldBeTrue)
			So(res.Records[0].Reason, ShouldEqual, "invalid:starts_scoreless")
		})
	})

	Convey("Given two hard triggers before the first score", t, func() {
		tl, cands := candidates(
			play{}, play{kind: "injury"}, play{},
			play{kind: "ejection"}, play{home: 2}, play{home: 2},
		)
		res, err := merge.NewEngine(tl).Run(cands)
		So(err, ShouldBeNil)

		Convey("The later one folds into the earlier and its trigger is kept", func() {
			So(ids(res.Moments), ShouldResemble, []string{"m002"})
			So(res.Moments[0].TriggerType, ShouldEqual, model.TriggerHighImpact)
			So(res.Moments[0].SubsumedTriggers, ShouldResemble, []model.TriggerType{model.TriggerHighImpact})
			So(res.Moments[0].AbsorbedIDs, ShouldResemble, []string{"m001", "m003"})
			So(res.HardCount, ShouldEqual, 2)
		})

		Convey("Only the hard-into-hard merge is marked subsumed", func() {
			So(res.Records, ShouldHaveLength, 2)
			So(res.Records[0].Subsumed, ShouldBeFalse)
			So(res.Records[1].AbsorbedID, ShouldEqual, "m003")
			So(res.Records[1].Subsumed, ShouldBeTrue)
			So(res.Records[1].Promoted, ShouldBeFalse)
		})
	})

	Convey("Given a single candidate with no narrative change", t, func() {
		tl, cands := candidates(play{}, play{}, play{})
		_, err := merge.NewEngine(tl).Run(cands)

		Convey("The run fails with the accumulated issues", func() {
			So(errors.Is(err, merge.ErrNoMergeTarget), ShouldBeTrue)
			var stuck *merge.StuckError
			So(errors.As(err, &stuck), ShouldBeTrue)
			So(stuck.MomentID, ShouldEqual, "m001")
			So(len(stuck.Issues), ShouldBeGreaterThan, 0)
		})
	})
}

func TestEngine_Distribution(t *testing.T) {
	Convey("Given three candidates in the first period and a cap of two", t, func() {
		tl, cands := candidates(
			play{period: 1}, play{period: 1, home: 2},
			play{period: 1, home: 5}, play{period: 1, home: 5},
			play{period: 1, home: 8}, play{period: 1, home: 8},
			play{period: 2, home: 10}, play{period: 2, home: 10},
		)
		So(len(cands), ShouldEqual, 4)

		res, err := merge.NewEngine(tl,
			merge.WithBudget(10),
			merge.WithDistribution(config.DistributionTarget{MaxPerPeriod: 2}),
		).Run(cands)
		So(err, ShouldBeNil)

		Convey("The least significant candidate of that period is merged", func() {
			So(ids(res.Moments), ShouldResemble, []string{"m002", "m003", "m004"})
			So(res.Records[0].Reason, ShouldEqual, merge.ReasonPeriodDensity)
			So(res.Records[0].AbsorbedID, ShouldEqual, "m001")
		})
	})

	Convey("Given three of four candidates in the second half", t, func() {
		tl, cands := candidates(
			play{period: 1}, play{period: 1, home: 2},
			play{period: 3, home: 2}, play{period: 3, home: 2, kind: "steal"},
			play{period: 3, home: 7}, play{period: 3, home: 7},
			play{period: 3, home: 10}, play{period: 3, home: 10},
		)
		So(len(cands), ShouldEqual, 4)

		res, err := merge.NewEngine(tl,
			merge.WithBudget(10),
			merge.WithDistribution(config.DistributionTarget{MaxHalfShare: 0.5, MinMoments: 2}),
		).Run(cands)
		So(err, ShouldBeNil)

		Convey("Second-half candidates merge until the minimum moment count", func() {
			So(ids(res.Moments), ShouldResemble, []string{"m001", "m004"})
			So(res.Moments[0].EndPlayIndex, ShouldEqual, 3)
			for _, r := range res.Records {
				So(r.Reason, ShouldEqual, merge.ReasonHalfShare)
			}
		})
	})
}
