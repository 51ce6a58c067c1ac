package trigger_test

import (
	"testing"

	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/ladder"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/runs"
	"github.com/okian/swing/internal/domain/trigger"
	. "github.com/smartystreets/goconvey/convey"
)

type play struct {
	period     int
	home, away int
	kind       string
}

func detect(profile config.SportProfile, plays ...play) []model.Trigger {
	events := make([]model.PlayEvent, len(plays))
	for i, p := range plays {
		period := p.period
		if period == 0 {
			period = 1
		}
		events[i] = model.PlayEvent{
			PlayIndex: i, Period: period, HomeScore: p.home, AwayScore: p.away, EventKind: p.kind,
		}
	}
	states := ladder.NewTracker(profile.TierThresholds).Track(events)
	return trigger.NewDetector(profile).Detect(events, states, runs.Detect(events, profile.MinRunPoints))
}

func types(ts []model.Trigger) []model.TriggerType {
	out := make([]model.TriggerType, len(ts))
	for i, t := range ts {
		out[i] = t.Type
	}
	return out
}

func basketball() config.SportProfile {
	p := config.DefaultProfiles()["basketball"]
	p.LateGameProgressThreshold = 1
	return p
}

func TestDetector_Detect(t *testing.T) {
	Convey("Given the basketball ladder [3,6,10,16]", t, func() {
		p := basketball()

		Convey("A home lead tied then extended is OPENER, NEUTRAL, TIE, LEAD_BUILD", func() {
			got := types(detect(p, play{home: 0}, play{home: 2}, play{home: 2, away: 2}, play{home: 5, away: 2}))
			So(got, ShouldResemble, []model.TriggerType{
				model.TriggerOpener, model.TriggerNeutral, model.TriggerTie, model.TriggerLeadBuild,
			})
		})

		Convey("An away lead tied then overtaken by home is a FLIP", func() {
			got := types(detect(p, play{}, play{away: 2}, play{home: 2, away: 2}, play{home: 5, away: 2}))
			So(got[3], ShouldEqual, model.TriggerFlip)
		})

		Convey("A direct lead change is a FLIP", func() {
			got := types(detect(p, play{}, play{away: 2}, play{home: 3, away: 2}))
			So(got[2], ShouldEqual, model.TriggerFlip)
		})

		Convey("A lead shrinking a tier without changing hands is a CUT", func() {
			got := types(detect(p, play{}, play{home: 7}, play{home: 7, away: 2}))
			So(got[1], ShouldEqual, model.TriggerLeadBuild)
			So(got[2], ShouldEqual, model.TriggerCut)
		})

		Convey("High impact kinds fire regardless of score", func() {
			got := types(detect(p, play{}, play{home: 2}, play{home: 2, kind: "Ejection"}))
			So(got[2], ShouldEqual, model.TriggerHighImpact)
		})

		Convey("FLIP outranks HIGH_IMPACT on the same event", func() {
			got := types(detect(p, play{}, play{away: 2}, play{home: 3, away: 2, kind: "review"}))
			So(got[2], ShouldEqual, model.TriggerFlip)
		})

		Convey("The first event of every period is an OPENER", func() {
			got := types(detect(p, play{period: 1}, play{period: 1}, play{period: 2}, play{period: 2}))
			So(got, ShouldResemble, []model.TriggerType{
				model.TriggerOpener, model.TriggerNeutral, model.TriggerOpener, model.TriggerNeutral,
			})
		})

		Convey("Every event receives exactly one trigger", func() {
			ts := detect(p, play{}, play{home: 2}, play{home: 4}, play{home: 4, away: 3})
			So(len(ts), ShouldEqual, 4)
			for i, tr := range ts {
				So(tr.Position, ShouldEqual, i)
				So(tr.Type.Valid(), ShouldBeTrue)
			}
		})
	})

	Convey("Given a late-game threshold and a streak requirement", t, func() {
		p := config.DefaultProfiles()["basketball"]
		p.LateGameProgressThreshold = 0.5
		p.ClosingMinStreak = 3

		plays := []play{{}, {home: 2}, {home: 2}, {home: 2}, {home: 2}, {home: 2}, {home: 2}, {home: 2}}
		got := types(detect(p, plays...))

		Convey("CLOSING_CONTROL fires once, at the first qualifying event", func() {
			So(got[3], ShouldEqual, model.TriggerClosingControl)
			count := 0
			for _, tt := range got {
				if tt == model.TriggerClosingControl {
					count++
				}
			}
			So(count, ShouldEqual, 1)
		})
	})

	Convey("Given a run that exceeds the minimum", t, func() {
		p := basketball()
		p.MinRunPoints = 4
		ts := detect(p, play{}, play{home: 2}, play{home: 5}, play{home: 5, away: 2})

		Convey("It is attached to the trigger that concludes it", func() {
			So(ts[2].Run, ShouldNotBeNil)
			So(ts[2].Run.Points, ShouldEqual, 5)
			So(ts[1].Run, ShouldBeNil)
		})
	})
}
