package model_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/swing/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	Convey("Given score pairs", t, func() {
		Convey("String renders home-away", func() {
			So(model.Score{Home: 5, Away: 2}.String(), ShouldEqual, "5-2")
			So(model.Score{}.String(), ShouldEqual, "0-0")
		})

		Convey("ParseScore round-trips the rendering", func() {
			s, err := model.ParseScore(" 101-99 ")
			So(err, ShouldBeNil)
			So(s, ShouldResemble, model.Score{Home: 101, Away: 99})
			So(s.Differential(), ShouldEqual, 2)
		})

		Convey("ParseScore rejects malformed input", func() {
			_, err := model.ParseScore("5:2")
			So(err, ShouldNotBeNil)
			_, err = model.ParseScore("x-2")
			So(err, ShouldNotBeNil)
		})

		Convey("IsZero only holds for 0-0", func() {
			So(model.Score{}.IsZero(), ShouldBeTrue)
			So(model.Score{Away: 1}.IsZero(), ShouldBeFalse)
		})
	})
}

func TestParseClock(t *testing.T) {
	Convey("Given clock strings", t, func() {
		cases := map[string]int{"12:00": 720, "0:35": 35, "04:07.5": 247, "59": 59}
		for in, want := range cases {
			got, ok := model.ParseClock(in)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, want)
		}

		for _, bad := range []string{"", "ab:cd", "1:75", "-1:00"} {
			_, ok := model.ParseClock(bad)
			So(ok, ShouldBeFalse)
		}
	})
}

func TestTriggerType(t *testing.T) {
	Convey("Given the trigger catalogue", t, func() {
		Convey("Hard triggers are exactly FLIP, TIE, HIGH_IMPACT and CLOSING_CONTROL", func() {
			var hard []model.TriggerType
			for _, tt := range model.AllTriggers {
				if tt.IsHard() {
					hard = append(hard, tt)
				}
			}
			So(hard, ShouldResemble, []model.TriggerType{
				model.TriggerFlip, model.TriggerTie, model.TriggerHighImpact, model.TriggerClosingControl,
			})
		})

		Convey("Precedence follows the catalogue order", func() {
			for i := 1; i < len(model.AllTriggers); i++ {
				So(model.AllTriggers[i-1].Precedence(), ShouldBeLessThanOrEqualTo, model.AllTriggers[i].Precedence())
			}
			So(model.TriggerLeadBuild.Precedence(), ShouldEqual, model.TriggerCut.Precedence())
		})

		Convey("Unknown names are not valid", func() {
			So(model.TriggerType("SWING").Valid(), ShouldBeFalse)
			So(model.TriggerOpener.Valid(), ShouldBeTrue)
		})
	})
}

func TestMoment(t *testing.T) {
	Convey("Given a moment in the third period of four", t, func() {
		m := model.Moment{ID: "m004", StartPlayIndex: 10, EndPlayIndex: 20, PeriodStart: 3, StartPos: 4}

		So(m.Half(4), ShouldEqual, 2)
		So(model.Moment{PeriodStart: 2}.Half(4), ShouldEqual, 1)
		So(model.Moment{PeriodStart: 5}.Half(4), ShouldEqual, 2)
		So(m.Contains(10), ShouldBeTrue)
		So(m.Contains(21), ShouldBeFalse)

		Convey("Slice positions are not serialised", func() {
			raw, err := json.Marshal(m)
			So(err, ShouldBeNil)
			So(string(raw), ShouldNotContainSubstring, "StartPos")
			So(string(raw), ShouldContainSubstring, `"score_start":{"home":0,"away":0}`)
		})
	})
}

func TestSide(t *testing.T) {
	Convey("Opponent swaps home and away", t, func() {
		So(model.SideHome.Opponent(), ShouldEqual, model.SideAway)
		So(model.SideAway.Opponent(), ShouldEqual, model.SideHome)
		So(model.SideNone.Opponent(), ShouldEqual, model.SideNone)
	})
}
