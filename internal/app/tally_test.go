package service

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/swing/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBatchTally(t *testing.T) {
	Convey("Given a tally for three games with one success", t, func() {
		tally := &batchTally{report: types.BatchReport{Requested: 3, Failures: []types.BatchFailure{}}}
		tally.add("g1", OutcomeSucceeded, nil)

		Convey("Games that never reported are counted as cancelled", func() {
			r := tally.finish(time.Now())
			So(r.Succeeded, ShouldEqual, 1)
			So(r.Cancelled, ShouldEqual, 2)
		})

		Convey("Outcomes arriving after finish are dropped", func() {
			tally.finish(time.Now())
			tally.add("g2", OutcomeFailed, errors.New("late"))

			r := tally.finish(time.Now())
			So(r.Failed, ShouldEqual, 0)
			So(r.Failures, ShouldBeEmpty)
			So(r.Succeeded+r.Cancelled, ShouldEqual, r.Requested)
		})
	})
}
