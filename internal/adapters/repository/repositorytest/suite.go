// Package repositorytest holds the behaviour every repository.Store must share.
package repositorytest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/swing/internal/adapters/repository"
	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/pipeline"
	. "github.com/smartystreets/goconvey/convey"
)

// Bundle generates a small real bundle for gameID: 0-0, 2-0, 2-2, 5-2.
func Bundle(gameID, source string) repository.Bundle {
	scores := [][2]int{{0, 0}, {2, 0}, {2, 0}, {2, 2}, {2, 2}, {5, 2}, {5, 2}}
	events := make([]model.PlayEvent, len(scores))
	for i, s := range scores {
		events[i] = model.PlayEvent{GameID: gameID, PlayIndex: i, Period: 1, HomeScore: s[0], AwayScore: s[1]}
	}
	out, err := pipeline.Generate(model.Game{ID: gameID, Sport: "basketball", Events: events}, config.DefaultProfiles())
	if err != nil {
		panic(fmt.Sprintf("repositorytest: generate %s: %v", gameID, err))
	}
	return repository.Bundle{
		Version: model.PayloadVersion{
			GameID:           gameID,
			ContentHash:      out.ContentHash,
			EventCount:       len(events),
			GenerationSource: source,
			PipelineRunID:    "run-" + gameID,
		},
		Sport:   out.Sport,
		Moments: out.Moments,
		Traces:  out.Traces,
		Summary: out.Summary,
	}
}

// Run exercises store. newStore must return an empty store.
func Run(t *testing.T, newStore func() repository.Store) {
	ctx := context.Background()

	Convey("Given an empty version store", t, func() {
		store := newStore()
		Reset(func() { _ = store.Close() })

		Convey("A game without versions has no active version and an empty history", func() {
			_, err := store.Active(ctx, "g1")
			So(errors.Is(err, repository.ErrNoActiveVersion), ShouldBeTrue)

			versions, err := store.List(ctx, "g1")
			So(err, ShouldBeNil)
			So(versions, ShouldBeEmpty)
		})

		Convey("An invalid bundle is rejected and nothing is written", func() {
			b := Bundle("g1", model.SourceManual)
			b.Moments = nil
			_, err := store.Commit(ctx, b)
			So(errors.Is(err, repository.ErrInvalidBundle), ShouldBeTrue)

			versions, err := store.List(ctx, "g1")
			So(err, ShouldBeNil)
			So(versions, ShouldBeEmpty)
		})

		Convey("When two versions are committed", func() {
			first, err := store.Commit(ctx, Bundle("g1", model.SourceManual))
			So(err, ShouldBeNil)
			second, err := store.Commit(ctx, Bundle("g1", model.SourceRegenerate))
			So(err, ShouldBeNil)

			Convey("Version numbers are monotonic and the latest is active", func() {
				So(first.VersionNumber, ShouldEqual, 1)
				So(second.VersionNumber, ShouldEqual, 2)
				So(second.IsActive, ShouldBeTrue)
				So(second.CreatedAt.IsZero(), ShouldBeFalse)

				active, err := store.Active(ctx, "g1")
				So(err, ShouldBeNil)
				So(active.Version.VersionNumber, ShouldEqual, 2)
				So(active.Version.GenerationSource, ShouldEqual, model.SourceRegenerate)
			})

			Convey("The history marks exactly one version active", func() {
				versions, err := store.List(ctx, "g1")
				So(err, ShouldBeNil)
				So(len(versions), ShouldEqual, 2)
				So(versions[0].IsActive, ShouldBeFalse)
				So(versions[1].IsActive, ShouldBeTrue)
				So(versions[0].MomentCount, ShouldEqual, len(Bundle("g1", "").Moments))
			})

			Convey("Older versions stay readable with their full payload", func() {
				b, err := store.Get(ctx, "g1", 1)
				So(err, ShouldBeNil)
				want := Bundle("g1", model.SourceManual)
				So(b.Version.ContentHash, ShouldEqual, want.Version.ContentHash)
				So(b.Sport, ShouldEqual, "basketball")
				So(b.Summary, ShouldResemble, want.Summary)
				So(len(b.Moments), ShouldEqual, len(want.Moments))
				So(b.Moments[0].ID, ShouldEqual, want.Moments[0].ID)
				So(b.Moments[len(b.Moments)-1].ScoreEnd, ShouldResemble, want.Moments[len(want.Moments)-1].ScoreEnd)
				So(len(b.Traces), ShouldEqual, len(want.Traces))
				So(b.Traces[0].MomentID, ShouldEqual, want.Traces[0].MomentID)
				So(b.Traces[0].Signals.Detail.Kind(), ShouldEqual, want.Traces[0].Signals.Detail.Kind())
				So(len(b.Traces[0].Actions), ShouldEqual, len(want.Traces[0].Actions))
			})

			Convey("Unknown versions are not found", func() {
				_, err := store.Get(ctx, "g1", 3)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = store.Get(ctx, "g2", 1)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Stats count games and versions", func() {
				_, err := store.Commit(ctx, Bundle("g2", model.SourceBatch))
				So(err, ShouldBeNil)
				st, err := store.Stats(ctx)
				So(err, ShouldBeNil)
				So(st, ShouldResemble, repository.Stats{Games: 2, Versions: 3, ActiveGames: 2})
			})
		})

		Convey("Concurrent commits for one game all persist and the last one is active", func() {
			const n = 8
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := store.Commit(ctx, Bundle("g1", model.SourceBatch)); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				So(err, ShouldBeNil)
			}

			versions, err := store.List(ctx, "g1")
			So(err, ShouldBeNil)
			So(len(versions), ShouldEqual, n)
			activeCount := 0
			for i, v := range versions {
				So(v.VersionNumber, ShouldEqual, i+1)
				if v.IsActive {
					activeCount++
				}
			}
			So(activeCount, ShouldEqual, 1)
			So(versions[n-1].IsActive, ShouldBeTrue)
		})
	})
}
