package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	service "github.com/okian/swing/internal/app"
	"github.com/okian/swing/internal/adapters/repository"
	"github.com/okian/swing/internal/adapters/source"
	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/types"
	"github.com/okian/swing/internal/pipeline"
	"github.com/okian/swing/internal/simulate"
	"github.com/okian/swing/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// exampleGame is 0-0, 2-0, 2-2, 5-2 over seven plays.
func exampleGame(id string) model.Game {
	scores := [][2]int{{0, 0}, {2, 0}, {2, 0}, {2, 2}, {2, 2}, {5, 2}, {5, 2}}
	events := make([]model.PlayEvent, len(scores))
	for i, s := range scores {
		events[i] = model.PlayEvent{PlayIndex: i, Period: 1, HomeScore: s[0], AwayScore: s[1]}
	}
	return model.Game{ID: id, Sport: "basketball", League: "NBA", Date: "2026-02-01", Events: events}
}

// brokenGame repeats a play index.
func brokenGame(id string) model.Game {
	g := exampleGame(id)
	g.Events[3].PlayIndex = 2
	return g
}

func simulated(n int) []model.Game {
	return simulate.Games(config.DefaultProfiles()["basketball"], simulate.Config{
		GameID: "sim", League: "NBA", Date: "2026-02-02", Plays: 120, Seed: 11,
	}, n)
}

func newService(games ...model.Game) (*service.Service, *repository.Memory) {
	store := repository.NewMemory()
	svc := service.New(store, source.NewMemory(games...),
		service.WithWorkerCount(4),
		service.WithQueueSize(2),
	)
	return svc, store
}

func TestService_Generate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service over one playable and one broken game", t, func() {
		svc, store := newService(exampleGame("g1"), brokenGame("bad"))

		Convey("When a game is generated for the first time", func() {
			v, err := svc.Generate(ctx, "g1", service.WithGenerationSource(model.SourceAPI))
			So(err, ShouldBeNil)

			Convey("Then version 1 is active with its provenance", func() {
				So(v.VersionNumber, ShouldEqual, 1)
				So(v.IsActive, ShouldBeTrue)
				So(v.GenerationSource, ShouldEqual, model.SourceAPI)
				So(v.PipelineRunID, ShouldNotBeEmpty)
				So(v.EventCount, ShouldEqual, 7)
				So(v.ContentHash, ShouldHaveLength, 64)
			})

			Convey("Then a second Generate is skipped", func() {
				_, err := svc.Generate(ctx, "g1")
				So(errors.Is(err, service.ErrAlreadyGenerated), ShouldBeTrue)

				h, err := svc.ListVersions(ctx, "g1")
				So(err, ShouldBeNil)
				So(len(h.Versions), ShouldEqual, 1)
			})

			Convey("Then Regenerate adds an identical active version", func() {
				v2, err := svc.Regenerate(ctx, "g1")
				So(err, ShouldBeNil)
				So(v2.VersionNumber, ShouldEqual, 2)
				So(v2.GenerationSource, ShouldEqual, model.SourceRegenerate)
				So(v2.ContentHash, ShouldEqual, v.ContentHash)

				h, err := svc.ListVersions(ctx, "g1")
				So(err, ShouldBeNil)
				So(h.ActiveVersion, ShouldEqual, 2)
				So(h.Versions[0].IsActive, ShouldBeFalse)
			})

			Convey("Then the latest trace explains every moment", func() {
				tb, err := svc.LatestTrace(ctx, "g1")
				So(err, ShouldBeNil)
				So(tb.Version.VersionNumber, ShouldEqual, 1)
				So(tb.Sport, ShouldEqual, "basketball")
				So(len(tb.Traces), ShouldEqual, len(tb.Moments))
				So(tb.Summary.FinalMoments, ShouldEqual, len(tb.Moments))
				So(tb.Summary.EventCount, ShouldEqual, 7)

				So(tb.Moments, ShouldNotBeEmpty)
				So(tb.Moments[len(tb.Moments)-1].ScoreEnd, ShouldResemble, model.Score{Home: 5, Away: 2})
			})
		})

		Convey("When the pipeline rejects the input", func() {
			_, err := svc.Generate(ctx, "bad")

			Convey("Then the input error surfaces and nothing is committed", func() {
				So(errors.Is(err, pipeline.ErrInput), ShouldBeTrue)
				versions, err := store.List(ctx, "bad")
				So(err, ShouldBeNil)
				So(versions, ShouldBeEmpty)
			})
		})

		Convey("When a game is unknown", func() {
			_, err := svc.Generate(ctx, "missing")
			So(errors.Is(err, service.ErrGameNotFound), ShouldBeTrue)
			So(errors.Is(err, source.ErrGameNotFound), ShouldBeTrue)
		})

		Convey("When a failed regeneration follows a good version", func() {
			_, err := svc.Generate(ctx, "g1")
			So(err, ShouldBeNil)

			broken := source.NewMemory(brokenGame("g1"))
			failing := service.New(store, broken)
			_, err = failing.Regenerate(ctx, "g1")
			So(errors.Is(err, pipeline.ErrInput), ShouldBeTrue)

			Convey("Then the previous version stays active", func() {
				tb, err := svc.LatestTrace(ctx, "g1")
				So(err, ShouldBeNil)
				So(tb.Version.VersionNumber, ShouldEqual, 1)
			})
		})

		Convey("When no version exists the trace is missing", func() {
			_, err := svc.LatestTrace(ctx, "g1")
			So(errors.Is(err, repository.ErrNoActiveVersion), ShouldBeTrue)

			h, err := svc.ListVersions(ctx, "g1")
			So(err, ShouldBeNil)
			So(h.ActiveVersion, ShouldEqual, 0)
			So(h.Versions, ShouldBeEmpty)
		})
	})
}

func TestService_CompareAndQuality(t *testing.T) {
	ctx := context.Background()

	Convey("Given a game with two identical versions", t, func() {
		svc, _ := newService(exampleGame("g1"))
		_, err := svc.Generate(ctx, "g1")
		So(err, ShouldBeNil)
		_, err = svc.Regenerate(ctx, "g1")
		So(err, ShouldBeNil)

		Convey("Comparing them reports matching hashes and no rows", func() {
			res, err := svc.CompareVersions(ctx, "g1", 1, 2)
			So(err, ShouldBeNil)
			So(res.HashesMatch, ShouldBeTrue)
			So(res.Identical, ShouldBeTrue)
			So(res.Rows, ShouldBeEmpty)
			So(res.VersionA, ShouldEqual, 1)
			So(res.VersionB, ShouldEqual, 2)
		})

		Convey("Comparing against a missing version is a diff error", func() {
			_, err := svc.CompareVersions(ctx, "g1", 1, 9)
			So(errors.Is(err, service.ErrVersionNotFound), ShouldBeTrue)
			So(service.IsDiffError(err), ShouldBeTrue)
			So(service.IsDiffError(errors.New("other")), ShouldBeFalse)
		})

		Convey("Quality checks run on the active or a named version", func() {
			active, err := svc.RunQualityCheck(ctx, "g1", 0)
			So(err, ShouldBeNil)
			So(active.Version, ShouldEqual, 2)
			So(active.Flags, ShouldNotBeNil)
			So(active.Warnings+active.Infos, ShouldEqual, len(active.Flags))

			first, err := svc.RunQualityCheck(ctx, "g1", 1)
			So(err, ShouldBeNil)
			So(first.Version, ShouldEqual, 1)

			_, err = svc.RunQualityCheck(ctx, "g1", 5)
			So(errors.Is(err, service.ErrVersionNotFound), ShouldBeTrue)
		})

		Convey("Stats count the store and the configuration", func() {
			st, err := svc.GetStats(ctx)
			So(err, ShouldBeNil)
			So(st.Games, ShouldEqual, 1)
			So(st.Versions, ShouldEqual, 2)
			So(st.ActiveGames, ShouldEqual, 1)
			So(st.Sports, ShouldContain, "basketball")
			So(st.WorkerCount, ShouldEqual, 4)
		})
	})
}

func TestService_RunBatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given simulated games, one broken game and one already generated", t, func() {
		games := append(simulated(6), brokenGame("bad"), exampleGame("g1"))
		svc, store := newService(games...)
		_, err := svc.Generate(ctx, "g1")
		So(err, ShouldBeNil)

		ids := []string{"g1", "bad", "missing"}
		for _, g := range games[:6] {
			ids = append(ids, g.ID, g.ID)
		}

		Convey("When the batch runs", func() {
			report, err := svc.RunBatch(ctx, types.BatchRequest{GameIDs: ids})
			So(err, ShouldBeNil)

			Convey("Then every distinct game has exactly one outcome", func() {
				So(report.BatchID, ShouldNotBeEmpty)
				So(report.Requested, ShouldEqual, 9)
				So(report.Succeeded, ShouldEqual, 6)
				So(report.Skipped, ShouldEqual, 1)
				So(report.Failed, ShouldEqual, 2)
				So(report.Cancelled, ShouldEqual, 0)
				So(report.Succeeded+report.Skipped+report.Failed+report.Cancelled, ShouldEqual, report.Requested)
			})

			Convey("Then failures carry their kind", func() {
				So(report.Failures, ShouldHaveLength, 2)
				So(report.Failures[0].GameID, ShouldEqual, "bad")
				So(report.Failures[0].Kind, ShouldEqual, "input")
				So(report.Failures[1].GameID, ShouldEqual, "missing")
				So(report.Failures[1].Kind, ShouldEqual, "not_found")
			})

			Convey("Then batch versions are tagged as such", func() {
				h, err := svc.ListVersions(ctx, games[0].ID)
				So(err, ShouldBeNil)
				So(h.Versions, ShouldHaveLength, 1)
				So(h.Versions[0].GenerationSource, ShouldEqual, model.SourceBatch)
			})
		})

		Convey("When the batch forces regeneration", func() {
			report, err := svc.RunBatch(ctx, types.BatchRequest{GameIDs: []string{"g1", games[0].ID}, ForceRegenerate: true})
			So(err, ShouldBeNil)
			So(report.Succeeded, ShouldEqual, 2)

			versions, err := store.List(ctx, "g1")
			So(err, ShouldBeNil)
			So(versions, ShouldHaveLength, 2)
			So(versions[1].IsActive, ShouldBeTrue)
		})

		Convey("When the batch is cancelled before it starts", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			report, err := svc.RunBatch(cctx, types.BatchRequest{GameIDs: ids})
			So(err, ShouldBeNil)

			Convey("Then every game is cancelled and nothing new is committed", func() {
				So(report.Cancelled, ShouldEqual, report.Requested)
				st, err := store.Stats(ctx)
				So(err, ShouldBeNil)
				So(st.Versions, ShouldEqual, 1)
			})
		})

		Convey("When games are selected by league and date range", func() {
			report, err := svc.RunBatch(ctx, types.BatchRequest{League: "nba", From: "2026-02-02", To: "2026-02-03"})
			So(err, ShouldBeNil)
			So(report.Requested, ShouldEqual, 6)
			So(report.Succeeded, ShouldEqual, 6)
		})

		Convey("When the request is malformed", func() {
			_, err := svc.RunBatch(ctx, types.BatchRequest{})
			So(errors.Is(err, service.ErrInvalidBatch), ShouldBeTrue)

			_, err = svc.RunBatch(ctx, types.BatchRequest{GameIDs: []string{"g1"}, League: "NBA", From: "2026-02-02"})
			So(errors.Is(err, service.ErrInvalidBatch), ShouldBeTrue)

			_, err = svc.RunBatch(ctx, types.BatchRequest{League: "NBA", From: "02/02/2026"})
			So(errors.Is(err, service.ErrInvalidBatch), ShouldBeTrue)
		})
	})
}

func TestService_ConcurrentRegenerate(t *testing.T) {
	ctx := context.Background()

	Convey("Given concurrent regenerations of one game", t, func() {
		svc, _ := newService(exampleGame("g1"))
		const n = 6
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			go func() {
				_, err := svc.Regenerate(ctx, "g1")
				errs <- err
			}()
		}
		for i := 0; i < n; i++ {
			So(<-errs, ShouldBeNil)
		}

		Convey("Then every run persists and exactly one is active", func() {
			h, err := svc.ListVersions(ctx, "g1")
			So(err, ShouldBeNil)
			So(h.Versions, ShouldHaveLength, n)
			So(h.ActiveVersion, ShouldEqual, n)
			active := 0
			for i, v := range h.Versions {
				So(v.VersionNumber, ShouldEqual, i+1)
				if v.IsActive {
					active++
				}
			}
			So(active, ShouldEqual, 1)
		})
	})
}

func ExampleService_Generate() {
	_ = logger.Init()
	svc := service.New(repository.NewMemory(), source.NewMemory(exampleGame("g1")))
	v, err := svc.Generate(context.Background(), "g1")
	fmt.Println(v.VersionNumber, v.IsActive, err)
	// Output: 1 true <nil>
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	Convey("Given a config pointing at a fixture directory", t, func() {
		dir := t.TempDir()
		files := source.NewFile(dir)
		for _, g := range []model.Game{exampleGame("g1"), exampleGame("g2")} {
			_, err := files.SaveGame(g)
			So(err, ShouldBeNil)
		}

		cfg := config.New()
		cfg.SourceDir = dir
		cfg.StoreDSN = "sqlite://" + dir + "/versions.db"
		cfg.WorkerCount = 2

		svc, closeStore, err := service.FromConfig(ctx, cfg)
		So(err, ShouldBeNil)
		Reset(func() { _ = closeStore() })

		Convey("Then games load from disk and versions persist in SQLite", func() {
			v, err := svc.Generate(ctx, "g1")
			So(err, ShouldBeNil)
			So(v.VersionNumber, ShouldEqual, 1)

			report, err := svc.RunBatch(ctx, types.BatchRequest{League: "NBA", From: "2026-02-01"})
			So(err, ShouldBeNil)
			So(report.Requested, ShouldEqual, 2)
			So(report.Succeeded, ShouldEqual, 1)
			So(report.Skipped, ShouldEqual, 1)

			st, err := svc.GetStats(ctx)
			So(err, ShouldBeNil)
			So(st.WorkerCount, ShouldEqual, 2)
			So(st.Games, ShouldEqual, 2)
		})

		Convey("Then an unknown store scheme is rejected", func() {
			cfg.StoreDSN = "redis://localhost"
			_, _, err := service.FromConfig(ctx, cfg)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
