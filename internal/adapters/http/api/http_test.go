package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/swing/internal/adapters/http/api"
	"github.com/okian/swing/internal/adapters/repository"
	"github.com/okian/swing/internal/adapters/source"
	service "github.com/okian/swing/internal/app"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/types"
	"github.com/okian/swing/internal/pipeline"
	"github.com/okian/swing/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func game(id string, broken bool) model.Game {
	scores := [][2]int{{0, 0}, {2, 0}, {2, 0}, {2, 2}, {2, 2}, {5, 2}, {5, 2}}
	events := make([]model.PlayEvent, len(scores))
	for i, s := range scores {
		events[i] = model.PlayEvent{PlayIndex: i, Period: 1, HomeScore: s[0], AwayScore: s[1]}
	}
	if broken {
		events[3].PlayIndex = 2
	}
	return model.Game{ID: id, Sport: "basketball", League: "NBA", Date: "2026-03-01", Events: events}
}

func newMux() *http.ServeMux {
	svc := service.New(repository.NewMemory(),
		source.NewMemory(game("g1", false), game("g2", false), game("bad", true)),
		service.WithWorkerCount(2))
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestGenerateRoutes(t *testing.T) {
	Convey("Given an API server over an in-memory service", t, func() {
		mux := newMux()

		Convey("When a game is generated", func() {
			w := do(mux, http.MethodPost, "/games/g1/generate", "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			var v model.PayloadVersion
			So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
			So(v.VersionNumber, ShouldEqual, 1)
			So(v.GenerationSource, ShouldEqual, model.SourceAPI)

			Convey("Then generating it again conflicts", func() {
				w := do(mux, http.MethodPost, "/games/g1/generate", "")
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(errorCode(w), ShouldEqual, "already_generated")
			})

			Convey("Then force creates a second version", func() {
				w := do(mux, http.MethodPost, "/games/g1/generate?force=true", "")
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v.VersionNumber, ShouldEqual, 2)

				w = do(mux, http.MethodPost, "/games/g1/generate", `{"force": true, "source": "manual"}`)
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v.VersionNumber, ShouldEqual, 3)
				So(v.GenerationSource, ShouldEqual, model.SourceManual)
			})

			Convey("Then the trace and history are readable", func() {
				w := do(mux, http.MethodGet, "/games/g1/trace", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var tb types.TraceBundle
				So(json.Unmarshal(w.Body.Bytes(), &tb), ShouldBeNil)
				So(tb.Version.VersionNumber, ShouldEqual, 1)
				So(len(tb.Traces), ShouldEqual, len(tb.Moments))

				w = do(mux, http.MethodGet, "/games/g1/versions", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var h types.VersionHistory
				So(json.Unmarshal(w.Body.Bytes(), &h), ShouldBeNil)
				So(h.ActiveVersion, ShouldEqual, 1)
				So(h.Versions, ShouldHaveLength, 1)
			})
		})

		Convey("Malformed generate requests are rejected", func() {
			So(do(mux, http.MethodPost, "/games/g1/generate?force=maybe", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/games/g1/generate", `{"source": "robot"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/games/g1/generate", `{"force": "yes"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/games/g1/generate", `{`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Unknown games are not found", func() {
			So(do(mux, http.MethodPost, "/games/nope/generate", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/games/nope/trace", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Rejected input is unprocessable", func() {
			w := do(mux, http.MethodPost, "/games/bad/generate", "")
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(errorCode(w), ShouldEqual, "input_error")
		})

		Convey("Wrong methods are not routed", func() {
			So(do(mux, http.MethodGet, "/games/g1/generate", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestCompareAndQualityRoutes(t *testing.T) {
	Convey("Given a game with two versions", t, func() {
		mux := newMux()
		So(do(mux, http.MethodPost, "/games/g1/generate", "").Code, ShouldEqual, http.StatusCreated)
		So(do(mux, http.MethodPost, "/games/g1/generate?force=1", "").Code, ShouldEqual, http.StatusCreated)

		Convey("Compare reports identical hashes", func() {
			w := do(mux, http.MethodGet, "/games/g1/compare?a=1&b=2", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var res struct {
				HashesMatch bool  `json:"hashes_match"`
				Rows        []any `json:"rows"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res.HashesMatch, ShouldBeTrue)
			So(res.Rows, ShouldBeEmpty)
		})

		Convey("Compare needs both versions", func() {
			So(do(mux, http.MethodGet, "/games/g1/compare?a=1", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/games/g1/compare?a=0&b=1", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/games/g1/compare?a=1&b=9", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Quality runs on the active or a named version", func() {
			w := do(mux, http.MethodGet, "/games/g1/quality", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var report types.QualityReport
			So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
			So(report.Version, ShouldEqual, 2)

			w = do(mux, http.MethodGet, "/games/g1/quality?version=1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
			So(report.Version, ShouldEqual, 1)

			So(do(mux, http.MethodGet, "/games/g1/quality?version=x", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/games/g1/quality?version=7", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBatchAndStatsRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newMux()

		Convey("A batch over ids reports every outcome", func() {
			w := do(mux, http.MethodPost, "/batch", `{"game_ids": ["g1", "g2", "bad", "g1"]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var report types.BatchReport
			So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
			So(report.Requested, ShouldEqual, 3)
			So(report.Succeeded, ShouldEqual, 2)
			So(report.Failed, ShouldEqual, 1)
			So(report.Failures[0].Kind, ShouldEqual, "input")

			Convey("And stats reflect the committed versions", func() {
				w := do(mux, http.MethodGet, "/stats", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Cache-Control"), ShouldEqual, "no-store")
				var st types.Stats
				So(json.Unmarshal(w.Body.Bytes(), &st), ShouldBeNil)
				So(st.Games, ShouldEqual, 2)
				So(st.ActiveGames, ShouldEqual, 2)
			})
		})

		Convey("A batch over a league and date range resolves games", func() {
			w := do(mux, http.MethodPost, "/batch", `{"league": "NBA", "from": "2026-03-01", "to": "2026-03-01"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var report types.BatchReport
			So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
			So(report.Requested, ShouldEqual, 3)
		})

		Convey("Batch bodies are validated", func() {
			for _, body := range []string{
				"",
				`{}`,
				`{"game_ids": []}`,
				`{"game_ids": ["g1"], "league": "NBA", "from": "2026-03-01"}`,
				`{"league": "NBA"}`,
				`{"league": "NBA", "from": "March 1"}`,
				`{"game_ids": ["g1"], "extra": 1}`,
			} {
				So(do(mux, http.MethodPost, "/batch", body).Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("Healthz serves Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "swing_moments_http_requests_total")
		})
	})
}

func TestErrorMapping(t *testing.T) {
	Convey("Service errors are classified by kind", t, func() {
		cases := []struct {
			err  error
			kind error
		}{
			{service.ErrAlreadyGenerated, api.ErrConflict},
			{service.ErrGameNotFound, api.ErrNotFound},
			{service.ErrVersionNotFound, api.ErrNotFound},
			{repository.ErrNoActiveVersion, api.ErrNotFound},
			{service.ErrInvalidBatch, api.ErrBadRequest},
			{pipeline.ErrValidation, api.ErrUnprocessable},
		}
		for _, c := range cases {
			err := api.Wrap("api.test", c.err)
			So(errors.Is(err, c.kind), ShouldBeTrue)
			So(errors.Is(err, c.err), ShouldBeTrue)
		}

		So(api.Wrap("api.test", nil), ShouldBeNil)

		var opErr *api.OpError
		err := api.NewKind("api.test", api.ErrBadRequest)
		So(errors.As(err, &opErr), ShouldBeTrue)
		So(opErr.Op, ShouldEqual, "api.test")
		So(err.Error(), ShouldEqual, "api.test: bad request")
	})
}
