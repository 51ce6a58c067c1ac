// Package api serves the version store and the generation service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/swing/internal/app"
	"github.com/okian/swing/internal/domain/diff"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/types"
	"github.com/okian/swing/pkg/logger"
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	Generate(ctx context.Context, gameID string, opts ...service.GenerateOption) (model.PayloadVersion, error)
	Regenerate(ctx context.Context, gameID string, opts ...service.GenerateOption) (model.PayloadVersion, error)
	RunBatch(ctx context.Context, req types.BatchRequest) (types.BatchReport, error)
	LatestTrace(ctx context.Context, gameID string) (types.TraceBundle, error)
	ListVersions(ctx context.Context, gameID string) (types.VersionHistory, error)
	CompareVersions(ctx context.Context, gameID string, a, b int) (*diff.Result, error)
	RunQualityCheck(ctx context.Context, gameID string, version int) (types.QualityReport, error)
	GetStats(ctx context.Context) (types.Stats, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	gamesHandler  *GamesHandler
	batchHandler  *BatchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	log := logger.Get().Named("api")
	return &Server{
		healthHandler: NewHealthHandler(nil),
		statsHandler:  NewStatsHandler(deps),
		gamesHandler:  NewGamesHandler(deps, log),
		batchHandler:  NewBatchHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /batch", MetricsMiddleware(s.batchHandler.HandleRunBatch, "batch"))
	mux.HandleFunc("POST /games/{game_id}/generate", MetricsMiddleware(s.gamesHandler.HandleGenerate, "generate"))
	mux.HandleFunc("GET /games/{game_id}/trace", MetricsMiddleware(s.gamesHandler.HandleTrace, "trace"))
	mux.HandleFunc("GET /games/{game_id}/versions", MetricsMiddleware(s.gamesHandler.HandleVersions, "versions"))
	mux.HandleFunc("GET /games/{game_id}/compare", MetricsMiddleware(s.gamesHandler.HandleCompare, "compare"))
	mux.HandleFunc("GET /games/{game_id}/quality", MetricsMiddleware(s.gamesHandler.HandleQuality, "quality"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and writes it as JSON.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
