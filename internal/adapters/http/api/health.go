package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/swing/internal/domain/types"
	"github.com/okian/swing/pkg/metrics"
)

// HealthHandler serves the metrics registry on /healthz; a scrape that
// succeeds doubles as the liveness probe.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler serves gatherer, or the process registry when nil.
func NewHealthHandler(gatherer prometheus.Gatherer) *HealthHandler {
	if gatherer == nil {
		gatherer = metrics.GetRegistry()
	}
	return &HealthHandler{metrics: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorHandling:     promhttp.HTTPErrorOnError,
		EnableOpenMetrics: true,
	})}
}

// HandleHealth handles GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// StatsProvider reports store and worker counters.
type StatsProvider interface {
	GetStats(ctx context.Context) (types.Stats, error)
}

// StatsHandler handles GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a stats handler over provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats writes the current counters. They change with every commit,
// so responses are never cached.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.provider.GetStats(r.Context())
	if err != nil {
		writeError(w, Wrap("api.stats", err))
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, stats)
}
