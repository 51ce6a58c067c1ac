package api

import (
	"net/http"

	"github.com/okian/swing/internal/domain/types"
	"github.com/okian/swing/pkg/logger"
)

// BatchHandler runs batch generations.
type BatchHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps Dependencies, log logger.Logger) *BatchHandler {
	return &BatchHandler{deps: deps, log: log}
}

// HandleRunBatch handles POST /batch. The request blocks until the batch
// finishes; a client disconnect cancels the remaining games.
func (h *BatchHandler) HandleRunBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch"
	var req types.BatchRequest
	if err := decodeBody(w, r, batchSchema, &req, false); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := h.deps.RunBatch(r.Context(), req)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	h.log.Info(r.Context(), "batch served",
		logger.String("batch_id", report.BatchID),
		logger.Int("requested", report.Requested),
		logger.Int("failed", report.Failed))
	writeJSON(w, http.StatusOK, report)
}
