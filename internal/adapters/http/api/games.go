package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/swing/internal/app"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/pkg/logger"
)

// GamesHandler serves the per-game routes under /games/{game_id}.
type GamesHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps Dependencies, log logger.Logger) *GamesHandler {
	return &GamesHandler{deps: deps, log: log}
}

type generateRequest struct {
	Force  bool   `json:"force"`
	Source string `json:"source"`
}

// HandleGenerate handles POST /games/{game_id}/generate[?force=true].
func (h *GamesHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate"
	gameID, err := gameIDOf(r)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	req := generateRequest{Source: model.SourceAPI}
	if err := decodeBody(w, r, generateSchema, &req, true); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if q := r.URL.Query().Get("force"); q != "" {
		force, err := strconv.ParseBool(q)
		if err != nil {
			writeError(w, WrapKind(op, ErrBadRequest, errors.New("force must be a boolean")))
			return
		}
		req.Force = req.Force || force
	}

	generate := h.deps.Generate
	if req.Force {
		generate = h.deps.Regenerate
	}
	v, err := generate(r.Context(), gameID, service.WithGenerationSource(req.Source))
	if err != nil {
		h.log.Debug(r.Context(), "generate rejected",
			logger.String("game_id", gameID),
			logger.Bool("force", req.Force),
			logger.Error(err))
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// HandleTrace handles GET /games/{game_id}/trace.
func (h *GamesHandler) HandleTrace(w http.ResponseWriter, r *http.Request) {
	const op = "api.trace"
	gameID, err := gameIDOf(r)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	tb, err := h.deps.LatestTrace(r.Context(), gameID)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

// HandleVersions handles GET /games/{game_id}/versions.
func (h *GamesHandler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	const op = "api.versions"
	gameID, err := gameIDOf(r)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	history, err := h.deps.ListVersions(r.Context(), gameID)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// HandleCompare handles GET /games/{game_id}/compare?a=&b=.
func (h *GamesHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	gameID, err := gameIDOf(r)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := versionParam(r, "a", false)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	b, err := versionParam(r, "b", false)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.CompareVersions(r.Context(), gameID, a, b)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleQuality handles GET /games/{game_id}/quality[?version=].
func (h *GamesHandler) HandleQuality(w http.ResponseWriter, r *http.Request) {
	const op = "api.quality"
	gameID, err := gameIDOf(r)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	version, err := versionParam(r, "version", true)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := h.deps.RunQualityCheck(r.Context(), gameID, version)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func gameIDOf(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("game_id"))
	if id == "" {
		return "", errors.New("missing game_id")
	}
	return id, nil
}

// versionParam parses a positive version number; an optional absent
// parameter yields 0.
func versionParam(r *http.Request, name string, optional bool) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if optional {
			return 0, nil
		}
		return 0, errors.New("missing query parameter " + name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return v, nil
}
