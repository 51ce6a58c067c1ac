// Package types contains the read shapes shared by the service and its
// HTTP, MCP and CLI surfaces.
package types

import (
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/trace"
)

// TraceBundle is the active version of a game with its traces and run counts.
type TraceBundle struct {
	Version model.PayloadVersion `json:"version"`
	Sport   string               `json:"sport"`
	Moments []model.Moment       `json:"moments"`
	Traces  []trace.MomentTrace  `json:"traces"`
	Summary model.RunSummary     `json:"summary"`
}

// VersionHistory lists a game's versions in ascending order.
type VersionHistory struct {
	GameID string `json:"game_id"`
	// ActiveVersion is 0 when the game has no versions.
	ActiveVersion int                    `json:"active_version"`
	Versions      []model.PayloadVersion `json:"versions"`
}

// QualityReport is the advisory flag list for one version.
type QualityReport struct {
	GameID   string              `json:"game_id"`
	Version  int                 `json:"version"`
	Flags    []model.QualityFlag `json:"flags"`
	Warnings int                 `json:"warnings"`
	Infos    int                 `json:"infos"`
}

// NewQualityReport counts flags by severity.
func NewQualityReport(gameID string, version int, flags []model.QualityFlag) QualityReport {
	r := QualityReport{GameID: gameID, Version: version, Flags: flags}
	if r.Flags == nil {
		r.Flags = []model.QualityFlag{}
	}
	for _, f := range r.Flags {
		switch f.Severity {
		case model.SeverityWarn:
			r.Warnings++
		case model.SeverityInfo:
			r.Infos++
		}
	}
	return r
}

// BatchRequest selects games either by id or by league and date range.
type BatchRequest struct {
	GameIDs         []string `json:"game_ids,omitempty"`
	League          string   `json:"league,omitempty"`
	From            string   `json:"from,omitempty"` // YYYY-MM-DD
	To              string   `json:"to,omitempty"`   // YYYY-MM-DD, inclusive
	ForceRegenerate bool     `json:"force_regenerate"`
}

// BatchFailure is one game that failed inside a batch.
type BatchFailure struct {
	GameID string `json:"game_id"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

// BatchReport counts per-game outcomes. Requested equals the sum of the
// four outcome counts.
type BatchReport struct {
	BatchID    string         `json:"batch_id"`
	Requested  int            `json:"requested"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	Cancelled  int            `json:"cancelled"`
	Failures   []BatchFailure `json:"failures"`
	DurationMs int64          `json:"duration_ms"`
}

// Stats summarises the service for monitoring.
type Stats struct {
	Games       int      `json:"games"`
	Versions    int      `json:"versions"`
	ActiveGames int      `json:"active_games"`
	Sports      []string `json:"sports"`
	WorkerCount int      `json:"worker_count"`
	QueueSize   int      `json:"queue_size"`
}
