package model

import "time"

// Generation sources recorded on a PayloadVersion.
const (
	SourceManual     = "manual"
	SourceRegenerate = "regenerate"
	SourceBatch      = "batch"
	SourceAPI        = "api"
)

// PayloadVersion is one immutable, hashed generation output for a game.
type PayloadVersion struct {
	GameID           string    `json:"game_id"`
	VersionNumber    int       `json:"version_number"`
	ContentHash      string    `json:"content_hash"`
	MomentCount      int       `json:"moment_count"`
	EventCount       int       `json:"event_count"`
	GenerationSource string    `json:"generation_source"`
	PipelineRunID    string    `json:"pipeline_run_id"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// RunSummary is the per-run bookkeeping surfaced with the latest trace.
type RunSummary struct {
	FinalMoments     int `json:"final_moments"`
	InitialMoments   int `json:"initial_moments"`
	MergedMoments    int `json:"merged_moments"`
	RejectedMoments  int `json:"rejected_moments"`
	EventCount       int `json:"event_count"`
	Budget           int `json:"budget"`
	HardTriggerCount int `json:"hard_trigger_count"`
}

// Severity of a quality flag.
type Severity string

// Quality flag severities. Flags never block activation.
const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
)

// QualityFlag is one advisory finding against a committed version.
type QualityFlag struct {
	FlagID           string   `json:"flag_id"`
	Check            string   `json:"check"`
	Severity         Severity `json:"severity"`
	Title            string   `json:"title"`
	Message          string   `json:"message"`
	RelatedMomentIDs []string `json:"related_moment_ids"`
}
