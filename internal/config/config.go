// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and SWING_* env vars.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDSN selects the version store: memory://, sqlite://<path>, postgres://...
	StoreDSN string `koanf:"store_dsn"`

	// SourceDir is where the file event source reads game fixtures and schedule.yaml.
	SourceDir string `koanf:"source_dir"`

	// SportsFile optionally overrides/extends the built-in sport profiles.
	SportsFile string `koanf:"sports_file"`

	// DefaultSport is used for games that do not declare a sport.
	DefaultSport string `koanf:"default_sport"`

	// WorkerCount sets the number of batch generation workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory batch job queue.
	QueueSize int `koanf:"queue_size"`

	// BatchTimeoutSec bounds a whole batch job; 0 disables the timeout.
	BatchTimeoutSec int `koanf:"batch_timeout_sec"`

	// CacheTTLSec and CacheSize configure the schedule artifact cache.
	CacheTTLSec int `koanf:"cache_ttl_sec"`
	CacheSize   int `koanf:"cache_size"`

	// MetricsEnabled toggles generation run metrics; HTTP and gauge metrics are always on.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// OTelEndpoint enables OTLP/HTTP span export when set, e.g. http://localhost:4318.
	OTelEndpoint string `koanf:"otel_endpoint"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		StoreDSN:        "memory://",
		SourceDir:       "./data/games",
		DefaultSport:    "basketball",
		WorkerCount:     runtime.NumCPU() * 2,
		QueueSize:       10_000,
		BatchTimeoutSec: 900,
		CacheTTLSec:     600,
		CacheSize:       1_024,
		MetricsEnabled:  true,
	}
}
