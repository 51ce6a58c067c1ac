package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SWING_CONFIG is set
//  3. env (prefix SWING_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SWING_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SWING_STORE_DSN -> store_dsn. Underscores are preserved to match the
	// flat koanf tags on the struct.
	envProvider := env.Provider("SWING_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "swing_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot fix up on its own.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 0:
		return fmt.Errorf("%w: worker_count must not be negative", ErrInvalidConfig)
	case c.QueueSize < 0:
		return fmt.Errorf("%w: queue_size must not be negative", ErrInvalidConfig)
	}
	switch StoreScheme(c.StoreDSN) {
	case "memory", "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("%w: unsupported store_dsn %q", ErrInvalidConfig, c.StoreDSN)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unsupported log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// StoreScheme returns the lower-cased scheme of a store DSN ("" when absent).
func StoreScheme(dsn string) string {
	scheme, _, found := strings.Cut(strings.TrimSpace(dsn), "://")
	if !found {
		return ""
	}
	return strings.ToLower(scheme)
}
