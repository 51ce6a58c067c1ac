package repository

import (
	"time"

	"github.com/okian/swing/pkg/logger"
)

// Option applies a configuration option to the Memory store.
type Option func(*Memory)

// WithClock overrides time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Memory) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Memory) {
		if l != nil {
			s.log = l
		}
	}
}
