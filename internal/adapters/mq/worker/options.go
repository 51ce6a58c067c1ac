package worker

import (
	"github.com/okian/swing/pkg/logger"
)

// Option configures a worker, or every worker of a pool.
type Option func(*settings)

type settings struct {
	name   string
	logger logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{name: "worker"}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("worker")
	}
	return s
}

// WithName names a worker. In a pool it is the prefix of "<name>-<index>".
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets the parent logger; workers log under their own name.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
