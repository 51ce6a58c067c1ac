package service

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/okian/swing/internal/adapters/source"
	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/quality"
	"github.com/okian/swing/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithProfiles sets the sport profiles used for generation.
func WithProfiles(p config.Profiles) Option {
	return func(s *Service) {
		if len(p) > 0 {
			s.profiles = p
		}
	}
}

// WithDefaultSport names the profile for games without a sport.
func WithDefaultSport(sport string) Option {
	return func(s *Service) {
		if sport != "" {
			s.defaultSport = sport
		}
	}
}

// WithLister sets the schedule used to resolve (league, date range) batches.
func WithLister(l source.GameLister) Option {
	return func(s *Service) {
		if l != nil {
			s.lister = l
		}
	}
}

// WithWorkerCount sets the number of batch worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of a batch's job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithBatchTimeout bounds a whole batch. Zero disables the timeout.
func WithBatchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.batchTimeout = d
		}
	}
}

// WithQualityOptions passes options through to every quality checker.
func WithQualityOptions(opts ...quality.Option) Option {
	return func(s *Service) {
		s.qualityOpts = append(s.qualityOpts, opts...)
	}
}

// WithTracer replaces the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithRunIDs replaces the pipeline run id generator.
func WithRunIDs(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newRunID = next
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
