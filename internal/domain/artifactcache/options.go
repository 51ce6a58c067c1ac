package artifactcache

import "time"

const (
	defaultMaxSize = 1024
	defaultTTL     = 10 * time.Minute
)

type settings struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

func defaultSettings() settings {
	return settings{maxSize: defaultMaxSize, ttl: defaultTTL, now: time.Now}
}

// Option applies a configuration option to the cache.
type Option func(*settings)

// WithMaxSize bounds the number of entries. Values <= 0 mean unbounded.
func WithMaxSize(maxSize int) Option {
	return func(s *settings) {
		s.maxSize = maxSize
	}
}

// WithTTL sets how long an entry stays valid. Values <= 0 disable expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.ttl = ttl
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
