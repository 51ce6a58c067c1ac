package merge

import (
	"github.com/okian/swing/internal/config"
)

// Option configures an Engine.
type Option func(*Engine)

// WithBudget overrides the budget derived from the sport profile.
func WithBudget(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.budget = n
		}
	}
}

// WithDistribution overrides the half/period distribution target.
func WithDistribution(t config.DistributionTarget) Option {
	return func(e *Engine) {
		e.target = t
	}
}
