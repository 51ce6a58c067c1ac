package diff

// Option configures an Engine.
type Option func(*Engine)

// WithRegulationPeriods sets the period count used to split moments into halves.
func WithRegulationPeriods(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.regulationPeriods = n
		}
	}
}

// WithImportanceTolerance sets the largest normalized importance change that
// still counts as unchanged.
func WithImportanceTolerance(tol float64) Option {
	return func(e *Engine) {
		if tol >= 0 {
			e.tolerance = tol
		}
	}
}
