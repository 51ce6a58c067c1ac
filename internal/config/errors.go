package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	ErrMissingSport  = errors.New("missing sport profile")
	ErrInvalidSport  = errors.New("invalid sport profile")
)
