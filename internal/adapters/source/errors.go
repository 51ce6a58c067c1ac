package source

import "errors"

// Sentinel kinds for event source errors.
var (
	ErrGameNotFound = errors.New("game not found")
	ErrInvalidGame  = errors.New("invalid game fixture")
	ErrInvalidRange = errors.New("invalid date range")
)
