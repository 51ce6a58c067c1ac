package repository

import "errors"

// Sentinel kinds for version store errors.
var (
	ErrNotFound        = errors.New("version not found")
	ErrNoActiveVersion = errors.New("game has no active version")
	ErrInvalidBundle   = errors.New("invalid bundle")
	ErrClosed          = errors.New("store closed")
)
