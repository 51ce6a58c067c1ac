package service

import (
	"errors"

	"github.com/okian/swing/internal/domain/diff"
)

// Sentinel kinds for service errors.
var (
	ErrAlreadyGenerated = errors.New("game already has a version")
	ErrGameNotFound     = errors.New("game not found")
	ErrVersionNotFound  = errors.New("version not found")
	ErrInvalidBatch     = errors.New("invalid batch request")
	ErrNoLister         = errors.New("no game lister configured")
)

// IsDiffError reports whether err is a comparison the caller asked for
// wrongly: versions of different games or a version that does not exist.
func IsDiffError(err error) bool {
	return errors.Is(err, diff.ErrGameMismatch) || errors.Is(err, ErrVersionNotFound)
}
