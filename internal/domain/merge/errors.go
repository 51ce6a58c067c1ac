package merge

import (
	"errors"
	"fmt"

	"github.com/okian/swing/internal/domain/validate"
)

// ErrNoMergeTarget is returned when an invalid candidate has no neighbour to merge into.
var ErrNoMergeTarget = errors.New("no legal merge target")

// StuckError carries the issues of the candidate that could not be merged away.
type StuckError struct {
	MomentID string
	Issues   []validate.Issue
}

func (e *StuckError) Error() string {
	return fmt.Sprintf("moment %s: %v: %v", e.MomentID, ErrNoMergeTarget, e.Issues)
}

func (e *StuckError) Unwrap() error { return ErrNoMergeTarget }
