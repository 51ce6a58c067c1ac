package pipeline

import (
	"errors"
	"fmt"

	"github.com/okian/swing/internal/domain/validate"
)

// Error kinds. A failed run commits nothing.
var (
	ErrInput      = errors.New("input error")
	ErrConfig     = errors.New("config error")
	ErrValidation = errors.New("validation failure")
)

// Error is a failed generation run.
type Error struct {
	Kind   error
	GameID string
	Msg    string
	// Issues is set for ErrValidation: the issues of the candidate that could not be merged away.
	Issues []validate.Issue
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	prefix := e.Kind.Error()
	if e.GameID != "" {
		prefix = fmt.Sprintf("%s: game %s", prefix, e.GameID)
	}
	if e.Msg == "" {
		return prefix
	}
	return prefix + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

func inputf(gameID, format string, args ...any) error {
	return &Error{Kind: ErrInput, GameID: gameID, Msg: fmt.Sprintf(format, args...)}
}

func configf(gameID, format string, args ...any) error {
	return &Error{Kind: ErrConfig, GameID: gameID, Msg: fmt.Sprintf(format, args...)}
}

// Kind returns "input", "config", "validation" or "" for err.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return ""
	}
}
