package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/swing/internal/app"
	"github.com/okian/swing/internal/adapters/repository"
	"github.com/okian/swing/internal/domain/diff"
	"github.com/okian/swing/internal/pipeline"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnprocessable = errors.New("generation failed")
)

// OpError records the handler that failed, the API kind and the cause.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *OpError) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap classifies err from the service layer.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Kind: classify(err), Err: err}
}

// WrapKind wraps err with an explicit kind.
func WrapKind(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}

// NewKind builds an error that only carries a kind.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

func classify(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidBatch),
		errors.Is(err, service.ErrNoLister),
		errors.Is(err, diff.ErrGameMismatch):
		return ErrBadRequest
	case errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, service.ErrVersionNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrNoActiveVersion):
		return ErrNotFound
	case errors.Is(err, service.ErrAlreadyGenerated):
		return ErrConflict
	case pipeline.Kind(err) != "":
		return ErrUnprocessable
	default:
		return nil
	}
}

// statusOf maps an error to its HTTP status and response code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "already_generated"
	case errors.Is(err, ErrUnprocessable):
		if kind := pipeline.Kind(err); kind != "" {
			return http.StatusUnprocessableEntity, kind + "_error"
		}
		return http.StatusUnprocessableEntity, "generation_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
