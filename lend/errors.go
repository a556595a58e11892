package lend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMaterialNotFound is returned when the referenced material does not exist.
	ErrMaterialNotFound = errors.New("material not found")
	// ErrRequestNotFound is returned when the referenced request does not exist.
	ErrRequestNotFound = errors.New("request not found")
	// ErrMaterialUnavailable is returned when the material has zero available units.
	ErrMaterialUnavailable = errors.New("material not available")
)

// ValidationError reports malformed or out-of-range input, detected
// before any write is attempted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps a persistent-store failure. The engine never
// retries; callers decide what to do with it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error { return &StoreError{Op: op, Err: err} }

// StatusFor maps an engine error to an HTTP status code.
func StatusFor(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrMaterialNotFound), errors.Is(err, ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMaterialUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
