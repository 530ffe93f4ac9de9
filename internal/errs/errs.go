// Package errs defines the failure taxonomy shared across the engine.
//
// Four categories cover every surfaced failure: validation (bad input,
// rejected before it reaches the store), state (operation illegal in the
// current trip phase), concurrency (write lost the version race) and
// transport (transient store failure, retryable). The HTTP layer maps
// each category to a status code; everything else wraps with %w as usual.
package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups of trips, members or expenses that do not
// exist. Wrap it with context: fmt.Errorf("trip %s: %w", id, ErrNotFound).
var ErrNotFound = errors.New("not found")

// ValidationError rejects malformed input before it can be committed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StateError rejects operations attempted outside their legal phase.
// Never retried.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// Statef builds a StateError from a format string.
func Statef(format string, args ...any) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

// ConcurrencyError reports that a write's base version no longer matched
// the store's current version. Recovered by re-fetching the snapshot and
// re-applying the mutation; never silently dropped.
type ConcurrencyError struct {
	TripID      string
	BaseVersion int64
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("trip %s: version %d is stale", e.TripID, e.BaseVersion)
}

// TransportError wraps a transient store failure. Retried a bounded
// number of times before being surfaced.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsState reports whether err is a StateError.
func IsState(err error) bool {
	var s *StateError
	return errors.As(err, &s)
}

// IsConcurrency reports whether err is a ConcurrencyError.
func IsConcurrency(err error) bool {
	var c *ConcurrencyError
	return errors.As(err, &c)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}
