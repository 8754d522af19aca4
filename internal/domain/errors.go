package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when a product reference does not resolve
	ErrProductNotFound = errors.New("product not found")

	// ErrSourceNotFound is returned when a price source or scraper source does not resolve
	ErrSourceNotFound = errors.New("source not found")

	// ErrRunNotFound is returned when a scraper run does not resolve
	ErrRunNotFound = errors.New("run not found")

	// ErrAlreadyRunning is returned when a run is triggered for a source that is already running
	ErrAlreadyRunning = errors.New("source already running")

	// ErrSourceInactive is returned when a run is triggered for a deactivated source
	ErrSourceInactive = errors.New("source is not active")

	// ErrSchedulerBusy is returned when a run cannot be dispatched because the
	// worker queue is full
	ErrSchedulerBusy = errors.New("scheduler worker queue is full")

	// ErrRunFinalized is returned when a finalized run is finalized again.
	// This is an invariant breach, not an expected condition.
	ErrRunFinalized = errors.New("run already finalized")

	// ErrCurrencyMismatch is returned when a product's available observations span
	// more than one currency and stats cannot be recomputed
	ErrCurrencyMismatch = errors.New("observations span multiple currencies")
)

// ValidationError describes malformed ingestion input. It is rejected before any
// store mutation and surfaced synchronously to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
