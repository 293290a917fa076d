package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusConflict is returned when a guarded status transition matches
	// no document, i.e. the booking is no longer in the expected state.
	ErrStatusConflict = errors.New("booking is not in the expected status")
)
