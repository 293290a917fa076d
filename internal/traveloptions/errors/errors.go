package errors

import "errors"

var (
	ErrNotFound = errors.New("travel option not found")

	ErrInvalidID = errors.New("invalid travel option ID format")

	// ErrInsufficientSeats is returned by the conditional seat decrement when
	// the pool no longer covers the request.
	ErrInsufficientSeats = errors.New("not enough available seats")
)
