package domain

import "errors"

var (
	// ErrUserRequired is returned when an operation is not scoped to a user.
	ErrUserRequired = errors.New("user id is required")
	// ErrInvalidAttempt is returned when a submitted attempt fails integrity checks.
	ErrInvalidAttempt = errors.New("invalid attempt")
	// ErrFeedNotFound is returned when no live feed exists for a user.
	ErrFeedNotFound = errors.New("performance feed not found")
)
