package repository

import "errors"

var (
	// ErrNotFound is returned when a row does not exist. The services map
	// it to the appropriate *_NOT_FOUND error code.
	ErrNotFound = errors.New("repository: not found")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint (notably a concurrently assigned account number).
	ErrDuplicate = errors.New("repository: duplicate key")
)
