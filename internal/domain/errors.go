package domain

import "errors"

var (
	// Validation errors. Description errors are returned to API callers verbatim.
	ErrDescriptionRequired = errors.New("Description is required")
	ErrDescriptionExists   = errors.New("Description already exists")
	ErrIDMismatch          = errors.New("id in path does not match id in body")

	// Persistence errors
	ErrConcurrencyConflict = errors.New("concurrency conflict - no row matched the update")
)
