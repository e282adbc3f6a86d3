package store

import "errors"

// Error handling guidelines:
// - Stores wrap driver errors with fmt.Errorf("context: %w", err) or return
//   the sentinels below.
// - Services translate sentinels into apperrors.* values for handlers.

var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates the write conflicts with existing state.
	ErrConflict = errors.New("conflict")
)
