package repositories

import "errors"

// Sentinel errors shared by all repository implementations. Callers match
// them with errors.Is; implementations wrap them with record context.
var (
	// ErrNotFound marks a lookup for an identifier absent from the store.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate marks a write rejected by a unique constraint. Service
	// pre-checks surface it early for friendlier messages, but the store's
	// unique indexes are the authoritative enforcement point.
	ErrDuplicate = errors.New("already exists")
)
