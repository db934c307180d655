package core

import "errors"

// Sentinel errors the API layer maps to HTTP statuses. Services wrap these
// with context via fmt.Errorf("...: %w", ...).
var (
	// ErrNotFound covers both absent records and records owned by another
	// user; callers cannot distinguish the two.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a duplicate account name or access key for the
	// same owner.
	ErrConflict = errors.New("already exists")
	// ErrUnauthenticated signals a missing or invalid bearer credential.
	ErrUnauthenticated = errors.New("unauthenticated")
)
