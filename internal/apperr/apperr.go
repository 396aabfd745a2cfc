// Package apperr defines the error kinds surfaced by the directory, ledger
// and session services. Callers match them with errors.Is; services add
// context by wrapping.
package apperr

import "errors"

var (
	// ErrNotFound indicates a referenced user or debt does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation or a concurrent write.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument indicates malformed input such as a non-positive amount.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState indicates the operation is not allowed in the record's current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnauthorized indicates bad credentials or a missing/invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")
)
