package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped);
// services translate them into domain errors.
//
//   - ErrNotFound: record does not exist
//   - ErrConflict: a compare-and-swap lost to a concurrent writer, or a unique key clashed
//   - ErrAlreadyUsed: a write-once field was already set
//   - ErrInvalidState: record is in the wrong state for the requested write
//   - ErrUnavailable: backing store temporarily unreachable
//
// For validation errors use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
