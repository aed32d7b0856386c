// internal/state/store.go
//
// Versioned per-session state persistence.
// The Store contract is the single ordering mechanism of the whole engine:
// a write is accepted only if the caller's expected version matches the
// store's counter at commit time, and the counter moves by exactly 1 per
// accepted write. The counter is authoritative; any version field embedded
// in the stored blob is advisory.
//
// Implementations may be backed by Badger (badger.go), memory (memory.go), etc.

package state

import (
	"context"
	"errors"
)

// ErrUnavailable marks infrastructure failure: the backing store could not be
// reached or the write could not be committed for non-conflict reasons.
// Operations fail closed; callers treat this as retryable, never as logic error.
var ErrUnavailable = errors.New("state store unavailable")

// WriteResult reports the outcome of a Write.
// When Accepted is false, Version carries the store's actual current version
// so the caller can re-synchronize; stored state is untouched.
type WriteResult struct {
	Accepted bool
	Version  int64
}

// Store persists one opaque state blob per key behind a version counter.
type Store interface {
	// Read returns the blob and its authoritative version.
	// found is false when no entry exists (or it expired). Reading never
	// mutates the version.
	Read(ctx context.Context, key string) (data []byte, version int64, found bool, err error)

	// Write commits data under key. If expected is non-nil it must equal the
	// current version or the write is rejected wholesale. On acceptance the
	// counter is atomically incremented (first write yields version 1).
	// A nil expected skips the check but still reports the resulting version.
	Write(ctx context.Context, key string, data []byte, expected *int64) (WriteResult, error)

	// Delete removes both the blob and its version counter.
	Delete(ctx context.Context, key string) error
}
