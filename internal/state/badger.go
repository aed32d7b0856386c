// internal/state/badger.go
//
// Badger-backed Store implementation.
// Responsibilities:
//   - One read-write transaction per Write: read counter, compare, increment,
//     commit blob + counter together. Badger's serializable transactions make
//     the check-and-increment indivisible.
//   - A commit that loses to a concurrent writer surfaces badger.ErrConflict;
//     the transaction is re-run (bounded), which re-reads the counter, so a
//     genuinely stale expected version turns into a clean rejection rather
//     than a spin.
//   - Every entry carries a long TTL; an expired session is indistinguishable
//     from one that never existed.

package state

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	statePrefix   = "gs:"  // serialized state blob
	versionPrefix = "gsv:" // 8-byte big-endian counter

	// entryTTL is the retention window for session state. Roughly 90 days.
	entryTTL = 90 * 24 * time.Hour

	// commitAttempts bounds re-runs on badger commit conflicts.
	commitAttempts = 5
)

// BadgerStore implements Store on top of an open badger DB.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore wraps db with the default retention window.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, ttl: entryTTL}
}

func (s *BadgerStore) Read(ctx context.Context, key string) ([]byte, int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, false, err
	}
	var (
		data    []byte
		version int64
		found   bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(versionPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			version = decodeVersion(val)
			return nil
		}); err != nil {
			return err
		}
		item, err = txn.Get([]byte(statePrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			// counter without blob: treat as absent
			version = 0
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, 0, false, fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}
	return data, version, found, nil
}

func (s *BadgerStore) Write(ctx context.Context, key string, data []byte, expected *int64) (WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return WriteResult{}, err
	}
	var res WriteResult
	for attempt := 0; attempt < commitAttempts; attempt++ {
		res = WriteResult{}
		err := s.db.Update(func(txn *badger.Txn) error {
			current, err := readVersion(txn, key)
			if err != nil {
				return err
			}
			if expected != nil && *expected != current {
				res = WriteResult{Accepted: false, Version: current}
				return nil
			}
			next := current + 1
			if err := txn.SetEntry(badger.NewEntry([]byte(versionPrefix+key), encodeVersion(next)).WithTTL(s.ttl)); err != nil {
				return err
			}
			if err := txn.SetEntry(badger.NewEntry([]byte(statePrefix+key), data).WithTTL(s.ttl)); err != nil {
				return err
			}
			res = WriteResult{Accepted: true, Version: next}
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return WriteResult{}, fmt.Errorf("%w: write %s: %v", ErrUnavailable, key, err)
		}
		return res, nil
	}
	return WriteResult{}, fmt.Errorf("%w: write %s: commit contention", ErrUnavailable, key)
}

func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(statePrefix + key)); err != nil {
			return err
		}
		return txn.Delete([]byte(versionPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// readVersion returns the counter for key within txn, 0 when absent.
func readVersion(txn *badger.Txn, key string) (int64, error) {
	item, err := txn.Get([]byte(versionPrefix + key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var v int64
	err = item.Value(func(val []byte) error {
		v = decodeVersion(val)
		return nil
	})
	return v, err
}

func encodeVersion(v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return b[:]
}

func decodeVersion(b []byte) int64 {
	if len(b) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}
