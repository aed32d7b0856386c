// internal/puzzlecache/cache.go
//
// Per-difficulty FIFO of pre-generated {puzzle, solution} pairs, backed by a
// counted queue in Badger.
// Layout per difficulty d:
//   pq:<d>:h            head counter (next sequence to pop)
//   pq:<d>:t            tail counter (next sequence to push)
//   pq:<d>:e:<seq>      one JSON-encoded pair, with a retention TTL
//
// Push and pop each run in one read-write transaction, so counters and
// entries move together and no pair is ever served twice. Entries that
// expire before being popped are skipped by advancing the head.

package puzzlecache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/playgrid/sudoku-server/internal/board"
)

const (
	// TargetSize is the steady-state pool per difficulty.
	TargetSize = 100
	// RefillThreshold triggers a background batch when the count drops below it.
	RefillThreshold = 80
	// BatchSize is how many puzzles one refill generates.
	BatchSize = 20

	// retention bounds how long an unconsumed pair stays poppable.
	retention = 7 * 24 * time.Hour

	commitAttempts = 5
)

// ErrUnavailable marks a cache backend failure. Callers fall back to direct
// generation rather than failing the request.
var ErrUnavailable = errors.New("puzzle cache unavailable")

// Cache is the badger-backed counted queue.
type Cache struct {
	db *badger.DB
}

// New wraps an open badger DB.
func New(db *badger.DB) *Cache { return &Cache{db: db} }

func headKey(d board.Difficulty) []byte { return []byte("pq:" + string(d) + ":h") }
func tailKey(d board.Difficulty) []byte { return []byte("pq:" + string(d) + ":t") }

func entryKey(d board.Difficulty, seq uint64) []byte {
	k := []byte("pq:" + string(d) + ":e:")
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return append(k, b[:]...)
}

// Pop dequeues the oldest unexpired pair, or returns nil on an empty queue.
func (c *Cache) Pop(ctx context.Context, d board.Difficulty) (*board.Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var popped *board.Pair
	err := c.update(func(txn *badger.Txn) error {
		popped = nil
		head, err := readCounter(txn, headKey(d))
		if err != nil {
			return err
		}
		tail, err := readCounter(txn, tailKey(d))
		if err != nil {
			return err
		}
		for head < tail {
			item, err := txn.Get(entryKey(d, head))
			if errors.Is(err, badger.ErrKeyNotFound) {
				head++ // expired before consumption
				continue
			}
			if err != nil {
				return err
			}
			var pair board.Pair
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &pair)
			}); err != nil {
				return err
			}
			if err := txn.Delete(entryKey(d, head)); err != nil {
				return err
			}
			head++
			popped = &pair
			break
		}
		return writeCounter(txn, headKey(d), head)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: pop %s: %v", ErrUnavailable, d, err)
	}
	return popped, nil
}

// PushBatch enqueues pairs at the tail in order. Each entry carries the
// retention TTL from the moment of insertion.
func (c *Cache) PushBatch(ctx context.Context, d board.Difficulty, pairs []board.Pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}
	err := c.update(func(txn *badger.Txn) error {
		tail, err := readCounter(txn, tailKey(d))
		if err != nil {
			return err
		}
		for _, p := range pairs {
			blob, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := txn.SetEntry(badger.NewEntry(entryKey(d, tail), blob).WithTTL(retention)); err != nil {
				return err
			}
			tail++
		}
		return writeCounter(txn, tailKey(d), tail)
	})
	if err != nil {
		return fmt.Errorf("%w: push %s: %v", ErrUnavailable, d, err)
	}
	return nil
}

// Count reports the live count (tail minus head) for a difficulty.
func (c *Cache) Count(ctx context.Context, d board.Difficulty) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := c.db.View(func(txn *badger.Txn) error {
		head, err := readCounter(txn, headKey(d))
		if err != nil {
			return err
		}
		tail, err := readCounter(txn, tailKey(d))
		if err != nil {
			return err
		}
		n = int(tail - head)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %v", ErrUnavailable, d, err)
	}
	return n, nil
}

// Clear drops every queued pair for a difficulty and resets its counters.
// Admin surface; not used on any request path.
func (c *Cache) Clear(ctx context.Context, d board.Difficulty) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.update(func(txn *badger.Txn) error {
		head, err := readCounter(txn, headKey(d))
		if err != nil {
			return err
		}
		tail, err := readCounter(txn, tailKey(d))
		if err != nil {
			return err
		}
		for seq := head; seq < tail; seq++ {
			if err := txn.Delete(entryKey(d, seq)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		if err := txn.Delete(headKey(d)); err != nil {
			return err
		}
		return txn.Delete(tailKey(d))
	})
	if err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrUnavailable, d, err)
	}
	return nil
}

// update runs fn in a read-write transaction, re-running on commit conflicts.
func (c *Cache) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < commitAttempts; attempt++ {
		err = c.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func readCounter(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var v uint64
	err = item.Value(func(val []byte) error {
		if len(val) == 8 {
			v = binary.BigEndian.Uint64(val)
		}
		return nil
	})
	return v, err
}

func writeCounter(txn *badger.Txn, key []byte, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return txn.Set(key, b[:])
}
