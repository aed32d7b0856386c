// internal/state/memory.go
//
// In-memory implementation of the Store interface.
// Same check-and-increment semantics as the Badger store, guarded by a single
// mutex. Used in tests and when durability is not required; state is lost on
// process restart.

package state

import (
	"context"
	"sync"
)

type memory struct {
	mu       sync.Mutex
	data     map[string][]byte // serialized blobs keyed by session key
	versions map[string]int64  // authoritative counters
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{data: make(map[string][]byte), versions: make(map[string]int64)}
}

func (m *memory) Read(ctx context.Context, key string) ([]byte, int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.data[key]
	if !ok {
		return nil, 0, false, nil
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, m.versions[key], true, nil
}

func (m *memory) Write(ctx context.Context, key string, data []byte, expected *int64) (WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.versions[key]
	if expected != nil && *expected != current {
		return WriteResult{Accepted: false, Version: current}, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	next := current + 1
	m.data[key] = cp
	m.versions[key] = next
	return WriteResult{Accepted: true, Version: next}, nil
}

func (m *memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.versions, key)
	return nil
}
