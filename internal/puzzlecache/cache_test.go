package puzzlecache

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playgrid/sudoku-server/internal/board"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

// tiny distinguishable pairs; real grids are unnecessary for queue semantics
func pairWithMarker(n int) board.Pair {
	var p board.Pair
	p.Solution[0][0] = n
	return p
}

func TestPushPopBalance(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	pairs := make([]board.Pair, 7)
	for i := range pairs {
		pairs[i] = pairWithMarker(i + 1)
	}
	require.NoError(t, c.PushBatch(ctx, board.Beginner, pairs))

	n, err := c.Count(ctx, board.Beginner)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	for i := 0; i < 3; i++ {
		p, err := c.Pop(ctx, board.Beginner)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, i+1, p.Solution[0][0], "FIFO order")
	}

	n, err = c.Count(ctx, board.Beginner)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestNoPairServedTwice(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	pairs := make([]board.Pair, 5)
	for i := range pairs {
		pairs[i] = pairWithMarker(i + 1)
	}
	require.NoError(t, c.PushBatch(ctx, board.Medium, pairs))

	seen := map[int]bool{}
	for {
		p, err := c.Pop(ctx, board.Medium)
		require.NoError(t, err)
		if p == nil {
			break
		}
		marker := p.Solution[0][0]
		assert.False(t, seen[marker], "pair %d served twice", marker)
		seen[marker] = true
	}
	assert.Len(t, seen, 5)
}

func TestPopEmptyReturnsNil(t *testing.T) {
	c := openTestCache(t)
	p, err := c.Pop(context.Background(), board.Hard)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDifficultiesAreIsolated(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.PushBatch(ctx, board.Beginner, []board.Pair{pairWithMarker(1)}))

	p, err := c.Pop(ctx, board.Hard)
	require.NoError(t, err)
	assert.Nil(t, p)

	n, err := c.Count(ctx, board.Beginner)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClearResetsQueue(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.PushBatch(ctx, board.Beginner, []board.Pair{pairWithMarker(1), pairWithMarker(2)}))
	require.NoError(t, c.Clear(ctx, board.Beginner))

	n, err := c.Count(ctx, board.Beginner)
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := c.Pop(ctx, board.Beginner)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDrawMissGeneratesSynchronously(t *testing.T) {
	c := openTestCache(t)
	var calls atomic.Int32 // the warm-up goroutine may also invoke gen
	gen := func(d board.Difficulty) board.Pair {
		calls.Add(1)
		return pairWithMarker(9)
	}
	r := NewRefiller(c, gen)

	p, err := r.Draw(context.Background(), board.Beginner)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Solution[0][0])
	assert.GreaterOrEqual(t, calls.Load(), int32(1), "miss generates at least the returned pair")
}

func TestDrawHitServesFromCache(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.PushBatch(ctx, board.Beginner, []board.Pair{pairWithMarker(3)}))

	r := NewRefiller(c, func(d board.Difficulty) board.Pair { return pairWithMarker(42) })
	p, err := r.Draw(ctx, board.Beginner)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Solution[0][0], "served from cache, not generator")
}
