// internal/puzzlecache/refill.go
//
// Consumer flow and background replenishment for the puzzle cache.
// Responsibilities:
//   - Draw: pop a pre-generated pair; on a hit, fire a non-blocking refill
//     check; on a miss, kick a one-shot bulk warm-up (if the pool is fully
//     empty) and generate one pair synchronously so the caller never waits
//     on the background job.
//   - Per-difficulty atomic flags keep one background job in flight within
//     this process. Duplicate jobs across processes are accepted (no
//     distributed lock), so jobs top up to a target rather than pushing a
//     fixed amount blindly.

package puzzlecache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/playgrid/sudoku-server/internal/board"
)

// Generate produces one fresh pair; swapped out in tests.
type Generate func(d board.Difficulty) board.Pair

// Refiller couples a Cache with a generator and background top-up policy.
type Refiller struct {
	cache *Cache
	gen   Generate
	busy  map[board.Difficulty]*atomic.Bool // one background job per difficulty
}

// NewRefiller builds a Refiller. gen defaults to board.NewPair when nil.
func NewRefiller(cache *Cache, gen Generate) *Refiller {
	if gen == nil {
		gen = board.NewPair
	}
	busy := make(map[board.Difficulty]*atomic.Bool, len(board.Difficulties))
	for _, d := range board.Difficulties {
		busy[d] = &atomic.Bool{}
	}
	return &Refiller{cache: cache, gen: gen, busy: busy}
}

// Draw returns a pair for the difficulty, preferring the cache.
// It never returns an error for cache trouble: the generator is the fallback.
func (r *Refiller) Draw(ctx context.Context, d board.Difficulty) (board.Pair, error) {
	if err := ctx.Err(); err != nil {
		return board.Pair{}, err
	}
	pair, err := r.cache.Pop(ctx, d)
	if err != nil {
		log.Warn().Err(err).Str("difficulty", string(d)).Msg("cache pop failed, generating directly")
		return r.gen(d), nil
	}
	if pair != nil {
		go r.topUp(d)
		return *pair, nil
	}

	// Complete miss. If the pool is fully drained, warm it in the background;
	// either way the caller gets a synchronously generated pair.
	if n, err := r.cache.Count(ctx, d); err == nil && n == 0 {
		go r.warmUp(d)
	}
	return r.gen(d), nil
}

// TopUpAll kicks a background top-up for every difficulty. Called at boot.
func (r *Refiller) TopUpAll() {
	for _, d := range board.Difficulties {
		go r.warmUp(d)
	}
}

// topUp pushes one batch when the pool has dipped below the threshold.
func (r *Refiller) topUp(d board.Difficulty) {
	if !r.busy[d].CompareAndSwap(false, true) {
		return
	}
	defer r.busy[d].Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := r.cache.Count(ctx, d)
	if err != nil {
		log.Warn().Err(err).Str("difficulty", string(d)).Msg("refill count failed")
		return
	}
	if n >= RefillThreshold {
		return
	}
	r.push(ctx, d, BatchSize)
}

// warmUp generates batches until the pool reaches the steady-state target.
func (r *Refiller) warmUp(d board.Difficulty) {
	if !r.busy[d].CompareAndSwap(false, true) {
		return
	}
	defer r.busy[d].Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	for {
		n, err := r.cache.Count(ctx, d)
		if err != nil {
			log.Warn().Err(err).Str("difficulty", string(d)).Msg("warm-up count failed")
			return
		}
		if n >= TargetSize || ctx.Err() != nil {
			return
		}
		batch := TargetSize - n
		if batch > BatchSize {
			batch = BatchSize
		}
		r.push(ctx, d, batch)
	}
}

func (r *Refiller) push(ctx context.Context, d board.Difficulty, n int) {
	pairs := make([]board.Pair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, r.gen(d))
	}
	if err := r.cache.PushBatch(ctx, d, pairs); err != nil {
		log.Warn().Err(err).Str("difficulty", string(d)).Msg("cache push failed")
		return
	}
	log.Debug().Str("difficulty", string(d)).Int("generated", n).Msg("puzzle cache refilled")
}
