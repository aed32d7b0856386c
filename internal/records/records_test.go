package records

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playgrid/sudoku-server/internal/board"
	"github.com/playgrid/sudoku-server/internal/game"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
        CREATE TABLE completions (
            id TEXT PRIMARY KEY,
            session_id TEXT NOT NULL,
            score INTEGER NOT NULL,
            difficulty TEXT NOT NULL,
            mistakes INTEGER NOT NULL,
            moves INTEGER NOT NULL,
            duration_ms INTEGER NOT NULL,
            started_at TEXT NOT NULL,
            completed_at TEXT NOT NULL,
            eligible_for_leaderboard INTEGER NOT NULL DEFAULT 0,
            submitted_to_leaderboard INTEGER NOT NULL DEFAULT 0
        );
        CREATE TABLE processed_checkouts (
            checkout_id TEXT PRIMARY KEY,
            session_id TEXT,
            processed_at TEXT NOT NULL
        );`)
	require.NoError(t, err)
	return New(db)
}

func completion(id string, score int) game.Completion {
	now := time.Now().UTC()
	return game.Completion{
		ID:          id,
		SessionID:   "sess-" + id,
		Score:       score,
		Difficulty:  board.Beginner,
		Duration:    3 * time.Minute,
		StartedAt:   now.Add(-3 * time.Minute),
		CompletedAt: now,
	}
}

func TestSaveCompletionAndLeaderboard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCompletion(ctx, completion("a", 120)))
	require.NoError(t, s.SaveCompletion(ctx, completion("b", 200)))
	require.NoError(t, s.SaveCompletion(ctx, completion("c", 150)))

	entries, err := s.Leaderboard(ctx, board.Beginner, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 200, entries[0].Score)
	assert.Equal(t, 150, entries[1].Score)
	assert.Equal(t, 120, entries[2].Score)
}

func TestQualifiesWhileBoardIsShort(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.QualifiesForLeaderboard(ctx, 1, board.Beginner)
	require.NoError(t, err)
	assert.True(t, ok, "any score qualifies on an empty board")
}

func TestQualifiesAgainstFullBoard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Fill the board with scores 10, 20, ..., LeaderboardSize*10.
	for i := 1; i <= LeaderboardSize; i++ {
		require.NoError(t, s.SaveCompletion(ctx, completion(fmt.Sprintf("c%d", i), i*10)))
	}

	ok, err := s.QualifiesForLeaderboard(ctx, 10, board.Beginner)
	require.NoError(t, err)
	assert.False(t, ok, "matching the worst listed score does not qualify")

	ok, err = s.QualifiesForLeaderboard(ctx, 11, board.Beginner)
	require.NoError(t, err)
	assert.True(t, ok, "beating the Nth-best score qualifies")

	// Another difficulty's board is independent.
	ok, err = s.QualifiesForLeaderboard(ctx, 1, board.Hard)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckoutLedgerIdempotency(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.IsProcessed(ctx, "chk_1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.MarkProcessed(ctx, "chk_1", "sess-1"))

	ok, err = s.IsProcessed(ctx, "chk_1")
	require.NoError(t, err)
	assert.True(t, ok)

	// re-marking is a silent no-op
	require.NoError(t, s.MarkProcessed(ctx, "chk_1", "sess-2"))
}
