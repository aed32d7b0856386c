// internal/records/records.go
//
// SQLite-backed collaborator store for the game engine.
// Responsibilities:
//   - Completion records: the durable fact of each finished puzzle.
//   - Leaderboard: top-N query per difficulty and the "does this score
//     qualify" predicate the win path consults.
//   - Processed-checkout ledger: idempotency for life purchases.
//
// Schema lives in the embedded sql/ migrations applied at startup.

package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/playgrid/sudoku-server/internal/board"
	"github.com/playgrid/sudoku-server/internal/game"
)

// LeaderboardSize is the N of the top-N qualification predicate.
const LeaderboardSize = 20

// Store wraps the sqlite handle. Implements game.CompletionSink and
// game.CheckoutLedger.
type Store struct {
	db *sql.DB
}

// New wraps an open database.
func New(db *sql.DB) *Store { return &Store{db: db} }

// SaveCompletion inserts one completion row.
func (s *Store) SaveCompletion(ctx context.Context, c game.Completion) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO completions
            (id, session_id, score, difficulty, mistakes, moves, duration_ms,
             started_at, completed_at, eligible_for_leaderboard, submitted_to_leaderboard)
        VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.SessionID, c.Score, string(c.Difficulty), c.Mistakes, c.Moves,
		c.Duration.Milliseconds(),
		c.StartedAt.UTC().Format(time.RFC3339), c.CompletedAt.UTC().Format(time.RFC3339),
		boolToInt(c.EligibleForLeaderboard), boolToInt(c.SubmittedToLeaderboard),
	)
	if err != nil {
		return fmt.Errorf("insert completion %s: %w", c.ID, err)
	}
	return nil
}

// QualifiesForLeaderboard reports whether a score would enter the current
// top-N for a difficulty: trivially yes while the board is short, otherwise
// only strictly above the Nth-best score.
func (s *Store) QualifiesForLeaderboard(ctx context.Context, score int, d board.Difficulty) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM completions WHERE difficulty=?`, string(d),
	).Scan(&count); err != nil {
		return false, fmt.Errorf("count completions: %w", err)
	}
	if count < LeaderboardSize {
		return true, nil
	}
	var nthBest int
	if err := s.db.QueryRowContext(ctx, `
        SELECT score FROM completions WHERE difficulty=?
        ORDER BY score DESC LIMIT 1 OFFSET ?`,
		string(d), LeaderboardSize-1,
	).Scan(&nthBest); err != nil {
		return false, fmt.Errorf("nth-best score: %w", err)
	}
	return score > nthBest, nil
}

// Entry is one leaderboard row.
type Entry struct {
	SessionID   string `json:"sessionId"`
	Score       int    `json:"score"`
	Mistakes    int    `json:"mistakes"`
	Moves       int    `json:"moves"`
	DurationMs  int64  `json:"durationMs"`
	CompletedAt string `json:"completedAt"`
}

// Leaderboard returns the top entries for a difficulty, best score first,
// ties broken by shorter duration then earlier completion.
func (s *Store) Leaderboard(ctx context.Context, d board.Difficulty, limit int) ([]Entry, error) {
	if limit <= 0 || limit > LeaderboardSize {
		limit = LeaderboardSize
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT session_id, score, mistakes, moves, duration_ms, completed_at
        FROM completions
        WHERE difficulty=?
        ORDER BY score DESC, duration_ms ASC, completed_at ASC
        LIMIT ?`, string(d), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SessionID, &e.Score, &e.Mistakes, &e.Moves, &e.DurationMs, &e.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// IsProcessed reports whether a checkout id was already consumed.
func (s *Store) IsProcessed(ctx context.Context, checkoutID string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM processed_checkouts WHERE checkout_id=?`, checkoutID,
	).Scan(&cnt)
	if err != nil {
		return false, fmt.Errorf("query checkout %s: %w", checkoutID, err)
	}
	return cnt > 0, nil
}

// MarkProcessed records a consumed checkout id. Re-marking the same id is a
// no-op thanks to the primary key.
func (s *Store) MarkProcessed(ctx context.Context, checkoutID, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO processed_checkouts (checkout_id, session_id, processed_at)
        VALUES (?,?,?)`,
		checkoutID, sessionID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("mark checkout %s: %w", checkoutID, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
