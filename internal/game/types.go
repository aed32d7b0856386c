// internal/game/types.go
//
// Type definitions for the action-processing state machine.
// Defines:
//   - State: the full per-session game state, serialized wholesale into the
//     versioned store. Its embedded Version field is advisory; the store's
//     counter decides concurrency.
//   - Action / Result: the request and response envelopes of one transition.
//   - Error codes and the collaborator contracts the processor consumes.

package game

import (
	"context"
	"time"

	"github.com/playgrid/sudoku-server/internal/board"
)

// InitialLives is the lives allotment a new game starts with.
const InitialLives = 2

// State is one session's game state. Exactly one exists per session; every
// accepted write replaces it wholesale.
type State struct {
	Puzzle     board.Grid       `json:"puzzle"`
	Solution   board.Grid       `json:"solution"`
	Board      board.Grid       `json:"board"`
	Notes      board.Notes      `json:"notes"`
	Difficulty board.Difficulty `json:"difficulty"`

	Score          int `json:"score"`
	Moves          int `json:"moves"`
	Mistakes       int `json:"mistakes"`
	Lives          int `json:"lives"`
	LivesPurchased int `json:"livesPurchased"`

	// Indices 0–8 of units already credited, sorted, monotonically growing
	// within one puzzle's lifetime.
	CompletedRows    []int `json:"completedRows"`
	CompletedColumns []int `json:"completedColumns"`
	CompletedBoxes   []int `json:"completedBoxes"`

	GameInProgress bool      `json:"gameInProgress"`
	StartedAt      time.Time `json:"startedAt"`

	// Version mirrors the store counter at the last read/write. Advisory:
	// carried for audit and client display only, never for concurrency.
	Version int64 `json:"version"`
}

// Action is one user-intent request; transient, never persisted.
// Coordinate and value fields are pointers so "absent" is distinguishable
// from a legitimate zero.
type Action struct {
	Type            string `json:"action"`
	Row             *int   `json:"row,omitempty"`
	Col             *int   `json:"col,omitempty"`
	Value           *int   `json:"value,omitempty"`
	Difficulty      string `json:"difficulty,omitempty"`
	CheckoutID      string `json:"checkoutId,omitempty"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

// Action type strings dispatched by the processor.
const (
	ActionStartNewGame              = "startNewGame"
	ActionPlaceNumber               = "placeNumber"
	ActionClearCell                 = "clearCell"
	ActionToggleNote                = "toggleNote"
	ActionClearNotes                = "clearNotes"
	ActionKeepPlaying               = "keepPlaying"
	ActionKeepPlayingWithDifficulty = "keepPlayingWithDifficulty"
	ActionPurchaseLife              = "purchaseLife"
)

// Machine-readable error codes carried on failed results.
const (
	CodeInvalidMove       = "INVALID_MOVE"
	CodeNoLives           = "NO_LIVES"
	CodeVersionConflict   = "VERSION_CONFLICT"
	CodeGameNotFound      = "GAME_NOT_FOUND"
	CodeMissingCheckoutID = "MISSING_CHECKOUT_ID"
	CodeAlreadyProcessed  = "ALREADY_PROCESSED"
	CodeNetworkError      = "NETWORK_ERROR"
)

// Event is one scoring (or error) occurrence within a transition.
type Event struct {
	Type  string `json:"type"` // "cell" | "row" | "column" | "box" | "error"
	Row   *int   `json:"row,omitempty"`
	Col   *int   `json:"col,omitempty"`
	Value *int   `json:"value,omitempty"`
	Index *int   `json:"index,omitempty"` // unit index for row/column/box events
}

// ScoreDelta aggregates the points and events of one transition.
type ScoreDelta struct {
	Points int     `json:"points"`
	Events []Event `json:"events"`
}

// Modals flags UI dialogs the client should raise.
type Modals struct {
	Win          bool `json:"win"`
	GameOver     bool `json:"gameOver"`
	PurchaseLife bool `json:"purchaseLife"`
}

// Result is the response envelope of one processed action.
type Result struct {
	Success                 bool        `json:"success"`
	State                   *State      `json:"state,omitempty"`
	ScoreDelta              *ScoreDelta `json:"scoreDelta,omitempty"`
	Modals                  *Modals     `json:"modals,omitempty"`
	Completed               bool        `json:"completed,omitempty"`
	CompletionID            string      `json:"completionId,omitempty"`
	QualifiedForLeaderboard bool        `json:"qualifiedForLeaderboard,omitempty"`
	Warning                 string      `json:"warning,omitempty"`
	Error                   string      `json:"error,omitempty"`
	ErrorCode               string      `json:"errorCode,omitempty"`
	Version                 int64       `json:"version,omitempty"`
}

// Completion is the durable record of a finished puzzle, persisted by the
// CompletionSink before the live state is flipped out of progress.
type Completion struct {
	ID                     string           `json:"completionId"`
	SessionID              string           `json:"sessionId"`
	Score                  int              `json:"score"`
	Difficulty             board.Difficulty `json:"difficulty"`
	Mistakes               int              `json:"mistakes"`
	Moves                  int              `json:"moves"`
	Duration               time.Duration    `json:"duration"`
	StartedAt              time.Time        `json:"startedAt"`
	CompletedAt            time.Time        `json:"completedAt"`
	EligibleForLeaderboard bool             `json:"eligibleForLeaderboard"`
	SubmittedToLeaderboard bool             `json:"submittedToLeaderboard"`
}

// PuzzleSource supplies {puzzle, solution} pairs (the cache front).
type PuzzleSource interface {
	Draw(ctx context.Context, d board.Difficulty) (board.Pair, error)
}

// CompletionSink persists completion records and answers the leaderboard
// qualification predicate.
type CompletionSink interface {
	SaveCompletion(ctx context.Context, c Completion) error
	QualifiesForLeaderboard(ctx context.Context, score int, d board.Difficulty) (bool, error)
}

// CheckoutLedger is the idempotency ledger for life purchases.
type CheckoutLedger interface {
	IsProcessed(ctx context.Context, checkoutID string) (bool, error)
	MarkProcessed(ctx context.Context, checkoutID, sessionID string) error
}
