// internal/game/engine.go
//
// The action-processing state machine.
// Responsibilities:
//   - Dispatch one inbound Action to its handler; each handler reads current
//     state, validates before mutating anything, computes the next state, and
//     commits it through the versioned store with the caller's expected
//     version. Optimistic-lock losses surface as VERSION_CONFLICT carrying
//     the authoritative version so the client can re-sync and retry.
//   - The win path persists the completion record first (the durable fact of
//     the win), then flips gameInProgress under a bounded retry-with-reload,
//     checking on every retry that no concurrent writer finished the game or
//     swapped the puzzle already.
//
// States are implicit in State fields (gameInProgress, lives, fill status);
// there is no explicit state enum.

package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/playgrid/sudoku-server/internal/board"
	"github.com/playgrid/sudoku-server/internal/state"
)

// winWriteAttempts bounds the retry-with-reload loop that lands the
// gameInProgress=false write after a recorded completion.
const winWriteAttempts = 3

// Processor turns Actions into state transitions.
type Processor struct {
	Store       state.Store
	Puzzles     PuzzleSource
	Completions CompletionSink
	Checkouts   CheckoutLedger
}

// NewProcessor wires the processor's collaborators.
func NewProcessor(st state.Store, puzzles PuzzleSource, completions CompletionSink, checkouts CheckoutLedger) *Processor {
	return &Processor{Store: st, Puzzles: puzzles, Completions: completions, Checkouts: checkouts}
}

// Process runs one action against the session's state and returns the result
// envelope. Failures are part of the envelope (success=false + errorCode);
// infrastructure trouble is reported as NETWORK_ERROR, never swallowed.
func (p *Processor) Process(ctx context.Context, sessionID string, act Action) *Result {
	switch act.Type {
	case ActionStartNewGame:
		return p.startNewGame(ctx, sessionID, act)
	case ActionPlaceNumber:
		return p.placeNumber(ctx, sessionID, act)
	case ActionClearCell:
		return p.clearCell(ctx, sessionID, act)
	case ActionToggleNote:
		return p.toggleNote(ctx, sessionID, act)
	case ActionClearNotes:
		return p.clearNotes(ctx, sessionID, act)
	case ActionKeepPlaying, ActionKeepPlayingWithDifficulty:
		return p.keepPlaying(ctx, sessionID, act)
	case ActionPurchaseLife:
		return p.purchaseLife(ctx, sessionID, act)
	default:
		return fail(CodeInvalidMove, "unknown action: "+act.Type)
	}
}

// CurrentState loads the session's state with its authoritative version.
func (p *Processor) CurrentState(ctx context.Context, sessionID string) (*State, bool, error) {
	data, version, found, err := p.Store.Read(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false, err
	}
	st.Version = version
	return &st, true, nil
}

// DeleteState removes the session's state and version counter.
func (p *Processor) DeleteState(ctx context.Context, sessionID string) error {
	return p.Store.Delete(ctx, sessionID)
}

// ----------------------------- handlers ------------------------------------

// startNewGame ignores prior state entirely: a fresh puzzle is drawn, all
// counters reset, and the write still honors the expected version so a
// concurrently mutated session is detected rather than clobbered.
func (p *Processor) startNewGame(ctx context.Context, sessionID string, act Action) *Result {
	d := board.ParseDifficulty(act.Difficulty)
	pair, err := p.Puzzles.Draw(ctx, d)
	if err != nil {
		return fail(CodeNetworkError, "puzzle supply failed")
	}
	st := newState(pair, d)
	if r := p.persist(ctx, sessionID, st, act.ExpectedVersion); r != nil {
		return r
	}
	return ok(st, nil, nil)
}

func (p *Processor) placeNumber(ctx context.Context, sessionID string, act Action) *Result {
	st, r := p.load(ctx, sessionID)
	if r != nil {
		return r
	}
	row, col, value, r := cellAndValue(act)
	if r != nil {
		return r
	}
	if st.Puzzle[row][col] != 0 {
		return fail(CodeInvalidMove, "cell is prefilled")
	}
	if st.Board[row][col] != 0 && st.Board[row][col] == st.Solution[row][col] {
		return fail(CodeInvalidMove, "cell already holds its correct value")
	}
	if st.Lives <= 0 {
		r := fail(CodeNoLives, "no lives remaining")
		r.Modals = &Modals{GameOver: true}
		return r
	}

	if value == st.Solution[row][col] {
		st.Board[row][col] = value
		st.Notes[row][col] = []int{}
		st.Moves++
		delta := awardPlacement(st, row, col, value)
		if board.Complete(st.Board) && st.Board == st.Solution {
			return p.completeWin(ctx, sessionID, st, act.ExpectedVersion, delta)
		}
		if r := p.persist(ctx, sessionID, st, act.ExpectedVersion); r != nil {
			return r
		}
		return ok(st, &delta, nil)
	}

	// Wrong guess: the value still lands on the board so the UI can render
	// it as incorrect; an error event replaces the score event.
	st.Board[row][col] = value
	st.Mistakes++
	if st.Lives > 0 {
		st.Lives--
	}
	delta := ScoreDelta{Events: []Event{{Type: "error", Row: intp(row), Col: intp(col), Value: intp(value)}}}
	var modals *Modals
	if st.Lives == 0 {
		modals = &Modals{PurchaseLife: true}
	}
	if r := p.persist(ctx, sessionID, st, act.ExpectedVersion); r != nil {
		return r
	}
	return ok(st, &delta, modals)
}

func (p *Processor) clearCell(ctx context.Context, sessionID string, act Action) *Result {
	st, r := p.load(ctx, sessionID)
	if r != nil {
		return r
	}
	if act.Row == nil || act.Col == nil || !board.InBounds(*act.Row, *act.Col) {
		return fail(CodeInvalidMove, "row and col must be 0-8")
	}
	row, col := *act.Row, *act.Col
	if st.Puzzle[row][col] != 0 {
		return fail(CodeInvalidMove, "cell is prefilled")
	}
	st.Board[row][col] = 0
	if r := p.persist(ctx, sessionID, st, act.ExpectedVersion); r != nil {
		return r
	}
	return ok(st, nil, nil)
}

func (p *Processor) toggleNote(ctx context.Context, sessionID string, act Action) *Result {
	st, r := p.load(ctx, sessionID)
	if r != nil {
		return r
	}
	row, col, value, r := cellAndValue(act)
	if r != nil {
		return r
	}
	if st.Puzzle[row][col] != 0 {
		return fail(CodeInvalidMove, "cell is prefilled")
	}
	st.Notes[row][col] = toggleSorted(st.Notes[row][col], value)
	if r := p.persist(ctx, sessionID, st, act.ExpectedVersion); r != nil {
		return r
	}
	return ok(st, nil, nil)
}

// clearNotes is the combined "erase mistakes and marks" operation: every
// pencil mark goes, and so does every board cell that is neither a given nor
// already correct. Correct fills survive.
func (p *Processor) clearNotes(ctx context.Context, sessionID string, act Action) *Result {
	st, r := p.load(ctx, sessionID)
	if r != nil {
		return r
	}
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			st.Notes[row][col] = []int{}
			if st.Puzzle[row][col] == 0 && st.Board[row][col] != st.Solution[row][col] {
				st.Board[row][col] = 0
			}
		}
	}
	if r := p.persist(ctx, sessionID, st, act.ExpectedVersion); r != nil {
		return r
	}
	return ok(st, nil, nil)
}

// keepPlaying swaps in a fresh puzzle (optionally at a new difficulty) while
// explicitly preserving the cumulative counters: score, moves, mistakes,
// lives, livesPurchased.
func (p *Processor) keepPlaying(ctx context.Context, sessionID string, act Action) *Result {
	st, r := p.load(ctx, sessionID)
	if r != nil {
		return r
	}
	d := st.Difficulty
	if act.Type == ActionKeepPlayingWithDifficulty && act.Difficulty != "" {
		d = board.ParseDifficulty(act.Difficulty)
	}
	pair, err := p.Puzzles.Draw(ctx, d)
	if err != nil {
		return fail(CodeNetworkError, "puzzle supply failed")
	}

	st.Puzzle = pair.Puzzle
	st.Solution = pair.Solution
	st.Board = pair.Puzzle
	st.Notes = emptyNotes()
	st.Difficulty = d
	st.CompletedRows = []int{}
	st.CompletedColumns = []int{}
	st.CompletedBoxes = []int{}
	st.GameInProgress = true
	st.StartedAt = time.Now().UTC()

	if r := p.persist(ctx, sessionID, st, act.ExpectedVersion); r != nil {
		return r
	}
	return ok(st, nil, nil)
}

// purchaseLife is the one deliberate exception to "never partially apply":
// state is committed before the ledger write, so a ledger failure leaves
// lives incremented but the checkout unmarked. The call reports failure and
// a retry of the same checkoutId remains safe.
func (p *Processor) purchaseLife(ctx context.Context, sessionID string, act Action) *Result {
	if act.CheckoutID == "" {
		return fail(CodeMissingCheckoutID, "checkoutId is required")
	}
	processed, err := p.Checkouts.IsProcessed(ctx, act.CheckoutID)
	if err != nil {
		return fail(CodeNetworkError, "checkout ledger unavailable")
	}
	if processed {
		return fail(CodeAlreadyProcessed, "checkout already processed")
	}
	st, r := p.load(ctx, sessionID)
	if r != nil {
		return r
	}
	st.Lives++
	st.LivesPurchased++
	if r := p.persist(ctx, sessionID, st, act.ExpectedVersion); r != nil {
		return r
	}
	if err := p.Checkouts.MarkProcessed(ctx, act.CheckoutID, sessionID); err != nil {
		log.Error().Err(err).Str("checkoutId", act.CheckoutID).Msg("life purchased but ledger write failed")
		r := fail(CodeNetworkError, "purchase applied but not recorded; retry is safe")
		r.State = st
		r.Version = st.Version
		return r
	}
	return ok(st, nil, nil)
}

// ------------------------------ win path -----------------------------------

// completeWin records the completion (the durable fact of the win), then
// lands gameInProgress=false under a bounded retry. Losing every retry is
// still a success with a warning: the completion record already exists.
func (p *Processor) completeWin(ctx context.Context, sessionID string, st *State, expected *int64, delta ScoreDelta) *Result {
	// Defensive re-validation; placeNumber only calls this on a full match.
	if !board.Complete(st.Board) || st.Board != st.Solution {
		return fail(CodeInvalidMove, "board is not a completed solution")
	}

	completedAt := time.Now().UTC()
	qualified, err := p.Completions.QualifiesForLeaderboard(ctx, st.Score, st.Difficulty)
	if err != nil {
		log.Warn().Err(err).Msg("leaderboard qualification check failed")
		qualified = false
	}
	comp := Completion{
		ID:                     uuid.NewString(),
		SessionID:              sessionID,
		Score:                  st.Score,
		Difficulty:             st.Difficulty,
		Mistakes:               st.Mistakes,
		Moves:                  st.Moves,
		Duration:               completedAt.Sub(st.StartedAt),
		StartedAt:              st.StartedAt,
		CompletedAt:            completedAt,
		EligibleForLeaderboard: qualified,
	}
	if err := p.Completions.SaveCompletion(ctx, comp); err != nil {
		return fail(CodeNetworkError, "completion record write failed")
	}

	st.GameInProgress = false
	win := func(s *State, warning string) *Result {
		r := ok(s, &delta, &Modals{Win: true})
		r.Completed = true
		r.CompletionID = comp.ID
		r.QualifiedForLeaderboard = qualified
		r.Warning = warning
		return r
	}

	exp := expected
	for attempt := 0; attempt < winWriteAttempts; attempt++ {
		blob, merr := json.Marshal(st)
		if merr != nil {
			return fail(CodeNetworkError, "encode state: "+merr.Error())
		}
		res, werr := p.Store.Write(ctx, sessionID, blob, exp)
		if werr == nil && res.Accepted {
			st.Version = res.Version
			return win(st, "")
		}
		if werr != nil {
			log.Warn().Err(werr).Int("attempt", attempt+1).Msg("win-path state write failed")
			continue
		}

		// Version conflict: reload, confirm nobody already finished or
		// replaced the game, then reapply the win onto the fresh state.
		cur, fr := p.load(ctx, sessionID)
		if fr != nil {
			continue
		}
		if !cur.GameInProgress {
			// A concurrent writer already marked the game finished; do not
			// rewrite, and do not double-count the win.
			return win(cur, "")
		}
		if cur.Puzzle != st.Puzzle {
			// The session moved on to a different puzzle mid-flight.
			return win(st, "completion recorded; session state was superseded")
		}
		merged := *cur
		merged.Board = st.Board
		merged.Score = st.Score
		merged.Moves = st.Moves
		merged.Mistakes = st.Mistakes
		merged.Notes = st.Notes
		merged.CompletedRows = st.CompletedRows
		merged.CompletedColumns = st.CompletedColumns
		merged.CompletedBoxes = st.CompletedBoxes
		merged.GameInProgress = false
		v := cur.Version
		st = &merged
		exp = &v
	}
	return win(st, "completion recorded; state update lost to concurrent writes")
}

// ------------------------------ helpers ------------------------------------

func newState(pair board.Pair, d board.Difficulty) *State {
	return &State{
		Puzzle:           pair.Puzzle,
		Solution:         pair.Solution,
		Board:            pair.Puzzle,
		Notes:            emptyNotes(),
		Difficulty:       d,
		Lives:            InitialLives,
		CompletedRows:    []int{},
		CompletedColumns: []int{},
		CompletedBoxes:   []int{},
		GameInProgress:   true,
		StartedAt:        time.Now().UTC(),
	}
}

// emptyNotes gives every cell an empty (non-nil) mark set so the serialized
// state renders as [] rather than null.
func emptyNotes() board.Notes {
	var n board.Notes
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			n[r][c] = []int{}
		}
	}
	return n
}

// load reads and decodes the session's state; the returned *Result is nil on
// success and a ready-to-return failure otherwise.
func (p *Processor) load(ctx context.Context, sessionID string) (*State, *Result) {
	data, version, found, err := p.Store.Read(ctx, sessionID)
	if err != nil {
		return nil, fail(CodeNetworkError, "state read failed")
	}
	if !found {
		return nil, fail(CodeGameNotFound, "no game exists for this session")
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fail(CodeNetworkError, "state decode failed")
	}
	st.Version = version
	return &st, nil
}

// persist commits st through the store. Nil means success (st.Version is
// updated to the authoritative value); otherwise the failure result carries
// the store's current version on conflicts.
func (p *Processor) persist(ctx context.Context, sessionID string, st *State, expected *int64) *Result {
	blob, err := json.Marshal(st)
	if err != nil {
		return fail(CodeNetworkError, "encode state: "+err.Error())
	}
	res, err := p.Store.Write(ctx, sessionID, blob, expected)
	if err != nil {
		return fail(CodeNetworkError, "state write failed")
	}
	if !res.Accepted {
		r := fail(CodeVersionConflict, "state changed since last read")
		r.Version = res.Version
		return r
	}
	st.Version = res.Version
	return nil
}

func cellAndValue(act Action) (row, col, value int, r *Result) {
	if act.Row == nil || act.Col == nil || !board.InBounds(*act.Row, *act.Col) {
		return 0, 0, 0, fail(CodeInvalidMove, "row and col must be 0-8")
	}
	if act.Value == nil || *act.Value < 1 || *act.Value > 9 {
		return 0, 0, 0, fail(CodeInvalidMove, "value must be 1-9")
	}
	return *act.Row, *act.Col, *act.Value, nil
}

func ok(st *State, delta *ScoreDelta, modals *Modals) *Result {
	return &Result{Success: true, State: st, ScoreDelta: delta, Modals: modals, Version: st.Version}
}

func fail(code, msg string) *Result {
	return &Result{Success: false, Error: msg, ErrorCode: code}
}
