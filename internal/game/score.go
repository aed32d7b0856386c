// internal/game/score.go
//
// Scoring rules for correct placements. Small but load-bearing: the
// completed-sets on State are what make unit bonuses idempotent — a row,
// column, or box is credited at most once per puzzle instance, no matter
// how the board got there.

package game

import "github.com/playgrid/sudoku-server/internal/board"

// Points per scoring unit.
const (
	pointsCell = 1
	pointsRow  = 5
	pointsCol  = 5
	pointsBox  = 10
)

// awardPlacement credits a correct placement at (row, col): one point for the
// cell plus bonuses for each newly completed, not-yet-credited unit. Mutates
// st's score and completed-sets and returns the delta for the envelope.
func awardPlacement(st *State, row, col, value int) ScoreDelta {
	delta := ScoreDelta{Points: pointsCell}
	delta.Events = append(delta.Events, Event{Type: "cell", Row: intp(row), Col: intp(col), Value: intp(value)})

	if board.RowComplete(st.Board, row) && !containsInt(st.CompletedRows, row) {
		st.CompletedRows = insertSorted(st.CompletedRows, row)
		delta.Points += pointsRow
		delta.Events = append(delta.Events, Event{Type: "row", Index: intp(row)})
	}
	if board.ColComplete(st.Board, col) && !containsInt(st.CompletedColumns, col) {
		st.CompletedColumns = insertSorted(st.CompletedColumns, col)
		delta.Points += pointsCol
		delta.Events = append(delta.Events, Event{Type: "column", Index: intp(col)})
	}
	box := board.BoxIndex(row, col)
	if board.BoxComplete(st.Board, box) && !containsInt(st.CompletedBoxes, box) {
		st.CompletedBoxes = insertSorted(st.CompletedBoxes, box)
		delta.Points += pointsBox
		delta.Events = append(delta.Events, Event{Type: "box", Index: intp(box)})
	}

	st.Score += delta.Points
	return delta
}

func intp(v int) *int { return &v }

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// insertSorted keeps the completed-sets sorted ascending without duplicates.
func insertSorted(s []int, v int) []int {
	i := 0
	for i < len(s) && s[i] < v {
		i++
	}
	if i < len(s) && s[i] == v {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// toggleSorted adds v to a sorted set if absent, removes it if present.
func toggleSorted(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return insertSorted(s, v)
}
