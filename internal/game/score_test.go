package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/playgrid/sudoku-server/internal/board"
)

func TestAwardPlacementAllThreeUnits(t *testing.T) {
	// one single blank: filling it completes its row, column, and box at once
	st := newState(pairWithBlanks([2]int{4, 4}), board.Beginner)
	st.Board[4][4] = st.Solution[4][4]

	delta := awardPlacement(st, 4, 4, st.Solution[4][4])
	assert.Equal(t, pointsCell+pointsRow+pointsCol+pointsBox, delta.Points)
	assert.Equal(t, []int{4}, st.CompletedRows)
	assert.Equal(t, []int{4}, st.CompletedColumns)
	assert.Equal(t, []int{4}, st.CompletedBoxes)
	assert.Equal(t, delta.Points, st.Score)
}

func TestInsertSortedKeepsOrderWithoutDuplicates(t *testing.T) {
	s := []int{}
	for _, v := range []int{5, 2, 8, 2, 5} {
		s = insertSorted(s, v)
	}
	assert.Equal(t, []int{2, 5, 8}, s)
}

func TestToggleSorted(t *testing.T) {
	s := toggleSorted(nil, 7)
	assert.Equal(t, []int{7}, s)
	s = toggleSorted(s, 3)
	assert.Equal(t, []int{3, 7}, s)
	s = toggleSorted(s, 7)
	assert.Equal(t, []int{3}, s)
	s = toggleSorted(s, 3)
	assert.Empty(t, s)
}
