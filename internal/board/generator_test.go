package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSolutionIsValid(t *testing.T) {
	for i := 0; i < 10; i++ {
		g := GenerateSolution()
		require.True(t, ValidSolution(g), "generated grid must satisfy all units")
		require.True(t, Complete(g))
	}
}

func TestDeriveRemovesExactCount(t *testing.T) {
	sol := GenerateSolution()
	for _, d := range Difficulties {
		t.Run(string(d), func(t *testing.T) {
			puz := Derive(sol, d)
			blanks, diffs := 0, 0
			for r := 0; r < 9; r++ {
				for c := 0; c < 9; c++ {
					if puz[r][c] == 0 {
						blanks++
					}
					if puz[r][c] != sol[r][c] {
						diffs++
					}
				}
			}
			assert.Equal(t, d.CellsToRemove(), blanks)
			// every difference from the solution is a blank, never a rewrite
			assert.Equal(t, blanks, diffs)
		})
	}
}

func TestNewPairPuzzleMatchesSolutionOnGivens(t *testing.T) {
	p := NewPair(Medium)
	require.True(t, ValidSolution(p.Solution))
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if p.Puzzle[r][c] != 0 {
				assert.Equal(t, p.Solution[r][c], p.Puzzle[r][c])
			}
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	assert.Equal(t, Hard, ParseDifficulty("hard"))
	assert.Equal(t, Medium, ParseDifficulty("medium"))
	assert.Equal(t, Beginner, ParseDifficulty("beginner"))
	assert.Equal(t, Beginner, ParseDifficulty("nightmare"))
	assert.Equal(t, Beginner, ParseDifficulty(""))
}
