// internal/board/board.go
//
// Core grid types for the sudoku engine.
// Defines:
//   - Grid: a 9×9 array of digits, 0 meaning blank.
//   - Notes: per-cell pencil marks, kept sorted ascending.
//   - Difficulty: named removal profiles (beginner/medium/hard).
//   - Pair: an unconsumed {puzzle, solution} unit, the currency of the puzzle cache.
//
// Grid is an array type, so plain assignment copies it; callers never need a
// deep-clone helper for grids. Notes hold slices and must be copied cell by cell.

package board

// Grid is a 9×9 sudoku grid. 0 marks a blank cell; filled cells hold 1–9.
type Grid [9][9]int

// Notes holds pencil marks per cell. Each cell's marks are sorted ascending.
type Notes [9][9][]int

// Pair couples a puzzle with its intended solution.
type Pair struct {
	Puzzle   Grid `json:"puzzle"`
	Solution Grid `json:"solution"`
}

// Difficulty selects how many cells are removed from a solved grid.
type Difficulty string

const (
	Beginner Difficulty = "beginner"
	Medium   Difficulty = "medium"
	Hard     Difficulty = "hard"
)

// Difficulties lists every profile, in ascending order of removal count.
var Difficulties = []Difficulty{Beginner, Medium, Hard}

// CellsToRemove reports how many cells a difficulty blanks out of a solved grid.
func (d Difficulty) CellsToRemove() int {
	switch d {
	case Medium:
		return 40
	case Hard:
		return 50
	default:
		return 30 // Beginner
	}
}

// ParseDifficulty maps a request string onto a profile.
// Unknown values fall back to Beginner rather than failing the action.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case Medium:
		return Medium
	case Hard:
		return Hard
	default:
		return Beginner
	}
}

// InBounds reports whether (row, col) addresses a cell on the grid.
func InBounds(row, col int) bool {
	return row >= 0 && row < 9 && col >= 0 && col < 9
}

// BoxIndex maps a cell to its 3×3 box, numbered 0–8 row-major.
func BoxIndex(row, col int) int { return (row/3)*3 + col/3 }
