// internal/board/validate.go
//
// Pure constraint checks over grids: placement legality, unit completion,
// and full-solution validity. No state, no allocation on the hot paths.

package board

// CanPlace reports whether value can legally occupy (row, col): no duplicate
// in the cell's row, column, or 3×3 box. The cell's own current value is
// ignored so overwrites are judged like fresh placements.
func CanPlace(g Grid, row, col, value int) bool {
	for i := 0; i < 9; i++ {
		if i != col && g[row][i] == value {
			return false
		}
		if i != row && g[i][col] == value {
			return false
		}
	}
	top, left := (row/3)*3, (col/3)*3
	for r := top; r < top+3; r++ {
		for c := left; c < left+3; c++ {
			if (r != row || c != col) && g[r][c] == value {
				return false
			}
		}
	}
	return true
}

// RowComplete reports whether every cell in a row is filled.
func RowComplete(g Grid, row int) bool {
	for c := 0; c < 9; c++ {
		if g[row][c] == 0 {
			return false
		}
	}
	return true
}

// ColComplete reports whether every cell in a column is filled.
func ColComplete(g Grid, col int) bool {
	for r := 0; r < 9; r++ {
		if g[r][col] == 0 {
			return false
		}
	}
	return true
}

// BoxComplete reports whether every cell in box (0–8, row-major) is filled.
func BoxComplete(g Grid, box int) bool {
	top, left := (box/3)*3, (box%3)*3
	for r := top; r < top+3; r++ {
		for c := left; c < left+3; c++ {
			if g[r][c] == 0 {
				return false
			}
		}
	}
	return true
}

// Complete reports whether no cell is blank.
func Complete(g Grid) bool {
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if g[r][c] == 0 {
				return false
			}
		}
	}
	return true
}

// ValidSolution reports whether every row, column, and box holds exactly one
// of each digit 1–9. Uses a bitmask per unit.
func ValidSolution(g Grid) bool {
	const full = 0b1111111110 // bits 1..9 set
	for i := 0; i < 9; i++ {
		rowMask, colMask, boxMask := 0, 0, 0
		top, left := (i/3)*3, (i%3)*3
		for j := 0; j < 9; j++ {
			rowMask |= 1 << g[i][j]
			colMask |= 1 << g[j][i]
			boxMask |= 1 << g[top+j/3][left+j%3]
		}
		if rowMask != full || colMask != full || boxMask != full {
			return false
		}
	}
	return true
}
