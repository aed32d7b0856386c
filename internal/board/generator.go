// internal/board/generator.go
//
// Solved-grid generation and puzzle derivation.
// Responsibilities:
//   - Fill the three diagonal 3×3 boxes with independent random permutations
//     (they share no row, column, or box, so they can never conflict).
//   - Complete the remaining cells by randomized backtracking with
//     constraint-checked placement and shuffled candidate order.
//   - Derive a puzzle by blanking N shuffled coordinates for a difficulty.
//
// Derivation is purely random removal: the remaining puzzle is NOT re-checked
// for solution uniqueness. Adding that check would shift the effective
// difficulty players see, so the behavior is kept and flagged in DESIGN.md.

package board

import "math/rand"

// GenerateSolution produces a fully solved grid.
func GenerateSolution() Grid {
	var g Grid
	for box := 0; box < 3; box++ {
		fillBox(&g, box*3, box*3)
	}
	// The diagonal seed always extends to a full solution, so this cannot fail.
	solveRemaining(&g, 0, 0)
	return g
}

// fillBox writes a random permutation of 1–9 into the 3×3 box at (top, left).
func fillBox(g *Grid, top, left int) {
	perm := rand.Perm(9)
	for i, p := range perm {
		g[top+i/3][left+i%3] = p + 1
	}
}

// solveRemaining completes the grid from (row, col) onward by backtracking,
// trying candidates in shuffled order so repeated calls yield distinct grids.
func solveRemaining(g *Grid, row, col int) bool {
	if row == 9 {
		return true
	}
	nextRow, nextCol := row, col+1
	if nextCol == 9 {
		nextRow, nextCol = row+1, 0
	}
	if g[row][col] != 0 {
		return solveRemaining(g, nextRow, nextCol)
	}
	for _, p := range rand.Perm(9) {
		v := p + 1
		if CanPlace(*g, row, col, v) {
			g[row][col] = v
			if solveRemaining(g, nextRow, nextCol) {
				return true
			}
			g[row][col] = 0
		}
	}
	return false
}

// Derive blanks the difficulty's removal count of cells from a solved grid.
// Removal order is a uniform shuffle of all 81 coordinates.
func Derive(solution Grid, d Difficulty) Grid {
	puzzle := solution
	coords := rand.Perm(81)
	for _, pos := range coords[:d.CellsToRemove()] {
		puzzle[pos/9][pos%9] = 0
	}
	return puzzle
}

// NewPair generates a fresh {puzzle, solution} pair for a difficulty.
func NewPair(d Difficulty) Pair {
	sol := GenerateSolution()
	return Pair{Puzzle: Derive(sol, d), Solution: sol}
}
