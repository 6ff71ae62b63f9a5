package game

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	// GridSize is the width and height of a bingo card.
	GridSize = 5
	// MaxNumber is the highest ball in a 75-ball game.
	MaxNumber = 75
	// ColumnSpan is how many numbers belong to each column letter.
	ColumnSpan = MaxNumber / GridSize
	// FreeValue marks the center cell in a Grid.
	FreeValue = 0

	freeRow, freeCol = 2, 2
)

var columnLetters = [GridSize]byte{'B', 'I', 'N', 'G', 'O'}

// Grid holds card numbers indexed [row][col]. Column 0 is B, column 4 is O.
type Grid [GridSize][GridSize]int

// Card is a player's bingo card. Cards are owned by the card store and live
// independently of any session.
type Card struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Grid      Grid      `json:"grid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ColumnRange returns the inclusive number range for a column.
func ColumnRange(col int) (lo, hi int) {
	lo = col*ColumnSpan + 1
	return lo, lo + ColumnSpan - 1
}

// ColumnLetter returns B, I, N, G or O for a column index.
func ColumnLetter(col int) byte {
	return columnLetters[col]
}

// ColumnOf returns the column a ball number belongs to.
func ColumnOf(n int) int {
	return (n - 1) / ColumnSpan
}

// IsFree reports whether a cell is the permanently marked center.
func IsFree(c Cell) bool {
	return c.Row == freeRow && c.Col == freeCol
}

// ValidateGrid checks the structural rules of a card: the center is free,
// every other value sits in its column's range and no value repeats.
func ValidateGrid(g Grid) error {
	var seen [MaxNumber + 1]bool
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			v := g[row][col]
			cell := Cell{Row: row, Col: col}
			if IsFree(cell) {
				if v != FreeValue {
					return fmt.Errorf("%w: center cell must be free, got %d", ErrInvalidCard, v)
				}
				continue
			}
			lo, hi := ColumnRange(col)
			if v < lo || v > hi {
				return fmt.Errorf("%w: %s holds %d, want %d-%d", ErrInvalidCard, cell, v, lo, hi)
			}
			if seen[v] {
				return fmt.Errorf("%w: %d appears more than once", ErrInvalidCard, v)
			}
			seen[v] = true
		}
	}
	return nil
}

// GridFromColumns builds a grid from the B/I/N/G/O column lists used by the
// card files printed for the hall. Each column lists its numbers top to
// bottom.
func GridFromColumns(b, i, n, g, o []int) (Grid, error) {
	var grid Grid
	cols := [GridSize][]int{b, i, n, g, o}
	for col, values := range cols {
		if len(values) != GridSize {
			return grid, fmt.Errorf("%w: column %c has %d numbers, want %d",
				ErrInvalidCard, ColumnLetter(col), len(values), GridSize)
		}
		for row, v := range values {
			grid[row][col] = v
		}
	}
	return grid, nil
}

// Columns returns the grid as its five column lists.
func (g Grid) Columns() [GridSize][]int {
	var cols [GridSize][]int
	for col := 0; col < GridSize; col++ {
		cols[col] = make([]int, GridSize)
		for row := 0; row < GridSize; row++ {
			cols[col][row] = g[row][col]
		}
	}
	return cols
}

// GenerateGrid draws a random valid card. A nil rng uses the global source.
func GenerateGrid(rng *rand.Rand) Grid {
	perm := rand.Perm
	if rng != nil {
		perm = rng.Perm
	}
	var g Grid
	for col := 0; col < GridSize; col++ {
		lo, _ := ColumnRange(col)
		picks := perm(ColumnSpan)
		for row := 0; row < GridSize; row++ {
			g[row][col] = lo + picks[row]
		}
	}
	g[freeRow][freeCol] = FreeValue
	return g
}
