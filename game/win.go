package game

// marks is the set of called numbers for one check.
type marks [MaxNumber + 1]bool

func markCalls(calls []int) *marks {
	var m marks
	for _, n := range calls {
		if n >= 1 && n <= MaxNumber {
			m[n] = true
		}
	}
	return &m
}

// has reports whether n was called. Values outside 1..MaxNumber never are.
func (m *marks) has(n int) bool {
	return n >= 1 && n <= MaxNumber && m[n]
}

func (m *marks) covers(g *Grid, shape []Cell) bool {
	for _, c := range shape {
		if IsFree(c) {
			continue
		}
		if !m.has(g[c.Row][c.Col]) {
			return false
		}
	}
	return true
}

// CheckWin reports whether card satisfies pattern given the called numbers.
// The free center always counts as marked. It has no side effects.
func CheckWin(card Card, calls []int, pattern Pattern) bool {
	m := markCalls(calls)
	for _, shape := range pattern.shapes {
		if m.covers(&card.Grid, shape) {
			return true
		}
	}
	return false
}

// CompletedAt returns the 1-based index into calls at which the card first
// satisfied the pattern, or 0 if it never did.
func CompletedAt(card Card, calls []int, pattern Pattern) int {
	var m marks
	for i, n := range calls {
		if n >= 1 && n <= MaxNumber {
			m[n] = true
		}
		for _, shape := range pattern.shapes {
			if m.covers(&card.Grid, shape) {
				return i + 1
			}
		}
	}
	return 0
}

// MarkedCells returns the cells of card that are marked by calls, the free
// center included.
func MarkedCells(card Card, calls []int) []Cell {
	m := markCalls(calls)
	var out []Cell
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			c := Cell{Row: row, Col: col}
			if IsFree(c) || m.has(card.Grid[row][col]) {
				out = append(out, c)
			}
		}
	}
	return out
}
