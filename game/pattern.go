package game

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Cell is a card coordinate. Row and Col are zero based; Col 0 is the B
// column.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// String renders the cell as column letter plus 1-based row, e.g. "N3".
func (c Cell) String() string {
	if c.Col < 0 || c.Col >= GridSize {
		return fmt.Sprintf("?%d", c.Row+1)
	}
	return fmt.Sprintf("%c%d", ColumnLetter(c.Col), c.Row+1)
}

func (c Cell) valid() bool {
	return c.Row >= 0 && c.Row < GridSize && c.Col >= 0 && c.Col < GridSize
}

// ParseCell parses "B1".."O5" notation.
func ParseCell(s string) (Cell, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return Cell{}, fmt.Errorf("%w: bad cell %q", ErrInvalidPattern, s)
	}
	col := strings.IndexByte(string(columnLetters[:]), s[0])
	row := int(s[1] - '1')
	c := Cell{Row: row, Col: col}
	if col < 0 || !c.valid() {
		return Cell{}, fmt.Errorf("%w: bad cell %q", ErrInvalidPattern, s)
	}
	return c, nil
}

// MustCells parses a list of cells and panics on bad input. It is meant for
// building the built-in catalog.
func MustCells(names ...string) []Cell {
	cells := make([]Cell, 0, len(names))
	for _, n := range names {
		c, err := ParseCell(n)
		if err != nil {
			panic(err)
		}
		cells = append(cells, c)
	}
	return cells
}

// Pattern is a named win condition. A pattern holds one or more shapes and
// is satisfied when every cell of any single shape is marked. Patterns are
// values; the shapes are never exposed for mutation.
type Pattern struct {
	name   string
	shapes [][]Cell
}

// NewPattern builds a pattern from its shapes, copying them.
func NewPattern(name string, shapes ...[]Cell) (Pattern, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Pattern{}, fmt.Errorf("%w: empty name", ErrInvalidPattern)
	}
	if len(shapes) == 0 {
		return Pattern{}, fmt.Errorf("%w: %s has no shapes", ErrInvalidPattern, name)
	}
	p := Pattern{name: name, shapes: make([][]Cell, 0, len(shapes))}
	for _, shape := range shapes {
		if len(shape) == 0 {
			return Pattern{}, fmt.Errorf("%w: %s has an empty shape", ErrInvalidPattern, name)
		}
		seen := make(map[Cell]bool, len(shape))
		cells := make([]Cell, 0, len(shape))
		for _, c := range shape {
			if !c.valid() {
				return Pattern{}, fmt.Errorf("%w: %s has out of grid cell %v", ErrInvalidPattern, name, c)
			}
			if seen[c] {
				continue
			}
			seen[c] = true
			cells = append(cells, c)
		}
		p.shapes = append(p.shapes, cells)
	}
	return p, nil
}

func mustPattern(name string, shapes ...[]Cell) Pattern {
	p, err := NewPattern(name, shapes...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the pattern name.
func (p Pattern) Name() string { return p.name }

// Shapes returns a copy of the pattern's coordinate sets.
func (p Pattern) Shapes() [][]Cell {
	out := make([][]Cell, len(p.shapes))
	for i, s := range p.shapes {
		out[i] = append([]Cell(nil), s...)
	}
	return out
}

// IsZero reports whether p is the zero Pattern.
func (p Pattern) IsZero() bool { return p.name == "" }

// PatternLibrary is the immutable catalog of win patterns, built once at
// process start.
type PatternLibrary struct {
	patterns map[string]Pattern
}

// NewPatternLibrary indexes the given patterns by name. Duplicate names are
// rejected.
func NewPatternLibrary(patterns ...Pattern) (*PatternLibrary, error) {
	lib := &PatternLibrary{patterns: make(map[string]Pattern, len(patterns))}
	for _, p := range patterns {
		if p.IsZero() {
			return nil, fmt.Errorf("%w: unnamed pattern", ErrInvalidPattern)
		}
		if _, dup := lib.patterns[p.name]; dup {
			return nil, fmt.Errorf("%w: duplicate pattern %q", ErrInvalidPattern, p.name)
		}
		lib.patterns[p.name] = p
	}
	return lib, nil
}

// Get returns the named pattern.
func (l *PatternLibrary) Get(name string) (Pattern, error) {
	p, ok := l.patterns[name]
	if !ok {
		return Pattern{}, fmt.Errorf("%w: %q", ErrPatternNotFound, name)
	}
	return p, nil
}

// Names lists the configured pattern names in sorted order.
func (l *PatternLibrary) Names() []string {
	names := make([]string, 0, len(l.patterns))
	for n := range l.patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultPatterns returns the built-in hall catalog.
func DefaultPatterns() []Pattern {
	var rows, cols [GridSize][]Cell
	var diagDown, diagUp, cross, full []Cell
	for i := 0; i < GridSize; i++ {
		for j := 0; j < GridSize; j++ {
			rows[i] = append(rows[i], Cell{Row: i, Col: j})
			cols[i] = append(cols[i], Cell{Row: j, Col: i})
			c := Cell{Row: i, Col: j}
			if !IsFree(c) {
				full = append(full, c)
			}
		}
		diagDown = append(diagDown, Cell{Row: i, Col: i})
		diagUp = append(diagUp, Cell{Row: GridSize - 1 - i, Col: i})
		cross = append(cross, Cell{Row: freeRow, Col: i}, Cell{Row: i, Col: freeCol})
	}

	patterns := make([]Pattern, 0, 16)
	lines := make([][]Cell, 0, 2*GridSize+2)
	for i := 0; i < GridSize; i++ {
		patterns = append(patterns, mustPattern(fmt.Sprintf("row_%d", i+1), rows[i]))
		lines = append(lines, rows[i])
	}
	for i := 0; i < GridSize; i++ {
		name := "column_" + strings.ToLower(string(ColumnLetter(i)))
		patterns = append(patterns, mustPattern(name, cols[i]))
		lines = append(lines, cols[i])
	}
	lines = append(lines, diagDown, diagUp)
	return append(patterns,
		mustPattern("diagonal_down", diagDown),
		mustPattern("diagonal_up", diagUp),
		mustPattern("any_line", lines...),
		mustPattern("four_corners", MustCells("B1", "O1", "B5", "O5")),
		mustPattern("cross", cross),
		mustPattern("full_house", full),
	)
}

// DefaultLibrary returns a library holding DefaultPatterns.
func DefaultLibrary() *PatternLibrary {
	lib, err := NewPatternLibrary(DefaultPatterns()...)
	if err != nil {
		panic(err)
	}
	return lib
}

type patternFile struct {
	Patterns []struct {
		Name   string     `yaml:"name"`
		Cells  []string   `yaml:"cells"`
		Shapes [][]string `yaml:"shapes"`
	} `yaml:"patterns"`
	IncludeDefaults bool `yaml:"include_defaults"`
}

// LoadPatterns reads a YAML pattern catalog:
//
//	include_defaults: true
//	patterns:
//	  - name: letter_t
//	    cells: [B1, I1, N1, G1, O1, N2, N3, N4, N5]
//	  - name: small_or_large_frame
//	    shapes:
//	      - [I2, N2, G2, I3, G3, I4, N4, G4]
//	      - [B1, I1, N1, G1, O1, B5, I5, N5, G5, O5]
func LoadPatterns(r io.Reader) (*PatternLibrary, error) {
	var file patternFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}

	var patterns []Pattern
	if file.IncludeDefaults {
		patterns = DefaultPatterns()
	}
	for _, entry := range file.Patterns {
		raw := entry.Shapes
		if len(entry.Cells) > 0 {
			raw = append([][]string{entry.Cells}, raw...)
		}
		shapes := make([][]Cell, 0, len(raw))
		for _, names := range raw {
			shape := make([]Cell, 0, len(names))
			for _, n := range names {
				c, err := ParseCell(n)
				if err != nil {
					return nil, fmt.Errorf("pattern %q: %w", entry.Name, err)
				}
				shape = append(shape, c)
			}
			shapes = append(shapes, shape)
		}
		p, err := NewPattern(entry.Name, shapes...)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return NewPatternLibrary(patterns...)
}
