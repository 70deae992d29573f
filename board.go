package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// ErrMalformedBoard is returned when board rows do not form a non-empty rectangle.
var ErrMalformedBoard = errors.New("malformed board")

const (
	minRandomSize = 2
	maxRandomSize = 8
	alphabet      = "abcdefghijklmnopqrstuvwxyz"
)

// Coord identifies a cell on the board.
type Coord struct {
	Row int
	Col int
}

// MarshalJSON encodes a coordinate as a [row, col] pair.
func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

func (c *Coord) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	c.Row, c.Col = pair[0], pair[1]
	return nil
}

// adjacent reports whether c and o are distinct 8-directional neighbours.
func (c Coord) adjacent(o Coord) bool {
	dr, dc := c.Row-o.Row, c.Col-o.Col
	if c == o {
		return false
	}
	return dr >= -1 && dr <= 1 && dc >= -1 && dc <= 1
}

// Path is an ordered sequence of distinct, adjacent cells spelling a word.
type Path []Coord

// Board is an immutable rectangular grid of letters.
type Board struct {
	rows  int
	cols  int
	cells []rune // row-major
}

// NewBoard builds a board from equal-length rows. Every row is one line of
// the grid, one rune per cell.
func NewBoard(rows []string) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedBoard)
	}

	cols := len([]rune(rows[0]))
	if cols == 0 {
		return nil, fmt.Errorf("%w: row 0 is empty", ErrMalformedBoard)
	}

	cells := make([]rune, 0, len(rows)*cols)
	for i, row := range rows {
		rs := []rune(row)
		if len(rs) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedBoard, i, len(rs), cols)
		}
		cells = append(cells, rs...)
	}

	return &Board{rows: len(rows), cols: cols, cells: cells}, nil
}

// RandomBoard returns a size×size board with a uniformly random letter in
// every cell.
func RandomBoard(size int, rng *rand.Rand) (*Board, error) {
	if size < minRandomSize || size > maxRandomSize {
		return nil, fmt.Errorf("%w: size %d outside [%d,%d]", ErrMalformedBoard, size, minRandomSize, maxRandomSize)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	rows := make([]string, size)
	for i := range rows {
		var sb strings.Builder
		for range size {
			sb.WriteByte(alphabet[rng.IntN(len(alphabet))])
		}
		rows[i] = sb.String()
	}
	return NewBoard(rows)
}

func (b *Board) Rows() int { return b.rows }
func (b *Board) Cols() int { return b.cols }

// Size returns the number of cells.
func (b *Board) Size() int { return len(b.cells) }

func (b *Board) contains(c Coord) bool {
	return c.Row >= 0 && c.Row < b.rows && c.Col >= 0 && c.Col < b.cols
}

func (b *Board) index(c Coord) uint {
	return uint(c.Row*b.cols + c.Col)
}

// At returns the letter at c. c must be within bounds.
func (b *Board) At(c Coord) rune {
	return b.cells[b.index(c)]
}

// Lines returns the board as one string per row.
func (b *Board) Lines() []string {
	lines := make([]string, b.rows)
	for r := range b.rows {
		lines[r] = string(b.cells[r*b.cols : (r+1)*b.cols])
	}
	return lines
}

func (b *Board) String() string {
	return strings.Join(b.Lines(), "/")
}

// Spell returns the word traced by p and whether p is a valid path on b:
// non-empty, in bounds, adjacent step to step and never revisiting a cell.
func (b *Board) Spell(p Path) (string, bool) {
	if len(p) == 0 {
		return "", false
	}
	seen := make(map[Coord]bool, len(p))
	word := make([]rune, 0, len(p))
	for i, c := range p {
		if !b.contains(c) || seen[c] {
			return "", false
		}
		if i > 0 && !p[i-1].adjacent(c) {
			return "", false
		}
		seen[c] = true
		word = append(word, b.At(c))
	}
	return string(word), true
}
