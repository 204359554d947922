package game

import "encoding/json"

// BoardSize is the width and height of the playing board.
const BoardSize = 15

// NumCells is the number of intersections on the board.
const NumCells = BoardSize * BoardSize

// Cell is the content of one board intersection.
type Cell int

const (
	Empty Cell = iota
	ColourA
	ColourB
)

var cellNames = map[Cell]string{
	Empty:   "empty",
	ColourA: "colourA",
	ColourB: "colourB",
}

func (c Cell) String() string {
	if name, ok := cellNames[c]; ok {
		return name
	}
	return "invalid"
}

// Opponent returns the other stone colour. Empty maps to Empty.
func (c Cell) Opponent() Cell {
	switch c {
	case ColourA:
		return ColourB
	case ColourB:
		return ColourA
	}
	return Empty
}

// ParseCell converts a wire name into a Cell.
func ParseCell(s string) (Cell, error) {
	for c, name := range cellNames {
		if name == s {
			return c, nil
		}
	}
	return Empty, validationErr("unknown cell value %q", s)
}

func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCell(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Board is the fixed 15x15 grid, indexed as Grid[y][x].
type Board struct {
	Grid [BoardSize][BoardSize]Cell
}

// InBounds reports whether (x, y) addresses a cell on the board.
func InBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// Place puts a stone of the given colour at (x, y). The board is left
// unchanged on error.
func (b *Board) Place(x, y int, colour Cell) error {
	if !InBounds(x, y) {
		return ErrOutOfBounds
	}
	if colour != ColourA && colour != ColourB {
		return ErrInvalidColour
	}
	if b.Grid[y][x] != Empty {
		return ErrOccupied
	}
	b.Grid[y][x] = colour
	return nil
}

// Reset clears every cell.
func (b *Board) Reset() {
	b.Grid = [BoardSize][BoardSize]Cell{}
}

// CellAt returns the content of (x, y); out-of-range coordinates read as Empty.
func (b *Board) CellAt(x, y int) Cell {
	if !InBounds(x, y) {
		return Empty
	}
	return b.Grid[y][x]
}

// IsFull reports whether no empty cell remains.
func (b *Board) IsFull() bool {
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if b.Grid[y][x] == Empty {
				return false
			}
		}
	}
	return true
}

// Cells returns the board as rows of cells, for rendering.
func (b *Board) Cells() [][]Cell {
	rows := make([][]Cell, BoardSize)
	for y := range rows {
		rows[y] = make([]Cell, BoardSize)
		copy(rows[y], b.Grid[y][:])
	}
	return rows
}

// flatten lays the board out row by row.
func (b *Board) flatten() []Cell {
	out := make([]Cell, 0, NumCells)
	for y := 0; y < BoardSize; y++ {
		out = append(out, b.Grid[y][:]...)
	}
	return out
}

func boardFromFlat(cells []Cell) (Board, error) {
	var b Board
	if len(cells) != NumCells {
		return b, validationErr("board must contain %d cells, got %d", NumCells, len(cells))
	}
	for i, c := range cells {
		b.Grid[i/BoardSize][i%BoardSize] = c
	}
	return b, nil
}
