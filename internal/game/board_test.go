package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardPlaceEveryCell(t *testing.T) {
	var b Board
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			colour := ColourA
			if (x+y)%2 == 1 {
				colour = ColourB
			}
			require.NoError(t, b.Place(x, y, colour))
			assert.Equal(t, colour, b.CellAt(x, y))
			assert.ErrorIs(t, b.Place(x, y, ColourA), ErrOccupied)
			assert.ErrorIs(t, b.Place(x, y, ColourB), ErrOccupied)
			assert.Equal(t, colour, b.CellAt(x, y))
		}
	}
	assert.True(t, b.IsFull())
}

func TestBoardPlaceOutOfBounds(t *testing.T) {
	var b Board
	for _, pos := range [][2]int{{15, 0}, {0, 15}, {15, 15}, {20, 20}, {-1, -1}, {-1, 3}} {
		err := b.Place(pos[0], pos[1], ColourA)
		assert.ErrorIs(t, err, ErrOutOfBounds, "position %v", pos)
		assert.True(t, IsValidation(err))
	}
	assert.Equal(t, Board{}, b)
}

func TestBoardPlaceEmptyColour(t *testing.T) {
	var b Board
	assert.ErrorIs(t, b.Place(0, 0, Empty), ErrInvalidColour)
	assert.ErrorIs(t, b.Place(5, 5, Empty), ErrInvalidColour)
	assert.ErrorIs(t, b.Place(5, 5, Cell(7)), ErrInvalidColour)
	assert.Equal(t, Board{}, b)
}

func TestBoardIndexing(t *testing.T) {
	var b Board
	require.NoError(t, b.Place(5, 0, ColourB))
	assert.Equal(t, ColourB, b.Grid[0][5])
	assert.Equal(t, Empty, b.CellAt(0, 5))
	assert.Equal(t, ColourB, b.Cells()[0][5])
}

func TestBoardReset(t *testing.T) {
	var b Board
	require.NoError(t, b.Place(3, 4, ColourA))
	require.NoError(t, b.Place(14, 14, ColourB))
	b.Reset()
	assert.Equal(t, Board{}, b)
	assert.False(t, b.IsFull())
}

func TestCellNames(t *testing.T) {
	for _, c := range []Cell{Empty, ColourA, ColourB} {
		parsed, err := ParseCell(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	_, err := ParseCell("black")
	assert.Error(t, err)
	assert.Equal(t, ColourB, ColourA.Opponent())
	assert.Equal(t, ColourA, ColourB.Opponent())
	assert.Equal(t, Empty, Empty.Opponent())
}
