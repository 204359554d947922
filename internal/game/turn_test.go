package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decide(t *testing.T, s *State, d SwapDecision) {
	t.Helper()
	require.NoError(t, s.DetermineSwapDecision(d))
	require.NoError(t, s.UpdateCurrentPlayer())
	s.IterateTurn()
}

func assertTurn(t *testing.T, s *State, wantID string, wantColour Cell) {
	t.Helper()
	p, ok := s.CurrentPlayer()
	require.True(t, ok)
	assert.Equal(t, wantID, p.ID)
	assert.Equal(t, wantColour, p.Colour)
}

func colours(s *State) (Cell, Cell) {
	p := s.Players()
	return p[0].Colour, p[1].Colour
}

func TestSwapAfterFirstMoveDoSwap(t *testing.T) {
	s := newRound(t, "swap_after_first_move")
	play(t, s, 7, 7)
	assert.True(t, s.SwapNextTurn())
	assertTurn(t, s, "p2", ColourB)

	decide(t, s, DoSwap)
	assert.False(t, s.SwapNextTurn())
	assert.Equal(t, 2, s.TurnNumber())
	assertTurn(t, s, "p1", ColourB)
	a, b := colours(s)
	assert.Equal(t, ColourB, a)
	assert.Equal(t, ColourA, b)

	play(t, s, 8, 8)
	assertTurn(t, s, "p2", ColourA)
}

func TestSwapAfterFirstMoveDoNotSwap(t *testing.T) {
	s := newRound(t, "swap_after_first_move")
	play(t, s, 7, 7)
	decide(t, s, DoNotSwap)
	assert.False(t, s.SwapNextTurn())
	assertTurn(t, s, "p2", ColourB)

	play(t, s, 8, 8)
	assertTurn(t, s, "p1", ColourA)
}

func TestSwapAfterFirstMoveRequiresDecision(t *testing.T) {
	s := newRound(t, "swap_after_first_move")
	play(t, s, 7, 7)
	require.NoError(t, s.PlaceStone(8, 8, ColourB))
	err := s.UpdateCurrentPlayer()
	assert.ErrorIs(t, err, ErrSwapDecisionMissing)
	assertTurn(t, s, "p2", ColourB)
}

// openSwap2 plays the three forced opening stones.
func openSwap2(t *testing.T) *State {
	t.Helper()
	s := newRound(t, "swap2")

	play(t, s, 7, 7)
	assertTurn(t, s, "p1", ColourA)
	play(t, s, 8, 8)
	assertTurn(t, s, "p1", ColourB)
	play(t, s, 6, 8)

	assert.Equal(t, 3, s.TurnNumber())
	assert.True(t, s.SwapNextTurn())
	assertTurn(t, s, "p2", ColourB)
	a, b := colours(s)
	assert.Equal(t, ColourA, a)
	assert.Equal(t, ColourB, b)
	assert.Equal(t, ColourA, s.CellAt(7, 7))
	assert.Equal(t, ColourA, s.CellAt(8, 8))
	assert.Equal(t, ColourB, s.CellAt(6, 8))
	return s
}

func TestSwap2DoSwap(t *testing.T) {
	s := openSwap2(t)
	decide(t, s, DoSwap)
	assert.False(t, s.SwapNextTurn())
	assertTurn(t, s, "p1", ColourB)
	_, b := colours(s)
	assert.Equal(t, ColourA, b)

	play(t, s, 0, 0)
	assertTurn(t, s, "p2", ColourA)
	play(t, s, 1, 0)
	assertTurn(t, s, "p1", ColourB)
}

func TestSwap2DoNotSwap(t *testing.T) {
	s := openSwap2(t)
	decide(t, s, DoNotSwap)
	assert.False(t, s.SwapNextTurn())
	assertTurn(t, s, "p2", ColourB)

	play(t, s, 0, 0)
	assertTurn(t, s, "p1", ColourA)
	play(t, s, 1, 0)
	assertTurn(t, s, "p2", ColourB)
}

func openDeferredSwap2(t *testing.T) *State {
	t.Helper()
	s := openSwap2(t)
	decide(t, s, DeferSwap)
	assert.False(t, s.SwapNextTurn())
	assertTurn(t, s, "p2", ColourB)

	play(t, s, 0, 0)
	assertTurn(t, s, "p2", ColourA)
	play(t, s, 1, 0)

	assert.Equal(t, 6, s.TurnNumber())
	assert.True(t, s.SwapNextTurn())
	assertTurn(t, s, "p1", ColourA)
	_, b := colours(s)
	assert.Equal(t, ColourB, b)
	return s
}

func TestSwap2DeferredDoSwap(t *testing.T) {
	s := openDeferredSwap2(t)
	decide(t, s, DoSwap)
	assert.Equal(t, DeferredDoSwap, s.SwapDecision())
	assert.False(t, s.SwapNextTurn())
	assertTurn(t, s, "p2", ColourA)
	a, _ := colours(s)
	assert.Equal(t, ColourB, a)

	play(t, s, 2, 0)
	assertTurn(t, s, "p1", ColourB)
}

func TestSwap2DeferredDoNotSwap(t *testing.T) {
	s := openDeferredSwap2(t)
	decide(t, s, DoNotSwap)
	assert.Equal(t, DeferredDoNotSwap, s.SwapDecision())
	assert.False(t, s.SwapNextTurn())
	assertTurn(t, s, "p1", ColourA)

	play(t, s, 2, 0)
	assertTurn(t, s, "p2", ColourB)
}

func TestSwap2RequiresDecision(t *testing.T) {
	s := openSwap2(t)
	require.NoError(t, s.PlaceStone(0, 0, ColourB))
	assert.ErrorIs(t, s.UpdateCurrentPlayer(), ErrSwapDecisionMissing)

	s = openDeferredSwap2(t)
	require.NoError(t, s.PlaceStone(2, 0, ColourA))
	assert.ErrorIs(t, s.UpdateCurrentPlayer(), ErrSwapDecisionMissing)
}

func TestParseSwapDecisionUnknown(t *testing.T) {
	d, err := ParseSwapDecision("maybe")
	require.Error(t, err)
	assert.Equal(t, NoDecisionYet, d)
	assert.ErrorIs(t, err, ErrInvalidSwapDecision)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "maybe")
}
