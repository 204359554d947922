package game

// turnAdvancer implements the turn-control protocol of one opening ruleset.
// advance runs after a stone or a swap decision has been accepted and
// before the turn number is incremented.
type turnAdvancer interface {
	advance(s *State) error
}

var turnAdvancers = map[Ruleset]turnAdvancer{
	Freestyle:          freestyleTurns{},
	SwapAfterFirstMove: swapAfterFirstMoveTurns{},
	Swap2:              swap2Turns{},
}

type freestyleTurns struct{}

func (freestyleTurns) advance(s *State) error {
	s.AlternateCurrentPlayer()
	return nil
}

// swapAfterFirstMoveTurns: black places one stone, then white decides
// whether to take black.
type swapAfterFirstMoveTurns struct{}

func (swapAfterFirstMoveTurns) advance(s *State) error {
	switch s.turnNumber {
	case 0:
		s.swapNextTurn = true
		s.AlternateCurrentPlayer()
		return nil
	case 1:
		return resolveSwap(s, DoSwap, DoNotSwap)
	default:
		s.AlternateCurrentPlayer()
		return nil
	}
}

// swap2Turns: the first player places three stones (black, black, white),
// the second player then swaps, stays, or defers. A deferral lets the
// second player place two more stones before the first player decides.
type swap2Turns struct{}

func (swap2Turns) advance(s *State) error {
	switch s.turnNumber {
	case 0:
		return nil
	case 1:
		s.players[s.currentPlayerIndex].ChangeColour()
		return nil
	case 2:
		s.players[s.currentPlayerIndex].ChangeColour()
		s.swapNextTurn = true
		s.AlternateCurrentPlayer()
		return nil
	case 3:
		if s.swapDecision == DeferSwap {
			s.swapNextTurn = false
			return nil
		}
		return resolveSwap(s, DoSwap, DoNotSwap)
	}

	switch s.swapDecision {
	case DeferSwap, DeferredDoSwap, DeferredDoNotSwap:
		return deferredSwap2(s)
	default:
		s.AlternateCurrentPlayer()
		return nil
	}
}

func deferredSwap2(s *State) error {
	switch s.turnNumber {
	case 4:
		s.players[s.currentPlayerIndex].ChangeColour()
		return nil
	case 5:
		s.players[s.currentPlayerIndex].ChangeColour()
		s.swapNextTurn = true
		s.AlternateCurrentPlayer()
		return nil
	case 6:
		return resolveSwap(s, DeferredDoSwap, DeferredDoNotSwap)
	default:
		s.AlternateCurrentPlayer()
		return nil
	}
}

// resolveSwap applies the stored decision when it is one of the two
// accepted values for this stage.
func resolveSwap(s *State, swap, keep SwapDecision) error {
	switch s.swapDecision {
	case swap:
		s.ExecuteSwap()
		return nil
	case keep:
		s.swapNextTurn = false
		return nil
	default:
		return ErrSwapDecisionMissing
	}
}
