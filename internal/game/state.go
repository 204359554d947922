package game

import "fmt"

// MaxPlayers is the number of players a game needs to start.
const MaxPlayers = 2

// tieCheckTurn is the first turn on which the board can be full. Turn
// numbers start at zero, so it is one less than the number of cells.
const tieCheckTurn = NumCells - 1

// State is the authoritative model of one gomoku game. It is not safe for
// concurrent use; Instance serializes access to it.
type State struct {
	id      string
	players []Player
	board   Board
	ruleset Ruleset

	started  bool
	finished bool
	tied     bool

	turnNumber          int
	currentPlayerIndex  int
	startingPlayerIndex int

	swapNextTurn bool
	swapDecision SwapDecision
}

// NewState creates an empty game in the lobby.
func NewState(id string) *State {
	return &State{id: id, players: make([]Player, 0, MaxPlayers)}
}

func (s *State) ID() string                 { return s.id }
func (s *State) IsStarted() bool            { return s.started }
func (s *State) IsFinished() bool           { return s.finished }
func (s *State) IsTied() bool               { return s.tied }
func (s *State) IsFull() bool               { return len(s.players) == MaxPlayers }
func (s *State) TurnNumber() int            { return s.turnNumber }
func (s *State) CurrentPlayerIndex() int    { return s.currentPlayerIndex }
func (s *State) StartingPlayerIndex() int   { return s.startingPlayerIndex }
func (s *State) Ruleset() Ruleset           { return s.ruleset }
func (s *State) SwapNextTurn() bool         { return s.swapNextTurn }
func (s *State) SwapDecision() SwapDecision { return s.swapDecision }

// Board returns a copy of the board.
func (s *State) Board() Board { return s.board }

// CellAt reads one cell of the board.
func (s *State) CellAt(x, y int) Cell { return s.board.CellAt(x, y) }

// Players returns a copy of the player list in join order.
func (s *State) Players() []Player {
	out := make([]Player, len(s.players))
	copy(out, s.players)
	return out
}

// CurrentPlayer returns the player whose turn it is.
func (s *State) CurrentPlayer() (Player, bool) {
	if s.currentPlayerIndex < 0 || s.currentPlayerIndex >= len(s.players) {
		return Player{}, false
	}
	return s.players[s.currentPlayerIndex], true
}

// PlayerIndex returns the list position of the player with the given id, or -1.
func (s *State) PlayerIndex(id string) int {
	for i, p := range s.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) HasPlayer(id string) bool {
	return s.PlayerIndex(id) != -1
}

// Player looks up a member by id.
func (s *State) Player(id string) (Player, bool) {
	if i := s.PlayerIndex(id); i != -1 {
		return s.players[i], true
	}
	return Player{}, false
}

// IsAllowedToPlayNow reports whether id is the current player.
func (s *State) IsAllowedToPlayNow(id string) bool {
	p, ok := s.CurrentPlayer()
	return ok && p.ID == id
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.players = make([]Player, len(s.players))
	copy(c.players, s.players)
	return &c
}

// AddPlayer appends p to the lobby. The second player always receives the
// colour opposite to the first.
func (s *State) AddPlayer(p Player) error {
	if s.started {
		return ErrGameStarted
	}
	if s.finished {
		return ErrGameFinished
	}
	if len(s.players) >= MaxPlayers {
		return ErrGameFull
	}
	if s.HasPlayer(p.ID) {
		return ErrAlreadyJoined
	}
	switch {
	case len(s.players) == 1:
		p.Colour = s.players[0].Colour.Opponent()
	case p.Colour != ColourA && p.Colour != ColourB:
		p.Colour = ColourA
	}
	s.players = append(s.players, p)
	return nil
}

// RemovePlayer drops a member, keeping the current index on the same
// logical player.
func (s *State) RemovePlayer(id string) error {
	idx := s.PlayerIndex(id)
	if idx == -1 {
		return ErrPlayerNotFound
	}
	if idx < s.currentPlayerIndex {
		s.currentPlayerIndex--
	}
	s.players = append(s.players[:idx], s.players[idx+1:]...)
	if s.currentPlayerIndex >= len(s.players) {
		s.currentPlayerIndex = 0
	}
	if s.startingPlayerIndex >= len(s.players) {
		s.startingPlayerIndex = 0
	}
	return nil
}

// SetGameMode selects the opening ruleset by name.
func (s *State) SetGameMode(name string) error {
	r, err := ParseRuleset(name)
	if err != nil {
		return err
	}
	if r == Uninitialized {
		return validationErr("%q cannot be selected as a game mode", name)
	}
	s.ruleset = r
	return nil
}

// ResetRuleset returns the game to an unchosen ruleset.
func (s *State) ResetRuleset() {
	s.ruleset = Uninitialized
}

// ResetScores zeroes both scores, used when a rematch changes the ruleset.
func (s *State) ResetScores() {
	for i := range s.players {
		s.players[i].ResetScore()
	}
}

// StartGame sets up a new round.
func (s *State) StartGame() error {
	if len(s.players) < MaxPlayers {
		return ErrNotEnoughPlayers
	}
	if s.started {
		return ErrAlreadyStarted
	}
	if s.ruleset == Uninitialized {
		return ErrRulesetNotChosen
	}
	s.SetupRound()
	s.started = true
	return nil
}

// SetupRound clears the board and turn state and gives the starting player
// black.
func (s *State) SetupRound() {
	s.finished = false
	s.tied = false
	s.board.Reset()
	s.turnNumber = 0
	s.swapNextTurn = false
	s.swapDecision = NoDecisionYet
	s.currentPlayerIndex = s.startingPlayerIndex
	if len(s.players) == MaxPlayers && s.players[s.startingPlayerIndex].Colour != ColourA {
		s.players[0].ChangeColour()
		s.players[1].ChangeColour()
	}
}

// PrepareGame readies a finished game for a rematch. If the requester is not
// the starting player, the starting player switches to them.
func (s *State) PrepareGame(requestingID string) error {
	idx := s.PlayerIndex(requestingID)
	if idx == -1 {
		return ErrPlayerNotFound
	}
	if idx != s.startingPlayerIndex {
		s.SwitchStartingPlayer()
	}
	s.finished = false
	return nil
}

// PlaceStone puts a stone on the board. It neither advances the turn nor
// checks for a win; Instance sequences those.
func (s *State) PlaceStone(x, y int, colour Cell) error {
	return s.board.Place(x, y, colour)
}

// CheckWinCondition reports whether the stone at (x, y) completes five or
// more in a row of colour.
func (s *State) CheckWinCondition(x, y int, colour Cell) bool {
	if colour == Empty || s.board.CellAt(x, y) != colour {
		return false
	}
	axes := [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	for _, a := range axes {
		count := 1 + s.countDirection(x, y, a[0], a[1], colour) + s.countDirection(x, y, -a[0], -a[1], colour)
		if count >= 5 {
			return true
		}
	}
	return false
}

// countDirection counts same-coloured stones walking from (x, y) along
// (dx, dy), excluding the origin.
func (s *State) countDirection(x, y, dx, dy int, colour Cell) int {
	n := 0
	for cx, cy := x+dx, y+dy; InBounds(cx, cy) && s.board.Grid[cy][cx] == colour; cx, cy = cx+dx, cy+dy {
		n++
	}
	return n
}

// CheckForTie reports whether the board is full, marking the round tied.
func (s *State) CheckForTie() bool {
	if !s.board.IsFull() {
		return false
	}
	s.tied = true
	return true
}

// ShouldCheckTie reports whether enough turns have passed for a full board.
func (s *State) ShouldCheckTie() bool {
	return s.turnNumber >= tieCheckTurn
}

// UpdateCurrentPlayer advances turn control according to the ruleset.
func (s *State) UpdateCurrentPlayer() error {
	adv, ok := turnAdvancers[s.ruleset]
	if !ok {
		panic(fmt.Sprintf("game: invalid ruleset %q for turn update", s.ruleset))
	}
	return adv.advance(s)
}

// AlternateCurrentPlayer hands the turn to the other player.
func (s *State) AlternateCurrentPlayer() {
	switch s.currentPlayerIndex {
	case 0:
		s.currentPlayerIndex = 1
	case 1:
		s.currentPlayerIndex = 0
	default:
		panic(fmt.Sprintf("game: invalid current player index %d", s.currentPlayerIndex))
	}
}

// ExecuteSwap exchanges both players' colours and hands over the turn.
func (s *State) ExecuteSwap() {
	for i := range s.players {
		s.players[i].ChangeColour()
	}
	s.swapNextTurn = false
	s.AlternateCurrentPlayer()
}

// DetermineSwapDecision stores a caller's swap answer. A decision made
// after a deferral is recorded as its deferred counterpart.
func (s *State) DetermineSwapDecision(d SwapDecision) error {
	switch d {
	case DoSwap, DoNotSwap, DeferSwap:
	default:
		return ErrInvalidSwapDecision
	}
	if s.swapDecision == DeferSwap {
		switch d {
		case DoSwap:
			d = DeferredDoSwap
		case DoNotSwap:
			d = DeferredDoNotSwap
		}
	}
	s.swapDecision = d
	return nil
}

func (s *State) IterateTurn() {
	s.turnNumber++
}

func (s *State) SwitchStartingPlayer() {
	switch s.startingPlayerIndex {
	case 0:
		s.startingPlayerIndex = 1
	case 1:
		s.startingPlayerIndex = 0
	default:
		panic(fmt.Sprintf("game: invalid starting player index %d", s.startingPlayerIndex))
	}
}

// WrapUpRound scores the current player unless the round is tied and
// closes the round.
func (s *State) WrapUpRound() {
	if !s.tied {
		if s.currentPlayerIndex >= 0 && s.currentPlayerIndex < len(s.players) {
			s.players[s.currentPlayerIndex].IncrementScore()
		}
	}
	s.SwitchStartingPlayer()
	s.started = false
	s.finished = true
}
