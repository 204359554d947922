package game

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the serializable form of a State that is sent to clients
// after every change.
type Snapshot struct {
	ID                  string       `json:"id"`
	Started             bool         `json:"started"`
	Finished            bool         `json:"finished"`
	Tied                bool         `json:"tied"`
	CurrentPlayerIndex  int          `json:"currentPlayerIndex"`
	StartingPlayerIndex int          `json:"startingPlayerIndex"`
	TurnNumber          int          `json:"turnNumber"`
	Players             []Player     `json:"players"`
	Board               []Cell       `json:"board"`
	Ruleset             Ruleset      `json:"ruleset"`
	SwapNextTurn        bool         `json:"swapNextTurn"`
	SwapDecision        SwapDecision `json:"swapDecision"`
}

var (
	snapshotFields = []string{
		"id", "started", "finished", "tied", "currentPlayerIndex", "startingPlayerIndex",
		"turnNumber", "players", "board", "ruleset", "swapNextTurn", "swapDecision",
	}
	playerFields = []string{"id", "displayName", "score", "colour"}
)

// Snapshot captures the current state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		ID:                  s.id,
		Started:             s.started,
		Finished:            s.finished,
		Tied:                s.tied,
		CurrentPlayerIndex:  s.currentPlayerIndex,
		StartingPlayerIndex: s.startingPlayerIndex,
		TurnNumber:          s.turnNumber,
		Players:             s.Players(),
		Board:               s.board.flatten(),
		Ruleset:             s.ruleset,
		SwapNextTurn:        s.swapNextTurn,
		SwapDecision:        s.swapDecision,
	}
}

// State rebuilds a State from the snapshot.
func (snap Snapshot) State() (*State, error) {
	if len(snap.Players) > MaxPlayers {
		return nil, validationErr("a game holds at most %d players, got %d", MaxPlayers, len(snap.Players))
	}
	board, err := boardFromFlat(snap.Board)
	if err != nil {
		return nil, err
	}
	if err := snap.checkPlayers(); err != nil {
		return nil, err
	}
	players := make([]Player, len(snap.Players))
	copy(players, snap.Players)
	return &State{
		id:                  snap.ID,
		players:             players,
		board:               board,
		ruleset:             snap.Ruleset,
		started:             snap.Started,
		finished:            snap.Finished,
		tied:                snap.Tied,
		turnNumber:          snap.TurnNumber,
		currentPlayerIndex:  snap.CurrentPlayerIndex,
		startingPlayerIndex: snap.StartingPlayerIndex,
		swapNextTurn:        snap.SwapNextTurn,
		swapDecision:        snap.SwapDecision,
	}, nil
}

// checkPlayers rejects player indices and colours that a live State can
// never reach.
func (snap Snapshot) checkPlayers() error {
	limit := max(len(snap.Players), 1)
	if snap.CurrentPlayerIndex < 0 || snap.CurrentPlayerIndex >= limit {
		return validationErr("current player index %d is out of range", snap.CurrentPlayerIndex)
	}
	if snap.StartingPlayerIndex < 0 || snap.StartingPlayerIndex >= limit {
		return validationErr("starting player index %d is out of range", snap.StartingPlayerIndex)
	}
	for _, p := range snap.Players {
		if p.Colour != ColourA && p.Colour != ColourB {
			return refine(ErrInvalidColour, "player %s has %s", p.ID, p.Colour)
		}
	}
	if len(snap.Players) == MaxPlayers && snap.Players[0].Colour == snap.Players[1].Colour {
		return validationErr("both players hold %s", snap.Players[0].Colour)
	}
	return nil
}

// ToJSON encodes the state snapshot.
func (s *State) ToJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

func (s *State) MarshalJSON() ([]byte, error) {
	return s.ToJSON()
}

// FromJSON decodes a state snapshot. Every field is required.
func FromJSON(data []byte) (*State, error) {
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	return snap.State()
}

// DecodeSnapshot parses a snapshot document, failing on the first missing
// field of the state or of any player.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return snap, fmt.Errorf("failed to deserialize game_state: %w", err)
	}
	if err := requireFields("game_state", raw, snapshotFields); err != nil {
		return snap, err
	}
	var rawPlayers []map[string]json.RawMessage
	if err := json.Unmarshal(raw["players"], &rawPlayers); err != nil {
		return snap, fmt.Errorf("failed to deserialize players: %w", err)
	}
	for _, p := range rawPlayers {
		if err := requireFields("player", p, playerFields); err != nil {
			return snap, err
		}
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to deserialize game_state: %w", err)
	}
	return snap, nil
}

func requireFields(object string, raw map[string]json.RawMessage, fields []string) error {
	for _, f := range fields {
		if _, ok := raw[f]; !ok {
			return &DecodeError{Object: object, Field: f}
		}
	}
	return nil
}
