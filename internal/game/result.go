package game

import "time"

// RoundResult summarizes a finished round for archiving and analytics.
type RoundResult struct {
	GameID     string
	Ruleset    Ruleset
	Tied       bool
	Winner     *Player
	Players    []Player
	Turns      int
	FinishedAt time.Time
	Final      Snapshot
}

// Result describes the round that WrapUpRound just closed. The winner is
// the current player, who received the point.
func (s *State) Result() RoundResult {
	r := RoundResult{
		GameID:     s.id,
		Ruleset:    s.ruleset,
		Tied:       s.tied,
		Players:    s.Players(),
		Turns:      s.turnNumber,
		FinishedAt: time.Now().UTC(),
		Final:      s.Snapshot(),
	}
	if !s.tied {
		if p, ok := s.CurrentPlayer(); ok {
			r.Winner = &p
		}
	}
	return r
}
