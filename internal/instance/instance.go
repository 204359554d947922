package instance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/analytics"
	"github.com/gomoku/backend/internal/game"
	"github.com/gomoku/backend/internal/logger"
)

// Broadcaster delivers a serialized snapshot to the listed players, skipping
// except. Implementations must not block.
type Broadcaster interface {
	Broadcast(gameID string, snapshot []byte, recipients []string, except string)
}

// EventSink receives gameplay events for analytics.
type EventSink interface {
	SendEvent(event analytics.GameEvent) error
}

// Recorder archives finished rounds.
type Recorder interface {
	RecordRound(ctx context.Context, result game.RoundResult) error
}

// Deps are the optional collaborators of an Instance. Nil members are skipped.
type Deps struct {
	Broadcaster Broadcaster
	Events      EventSink
	Recorder    Recorder
}

const recordTimeout = 5 * time.Second

// Instance guards one game State with its own lock. Every mutation runs
// against the live state and is rolled back to a clone if it fails, so a
// failed request never leaves a half-applied move behind.
type Instance struct {
	id    string
	mu    sync.Mutex
	state *game.State
	deps  Deps
}

// New creates an empty game lobby.
func New(id string, deps Deps) *Instance {
	return &Instance{id: id, state: game.NewState(id), deps: deps}
}

// FromState wraps an existing state, e.g. one decoded from a snapshot.
func FromState(s *game.State, deps Deps) *Instance {
	return &Instance{id: s.ID(), state: s, deps: deps}
}

// effects collects what a successful mutation reports after the lock is
// released.
type effects struct {
	events []analytics.GameEvent
	round  *game.RoundResult
}

func (e *effects) emit(ev analytics.GameEvent) {
	e.events = append(e.events, ev)
}

func (e *effects) roundOver(s *game.State) {
	r := s.Result()
	e.round = &r
	winner := ""
	if r.Winner != nil {
		winner = r.Winner.ID
	}
	e.emit(analytics.CreateRoundEndEvent(r.GameID, winner, r.Tied, r.Turns))
}

func (in *Instance) mutate(actor, action string, fn func(s *game.State, fx *effects) error) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	backup := in.state.Clone()
	var fx effects
	if err := fn(in.state, &fx); err != nil {
		in.state = backup
		logger.Debug("Rejected game request",
			zap.String("gameId", in.id),
			zap.String("player", actor),
			zap.String("action", action),
			zap.Error(err))
		return fmt.Errorf("unable to %s: %w", action, err)
	}

	logger.Debug("Applied game request",
		zap.String("gameId", in.id),
		zap.String("player", actor),
		zap.String("action", action),
		zap.Int("turn", in.state.TurnNumber()))
	in.broadcastLocked(actor)
	in.dispatch(fx)
	return nil
}

// broadcastLocked serializes the state and hands it to the broadcaster. The
// broadcaster only enqueues, so no network I/O happens under the lock.
func (in *Instance) broadcastLocked(except string) {
	if in.deps.Broadcaster == nil {
		return
	}
	data, err := in.state.ToJSON()
	if err != nil {
		logger.Error("Failed to serialize game state", zap.String("gameId", in.id), zap.Error(err))
		return
	}
	players := in.state.Players()
	recipients := make([]string, 0, len(players))
	for _, p := range players {
		recipients = append(recipients, p.ID)
	}
	in.deps.Broadcaster.Broadcast(in.id, data, recipients, except)
}

// dispatch publishes events and archives a finished round in the background.
func (in *Instance) dispatch(fx effects) {
	if fx.round != nil {
		logger.Info("Round finished",
			zap.String("gameId", fx.round.GameID),
			zap.Bool("tied", fx.round.Tied),
			zap.Int("turns", fx.round.Turns))
	}
	if in.deps.Events != nil && len(fx.events) > 0 {
		sink := in.deps.Events
		go func(events []analytics.GameEvent) {
			for _, ev := range events {
				if err := sink.SendEvent(ev); err != nil {
					logger.Warn("Failed to send analytics event",
						zap.String("type", ev.Type),
						zap.String("gameId", ev.GameID),
						zap.Error(err))
				}
			}
		}(fx.events)
	}
	if in.deps.Recorder != nil && fx.round != nil {
		rec := in.deps.Recorder
		go func(result game.RoundResult) {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := rec.RecordRound(ctx, result); err != nil {
				logger.Error("Failed to record round", zap.String("gameId", result.GameID), zap.Error(err))
			}
		}(*fx.round)
	}
}

func requireMember(s *game.State, playerID string) error {
	if !s.HasPlayer(playerID) {
		return ErrNotInGame
	}
	return nil
}

// AddPlayer joins p to the lobby.
func (in *Instance) AddPlayer(p game.Player) error {
	return in.mutate(p.ID, "join game", func(s *game.State, fx *effects) error {
		if err := s.AddPlayer(p); err != nil {
			return err
		}
		fx.emit(analytics.CreatePlayerEvent(analytics.EventPlayerJoin, s.ID(), p.ID))
		return nil
	})
}

// RemovePlayer takes a player out of the game. Leaving mid-round forfeits
// the round; the remaining player is left in an open lobby.
func (in *Instance) RemovePlayer(playerID string) error {
	return in.mutate(playerID, "leave game", func(s *game.State, fx *effects) error {
		if err := requireMember(s, playerID); err != nil {
			return err
		}
		if s.IsStarted() {
			forfeit(s, playerID, fx)
		}
		if err := s.RemovePlayer(playerID); err != nil {
			return err
		}
		fx.emit(analytics.CreatePlayerEvent(analytics.EventPlayerLeave, s.ID(), playerID))

		if s.IsFinished() {
			if rest := s.Players(); len(rest) > 0 {
				if err := s.PrepareGame(rest[0].ID); err != nil {
					return err
				}
				s.ResetScores()
			}
		}
		return nil
	})
}

// StartGame begins a round with the chosen ruleset.
func (in *Instance) StartGame(playerID string) error {
	return in.mutate(playerID, "start game", func(s *game.State, fx *effects) error {
		if err := requireMember(s, playerID); err != nil {
			return err
		}
		if err := s.StartGame(); err != nil {
			return err
		}
		fx.emit(startEvent(s))
		return nil
	})
}

func startEvent(s *game.State) analytics.GameEvent {
	players := s.Players()
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return analytics.CreateGameStartEvent(s.ID(), s.Ruleset().String(), ids)
}

// PlaceStone places a stone for the current player, then either closes the
// round on a win or a full board, or advances the turn.
func (in *Instance) PlaceStone(playerID string, x, y int, colour game.Cell) error {
	return in.mutate(playerID, "place stone", func(s *game.State, fx *effects) error {
		if err := requireTurn(s, playerID); err != nil {
			return err
		}
		if s.SwapNextTurn() {
			return ErrSwapPending
		}
		if p, _ := s.CurrentPlayer(); p.Colour != colour {
			return ErrWrongColour
		}
		if err := s.PlaceStone(x, y, colour); err != nil {
			return err
		}
		fx.emit(analytics.CreateStoneEvent(s.ID(), playerID, x, y, colour.String(), s.TurnNumber()))

		if s.CheckWinCondition(x, y, colour) || (s.ShouldCheckTie() && s.CheckForTie()) {
			s.WrapUpRound()
			fx.roundOver(s)
			return nil
		}
		if err := s.UpdateCurrentPlayer(); err != nil {
			return err
		}
		s.IterateTurn()
		return nil
	})
}

// DoSwapDecision answers a pending swap question.
func (in *Instance) DoSwapDecision(playerID string, decision game.SwapDecision) error {
	return in.mutate(playerID, "make swap decision", func(s *game.State, fx *effects) error {
		if err := requireTurn(s, playerID); err != nil {
			return err
		}
		if !s.SwapNextTurn() {
			return ErrNoSwapPending
		}
		if err := s.DetermineSwapDecision(decision); err != nil {
			return err
		}
		fx.emit(analytics.CreateSwapDecisionEvent(s.ID(), playerID, s.SwapDecision().String(), s.TurnNumber()))
		if err := s.UpdateCurrentPlayer(); err != nil {
			return err
		}
		s.IterateTurn()
		return nil
	})
}

func requireTurn(s *game.State, playerID string) error {
	if err := requireMember(s, playerID); err != nil {
		return err
	}
	if !s.IsStarted() {
		return ErrNotStarted
	}
	if !s.IsAllowedToPlayNow(playerID) {
		return ErrNotYourTurn
	}
	return nil
}

// DoForfeit concedes the running round to the opponent.
func (in *Instance) DoForfeit(playerID string) error {
	return in.mutate(playerID, "forfeit", func(s *game.State, fx *effects) error {
		if err := requireMember(s, playerID); err != nil {
			return err
		}
		if !s.IsStarted() {
			return ErrNotStarted
		}
		forfeit(s, playerID, fx)
		return nil
	})
}

// forfeit hands the turn to the opponent of playerID, who is then scored by
// WrapUpRound.
func forfeit(s *game.State, playerID string, fx *effects) {
	if s.IsAllowedToPlayNow(playerID) {
		s.AlternateCurrentPlayer()
	}
	fx.emit(analytics.CreateForfeitEvent(s.ID(), playerID))
	s.WrapUpRound()
	fx.roundOver(s)
}

// SetGameMode selects the opening ruleset for the next round.
func (in *Instance) SetGameMode(playerID, mode string) error {
	return in.mutate(playerID, "set game mode", func(s *game.State, fx *effects) error {
		if err := requireMember(s, playerID); err != nil {
			return err
		}
		if s.IsStarted() {
			return ErrRoundInProgress
		}
		if err := s.SetGameMode(mode); err != nil {
			return err
		}
		fx.emit(analytics.CreateGameModeEvent(s.ID(), playerID, s.Ruleset().String()))
		return nil
	})
}

// Restart requests a rematch. With changeRuleset the scores and the ruleset
// are cleared and the game waits for a new mode; otherwise the next round
// starts at once.
func (in *Instance) Restart(playerID string, changeRuleset bool) error {
	return in.mutate(playerID, "restart game", func(s *game.State, fx *effects) error {
		if err := requireMember(s, playerID); err != nil {
			return err
		}
		if !s.IsFinished() {
			return ErrRoundNotFinished
		}
		if err := s.PrepareGame(playerID); err != nil {
			return err
		}
		if changeRuleset {
			s.ResetScores()
			s.ResetRuleset()
			return nil
		}
		if err := s.StartGame(); err != nil {
			return err
		}
		fx.emit(startEvent(s))
		return nil
	})
}

// ID returns the game id. It is fixed at construction, so no lock is taken.
func (in *Instance) ID() string {
	return in.id
}

// Snapshot returns a consistent copy of the state.
func (in *Instance) Snapshot() game.Snapshot {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state.Snapshot()
}

// State returns a deep copy of the state for read-only use.
func (in *Instance) State() *game.State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state.Clone()
}

func (in *Instance) Players() []game.Player {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state.Players()
}

func (in *Instance) CurrentPlayer() (game.Player, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state.CurrentPlayer()
}

func (in *Instance) HasPlayer(playerID string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state.HasPlayer(playerID)
}

// IsOpen reports whether a new player could join right now.
func (in *Instance) IsOpen() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return !in.state.IsStarted() && !in.state.IsFinished() && !in.state.IsFull()
}

// IsEmpty reports whether every player has left.
func (in *Instance) IsEmpty() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.state.Players()) == 0
}
