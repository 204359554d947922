package instance

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/game"
	"github.com/gomoku/backend/internal/logger"
)

// Manager owns every running game and tracks which game each player is in.
// Lock order is Manager then Instance; an Instance never calls back into
// the Manager.
type Manager struct {
	mu       sync.RWMutex
	games    map[string]*Instance
	playerOf map[string]string
	deps     Deps
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		games:    make(map[string]*Instance),
		playerOf: make(map[string]string),
		deps:     deps,
	}
}

// JoinAny puts the player into the first open lobby, or creates a new game
// when none is open.
func (m *Manager) JoinAny(p game.Player) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.playerOf[p.ID]; ok {
		return m.games[id], nil
	}
	for _, id := range m.sortedIDs() {
		inst := m.games[id]
		if !inst.IsOpen() {
			continue
		}
		if err := inst.AddPlayer(p); err == nil {
			m.playerOf[p.ID] = id
			return inst, nil
		}
	}
	return m.createLocked(p)
}

// Create opens a new game with p as its first player.
func (m *Manager) Create(p game.Player) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.playerOf[p.ID]; ok {
		return nil, game.ErrAlreadyJoined
	}
	return m.createLocked(p)
}

func (m *Manager) createLocked(p game.Player) (*Instance, error) {
	inst := New(uuid.New().String(), m.deps)
	if err := inst.AddPlayer(p); err != nil {
		return nil, err
	}
	m.games[inst.ID()] = inst
	m.playerOf[p.ID] = inst.ID()
	logger.Info("Game created", zap.String("gameId", inst.ID()), zap.String("player", p.ID))
	return inst, nil
}

// Join adds the player to a specific game.
func (m *Manager) Join(gameID string, p game.Player) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	if current, ok := m.playerOf[p.ID]; ok && current != gameID {
		return nil, game.ErrAlreadyJoined
	}
	if err := inst.AddPlayer(p); err != nil {
		return nil, err
	}
	m.playerOf[p.ID] = gameID
	return inst, nil
}

// Get looks up a game by id.
func (m *Manager) Get(gameID string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.games[gameID]
	return inst, ok
}

// GameOf returns the game the player is currently in.
func (m *Manager) GameOf(playerID string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.playerOf[playerID]
	if !ok {
		return nil, false
	}
	return m.games[id], true
}

// Leave removes the player from their game and drops the game once nobody
// is left in it.
func (m *Manager) Leave(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.playerOf[playerID]
	if !ok {
		return ErrNoOpenGame
	}
	inst := m.games[id]
	if err := inst.RemovePlayer(playerID); err != nil {
		return err
	}
	delete(m.playerOf, playerID)
	if inst.IsEmpty() {
		delete(m.games, id)
		logger.Info("Game closed", zap.String("gameId", id))
	}
	return nil
}

// GameSummary is the lobby listing entry for one game.
type GameSummary struct {
	ID      string        `json:"id"`
	Ruleset game.Ruleset  `json:"ruleset"`
	Players []game.Player `json:"players"`
	Started bool          `json:"started"`
	Open    bool          `json:"open"`
}

// Games lists all games, open lobbies first.
func (m *Manager) Games() []GameSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]GameSummary, 0, len(m.games))
	for _, id := range m.sortedIDs() {
		inst := m.games[id]
		snap := inst.Snapshot()
		out = append(out, GameSummary{
			ID:      id,
			Ruleset: snap.Ruleset,
			Players: snap.Players,
			Started: snap.Started,
			Open:    !snap.Started && !snap.Finished && len(snap.Players) < game.MaxPlayers,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Open && !out[j].Open })
	return out
}

// Count returns the number of live games.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// sortedIDs gives map iteration a stable order.
func (m *Manager) sortedIDs() []string {
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
