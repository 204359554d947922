package instance

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gomoku/backend/internal/game"
)

// Registry remembers the identities of connected players.
type Registry struct {
	mu      sync.RWMutex
	players map[string]game.Player
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[string]game.Player)}
}

// AddOrGet returns the player registered under id, registering a new one if
// needed. An empty id is replaced by a fresh one. A non-empty name renames
// an existing player.
func (r *Registry) AddOrGet(id, name string) game.Player {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		id = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		if name == "" {
			name = "Player-" + id[:min(8, len(id))]
		}
		p = game.NewPlayer(id, name, game.ColourA)
	} else if name != "" {
		p.Name = name
	}
	r.players[id] = p
	return p
}

func (r *Registry) Get(id string) (game.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
