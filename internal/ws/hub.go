package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/instance"
	"github.com/gomoku/backend/internal/logger"
	"github.com/gomoku/backend/internal/middleware"
)

// Hub maintains the set of active clients, routes their requests to the
// game manager and fans game state out to them.
type Hub struct {
	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	quit     chan struct{}
	stopOnce sync.Once

	// mu guards the client sets and every send on a client channel, so a
	// channel is never written after it was closed.
	mu       sync.RWMutex
	clients  map[*Client]bool
	byPlayer map[string]*Client

	games   *instance.Manager
	players *instance.Registry
	limiter *middleware.KeyedLimiter
	origins map[string]bool
}

// NewHub creates a new Hub instance. The manager is attached with SetGames,
// because the manager in turn broadcasts through the hub.
func NewHub(players *instance.Registry, limiter *middleware.KeyedLimiter, allowedOrigins []string) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		byPlayer:   make(map[string]*Client),
		players:    players,
		limiter:    limiter,
		origins:    middleware.OriginSet(allowedOrigins),
	}
}

func (h *Hub) SetGames(games *instance.Manager) {
	h.games = games
}

// Run starts the hub. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.drop(client)

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				h.closeLocked(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every connection and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// drop removes a disconnected client and takes its player out of the game.
func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	h.closeLocked(client)
	playerID := client.playerID
	h.mu.Unlock()

	if h.limiter != nil {
		h.limiter.Forget(client.key)
	}
	if playerID == "" {
		return
	}
	// The hub lock is released: leaving broadcasts through the hub.
	if err := h.games.Leave(playerID); err != nil && !errors.Is(err, instance.ErrNoOpenGame) {
		logger.Warn("Failed to remove disconnected player", zap.String("player", playerID), zap.Error(err))
	}
	h.players.Remove(playerID)
	logger.Info("Player disconnected", zap.String("player", playerID))
}

func (h *Hub) closeLocked(client *Client) {
	delete(h.clients, client)
	if client.playerID != "" && h.byPlayer[client.playerID] == client {
		delete(h.byPlayer, client.playerID)
	}
	if !client.closed {
		client.closed = true
		close(client.send)
	}
}

// bind associates a connection with a player identity.
func (h *Hub) bind(client *Client, playerID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if other, ok := h.byPlayer[playerID]; ok && other != client {
		return ErrPlayerConnected
	}
	client.playerID = playerID
	h.byPlayer[playerID] = client
	return nil
}

// Broadcast sends a full_state message to every recipient except one.
// Sends never block: a client whose buffer is full misses the update and
// catches up with the next one.
func (h *Hub) Broadcast(gameID string, snapshot []byte, recipients []string, except string) {
	data, err := json.Marshal(FullState{Type: TypeFullState, GameID: gameID, State: snapshot})
	if err != nil {
		logger.Error("Failed to encode game state", zap.String("gameId", gameID), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range recipients {
		if id == except {
			continue
		}
		if client, ok := h.byPlayer[id]; ok {
			h.deliverLocked(client, data)
		}
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliverLocked(client, data)
}

func (h *Hub) deliverLocked(client *Client, data []byte) {
	if client.closed {
		return
	}
	select {
	case client.send <- data:
	default:
		logger.Warn("Dropping message for slow client", zap.String("player", client.playerID))
	}
}

// ConnectedPlayers counts clients bound to a player.
func (h *Hub) ConnectedPlayers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byPlayer)
}
