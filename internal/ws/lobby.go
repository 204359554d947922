package ws

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/logger"
)

// HandleGames is an HTTP handler listing running games, open lobbies first.
func (h *Hub) HandleGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.games.Games()); err != nil {
		logger.Warn("Failed to write games listing", zap.Error(err))
	}
}
