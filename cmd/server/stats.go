package main

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/cache"
	"github.com/gomoku/backend/internal/database"
	"github.com/gomoku/backend/internal/logger"
)

const playerStatsRoute = "GET /players/{id}"

// statsStore is the read side of the round archive. A nil store means the
// server runs without a database.
type statsStore interface {
	GetLeaderboard(ctx context.Context, limit int) ([]database.PlayerStats, error)
	GetPlayerStats(ctx context.Context, playerID string) (*database.PlayerStats, error)
}

// leaderboardHandler serves the top players, cached briefly.
func leaderboardHandler(store statsStore, c *cache.Cache[[]database.PlayerStats]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if store == nil {
			json.NewEncoder(w).Encode([]database.PlayerStats{})
			return
		}

		stats, ok := c.Get(leaderboardKey)
		if !ok {
			var err error
			stats, err = store.GetLeaderboard(r.Context(), leaderboardSize)
			if err != nil {
				logger.Error("Error fetching leaderboard", zap.Error(err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			c.Set(leaderboardKey, stats, leaderboardTTL)
		}
		json.NewEncoder(w).Encode(stats)
	}
}

// playerStatsHandler serves the archived totals of one player.
func playerStatsHandler(store statsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "Player statistics unavailable", http.StatusServiceUnavailable)
			return
		}
		id := r.PathValue("id")
		stats, err := store.GetPlayerStats(r.Context(), id)
		if err != nil {
			logger.Error("Error fetching player stats", zap.String("player", id), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if stats == nil {
			http.Error(w, "Player not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}
