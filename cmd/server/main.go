package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/analytics"
	"github.com/gomoku/backend/internal/cache"
	"github.com/gomoku/backend/internal/config"
	"github.com/gomoku/backend/internal/database"
	"github.com/gomoku/backend/internal/instance"
	"github.com/gomoku/backend/internal/logger"
	"github.com/gomoku/backend/internal/middleware"
	"github.com/gomoku/backend/internal/utils"
	"github.com/gomoku/backend/internal/ws"
)

const (
	leaderboardKey  = "leaderboard"
	leaderboardTTL  = 30 * time.Second
	leaderboardSize = 100
	shutdownTimeout = 10 * time.Second
	limiterIdle     = 10 * time.Minute
)

func main() {
	// Load .env.local for local development
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := utils.ShutdownContext(context.Background())
	defer stop()

	resources := utils.NewResourceManager()
	defer resources.Cleanup()

	deps := instance.Deps{}
	db := openDatabase(ctx, cfg.Database)
	if db != nil {
		resources.AddCleanupFunc("database", db.Close)
		deps.Recorder = db
	}

	if cfg.Kafka.Enabled() {
		producer, err := analytics.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Warn("Kafka producer init failed, analytics disabled", zap.Error(err))
		} else {
			resources.AddCleanupFunc("kafka producer", producer.Close)
			deps.Events = producer
			logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
		if db != nil {
			startConsumer(ctx, cfg.Kafka, db, resources)
		}
	}

	players := instance.NewRegistry()
	limiter := middleware.NewKeyedLimiter(cfg.Server.RatePerSecond, cfg.Server.RateBurst)
	hub := ws.NewHub(players, limiter, cfg.Server.AllowedOrigins)
	deps.Broadcaster = hub
	hub.SetGames(instance.NewManager(deps))
	go hub.Run()
	resources.AddCleanupFunc("websocket hub", func() error { hub.Stop(); return nil })

	leaderboard := cache.New[[]database.PlayerStats](time.Minute)
	resources.AddCleanupFunc("leaderboard cache", func() error { leaderboard.Stop(); return nil })

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})
	mux.HandleFunc("/games", hub.HandleGames)
	var store statsStore
	if db != nil {
		store = db
	}
	mux.HandleFunc("/leaderboard", leaderboardHandler(store, leaderboard))
	mux.HandleFunc(playerStatsRoute, playerStatsHandler(store))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"players": hub.ConnectedPlayers(),
		})
	})

	httpLimiter := middleware.NewKeyedLimiter(cfg.Server.RatePerSecond, cfg.Server.RateBurst)
	httpLimiter.StartSweeper(time.Minute, limiterIdle)
	resources.AddCleanupFunc("http rate limiter", func() error { httpLimiter.Stop(); return nil })
	handler := middleware.CORS(cfg.Server.AllowedOrigins)(middleware.RateLimitMiddleware(httpLimiter)(mux))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	resources.AddCleanupFunc("http server", func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Gomoku server running", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, cleaning up")
		return nil
	case err := <-errCh:
		return err
	}
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) *database.DB {
	if !cfg.Enabled() {
		logger.Warn("No database configuration found, running without round archive")
		return nil
	}
	db, err := database.NewDB(database.Config{
		URL:      cfg.URL,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.DBName,
	})
	if err != nil {
		logger.Error("Database connection failed, running without round archive", zap.Error(err))
		return nil
	}
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Warn("Failed to initialize schema", zap.Error(err))
	}
	return db
}

func startConsumer(ctx context.Context, cfg config.KafkaConfig, db *database.DB, resources *utils.ResourceManager) {
	consumer, err := analytics.NewConsumer(cfg.Brokers, cfg.GroupID, db.DB)
	if err != nil {
		logger.Warn("Kafka consumer init failed", zap.Error(err))
		return
	}
	if _, err := db.ExecContext(ctx, analytics.CreateAnalyticsTableSQL); err != nil {
		logger.Warn("Failed to create analytics tables", zap.Error(err))
	}
	resources.AddCleanupFunc("kafka consumer", consumer.Close)

	go func() {
		if err := consumer.Start(ctx, []string{cfg.Topic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Kafka consumer stopped", zap.Error(err))
		}
	}()
	logger.Info("Kafka consumer initialized", zap.String("group", cfg.GroupID))
}
