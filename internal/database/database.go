package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/game"
	"github.com/gomoku/backend/internal/logger"
)

// DB archives finished rounds and serves the leaderboard.
type DB struct {
	*sql.DB
}

// Config holds database configuration. URL wins over the individual fields.
type Config struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

func (c Config) dsn() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName,
	)
}

// PlayerStats is one leaderboard row.
type PlayerStats struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"displayName"`
	RoundsPlayed int       `json:"roundsPlayed"`
	RoundsWon    int       `json:"roundsWon"`
	RoundsTied   int       `json:"roundsTied"`
	WinRate      float64   `json:"winRate"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS players (
	id            TEXT PRIMARY KEY,
	display_name  TEXT NOT NULL,
	rounds_played INTEGER NOT NULL DEFAULT 0,
	rounds_won    INTEGER NOT NULL DEFAULT 0,
	rounds_tied   INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rounds (
	id          SERIAL PRIMARY KEY,
	game_id     TEXT NOT NULL,
	ruleset     VARCHAR(32) NOT NULL,
	winner_id   TEXT REFERENCES players(id),
	is_tie      BOOLEAN NOT NULL,
	turns       INTEGER NOT NULL,
	final_state JSONB NOT NULL,
	finished_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rounds_game_id ON rounds(game_id);
CREATE INDEX IF NOT EXISTS idx_players_rounds_won ON players(rounds_won DESC);
`

// NewDB creates a new database connection with connection pooling
func NewDB(config Config) (*DB, error) {
	db, err := sql.Open("postgres", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	logger.Info("Connected to database", zap.String("host", config.Host), zap.String("dbname", config.DBName))
	return &DB{db}, nil
}

// EnsureSchema creates the archive tables if they are missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

// roundRow holds the column values of one archived round.
type roundRow struct {
	winner     interface{}
	ruleset    string
	finalState []byte
}

func newRoundRow(result game.RoundResult) (roundRow, error) {
	state, err := json.Marshal(result.Final)
	if err != nil {
		return roundRow{}, fmt.Errorf("error marshaling final state: %w", err)
	}
	row := roundRow{ruleset: result.Ruleset.String(), finalState: state}
	if !result.Tied && result.Winner != nil {
		row.winner = result.Winner.ID
	}
	return row, nil
}

// RecordRound stores a finished round and updates both players' totals in
// one transaction.
func (db *DB) RecordRound(ctx context.Context, result game.RoundResult) error {
	row, err := newRoundRow(result)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range result.Players {
		won, tied := 0, 0
		switch {
		case result.Tied:
			tied = 1
		case result.Winner != nil && result.Winner.ID == p.ID:
			won = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO players (id, display_name, rounds_played, rounds_won, rounds_tied)
			VALUES ($1, $2, 1, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET display_name = EXCLUDED.display_name,
				rounds_played = players.rounds_played + 1,
				rounds_won = players.rounds_won + EXCLUDED.rounds_won,
				rounds_tied = players.rounds_tied + EXCLUDED.rounds_tied,
				updated_at = CURRENT_TIMESTAMP`,
			p.ID, p.Name, won, tied,
		)
		if err != nil {
			return fmt.Errorf("error updating player statistics: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rounds (game_id, ruleset, winner_id, is_tie, turns, final_state, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.GameID, row.ruleset, row.winner, result.Tied, result.Turns, row.finalState, result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting round: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// GetLeaderboard retrieves the top players
func (db *DB) GetLeaderboard(ctx context.Context, limit int) ([]PlayerStats, error) {
	query := `
		SELECT id, display_name, rounds_played, rounds_won, rounds_tied,
		       CASE WHEN rounds_played > 0 THEN ROUND((rounds_won::numeric / rounds_played::numeric) * 100, 2)
		            ELSE 0 END AS win_rate,
		       updated_at
		FROM players
		ORDER BY rounds_won DESC, win_rate DESC, id
		LIMIT $1`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error getting leaderboard: %w", err)
	}
	defer rows.Close()

	players := make([]PlayerStats, 0, limit)
	for rows.Next() {
		var p PlayerStats
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.RoundsPlayed, &p.RoundsWon, &p.RoundsTied, &p.WinRate, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning leaderboard row: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// GetPlayerStats retrieves statistics for a specific player. It returns nil
// when the player has never finished a round.
func (db *DB) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	query := `
		SELECT id, display_name, rounds_played, rounds_won, rounds_tied, updated_at
		FROM players
		WHERE id = $1`

	var p PlayerStats
	err := db.QueryRowContext(ctx, query, playerID).Scan(
		&p.ID, &p.DisplayName, &p.RoundsPlayed, &p.RoundsWon, &p.RoundsTied, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting player stats: %w", err)
	}
	if p.RoundsPlayed > 0 {
		p.WinRate = float64(p.RoundsWon) / float64(p.RoundsPlayed) * 100
	}
	return &p, nil
}
