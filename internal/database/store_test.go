package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statsColumns = []string{"id", "display_name", "rounds_played", "rounds_won", "rounds_tied", "updated_at"}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return &DB{conn}, mock
}

func TestGetPlayerStats(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM players WHERE id = ").
			WithArgs("p1").
			WillReturnRows(sqlmock.NewRows(statsColumns).AddRow("p1", "Alice", 4, 3, 1, updated))

		stats, err := db.GetPlayerStats(ctx, "p1")
		require.NoError(t, err)
		require.NotNil(t, stats)
		assert.Equal(t, "Alice", stats.DisplayName)
		assert.Equal(t, 4, stats.RoundsPlayed)
		assert.Equal(t, 3, stats.RoundsWon)
		assert.Equal(t, 1, stats.RoundsTied)
		assert.InDelta(t, 75.0, stats.WinRate, 0.001)
		assert.True(t, updated.Equal(stats.UpdatedAt))
	})

	t.Run("unknown player", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM players WHERE id = ").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(statsColumns))

		stats, err := db.GetPlayerStats(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, stats)
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM players WHERE id = ").
			WithArgs("p1").
			WillReturnError(errors.New("connection reset"))

		_, err := db.GetPlayerStats(ctx, "p1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestGetLeaderboard(t *testing.T) {
	db, mock := newMockDB(t)
	updated := time.Now().UTC()
	mock.ExpectQuery("FROM players ORDER BY rounds_won DESC").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name", "rounds_played", "rounds_won", "rounds_tied", "win_rate", "updated_at"}).
			AddRow("p2", "Bob", 2, 2, 0, 100.0, updated).
			AddRow("p1", "Alice", 2, 0, 0, 0.0, updated))

	stats, err := db.GetLeaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "p2", stats[0].ID)
	assert.Equal(t, 100.0, stats[0].WinRate)
	assert.Equal(t, "p1", stats[1].ID)
}

func TestRecordRound(t *testing.T) {
	result := finishedRound(t, "p1")

	t.Run("commits players and round", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO players").WithArgs("p1", "Alice", 0, 0).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO players").WithArgs("p2", "Bob", 1, 0).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO rounds").
			WithArgs("g1", "swap2", "p2", false, result.Turns, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, db.RecordRound(context.Background(), result))
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO players").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := db.RecordRound(context.Background(), result)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error updating player statistics")
	})
}
