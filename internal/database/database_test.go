package database

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomoku/backend/internal/game"
)

func TestConfigDSN(t *testing.T) {
	c := Config{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "gomoku"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=gomoku sslmode=disable", c.dsn())

	c.URL = "postgres://u:p@db/gomoku"
	assert.Equal(t, "postgres://u:p@db/gomoku", c.dsn())
}

func finishedRound(t *testing.T, forfeiter string) game.RoundResult {
	t.Helper()
	s := game.NewState("g1")
	require.NoError(t, s.AddPlayer(game.NewPlayer("p1", "Alice", game.ColourA)))
	require.NoError(t, s.AddPlayer(game.NewPlayer("p2", "Bob", game.ColourB)))
	require.NoError(t, s.SetGameMode("swap2"))
	require.NoError(t, s.StartGame())
	if s.IsAllowedToPlayNow(forfeiter) {
		s.AlternateCurrentPlayer()
	}
	s.WrapUpRound()
	return s.Result()
}

func TestNewRoundRow(t *testing.T) {
	result := finishedRound(t, "p1")
	row, err := newRoundRow(result)
	require.NoError(t, err)
	assert.Equal(t, "p2", row.winner)
	assert.Equal(t, "swap2", row.ruleset)

	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(row.finalState, &snap))
	assert.Equal(t, "g1", snap["id"])
	assert.Equal(t, true, snap["finished"])
	assert.Len(t, snap["board"], game.NumCells)
}

func TestNewRoundRowTie(t *testing.T) {
	result := game.RoundResult{GameID: "g", Ruleset: game.Freestyle, Tied: true, FinishedAt: time.Now()}
	row, err := newRoundRow(result)
	require.NoError(t, err)
	assert.Nil(t, row.winner)
	assert.Equal(t, "freestyle", row.ruleset)
}
