package instance

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomoku/backend/internal/game"
)

func player(id string) game.Player {
	return game.NewPlayer(id, "name-"+id, game.ColourA)
}

func TestManagerJoinAny(t *testing.T) {
	m := NewManager(Deps{})
	g1, err := m.JoinAny(player("p1"))
	require.NoError(t, err)
	g2, err := m.JoinAny(player("p2"))
	require.NoError(t, err)
	assert.Same(t, g1, g2)
	assert.False(t, g1.IsOpen())

	g3, err := m.JoinAny(player("p3"))
	require.NoError(t, err)
	assert.NotEqual(t, g1.ID(), g3.ID())
	assert.Equal(t, 2, m.Count())

	again, err := m.JoinAny(player("p1"))
	require.NoError(t, err)
	assert.Same(t, g1, again, "joining twice returns the current game")
}

func TestManagerJoinAndGet(t *testing.T) {
	m := NewManager(Deps{})
	g, err := m.Create(player("p1"))
	require.NoError(t, err)
	_, err = m.Create(player("p1"))
	assert.ErrorIs(t, err, game.ErrAlreadyJoined)

	_, err = m.Join("missing", player("p2"))
	assert.ErrorIs(t, err, ErrGameNotFound)

	joined, err := m.Join(g.ID(), player("p2"))
	require.NoError(t, err)
	assert.Same(t, g, joined)

	_, err = m.Join(g.ID(), player("p3"))
	assert.ErrorIs(t, err, game.ErrGameFull)
	_, ok := m.GameOf("p3")
	assert.False(t, ok)

	got, ok := m.Get(g.ID())
	require.True(t, ok)
	assert.Same(t, g, got)
	of, ok := m.GameOf("p2")
	require.True(t, ok)
	assert.Same(t, g, of)
}

func TestManagerLeaveDropsEmptyGames(t *testing.T) {
	m := NewManager(Deps{})
	g, err := m.JoinAny(player("p1"))
	require.NoError(t, err)
	_, err = m.JoinAny(player("p2"))
	require.NoError(t, err)

	require.NoError(t, m.Leave("p1"))
	assert.ErrorIs(t, m.Leave("p1"), ErrNoOpenGame)
	_, ok := m.Get(g.ID())
	assert.True(t, ok)

	games := m.Games()
	require.Len(t, games, 1)
	assert.True(t, games[0].Open)

	g2, err := m.JoinAny(player("p3"))
	require.NoError(t, err)
	assert.Same(t, g, g2, "the abandoned lobby is reused")

	require.NoError(t, m.Leave("p2"))
	require.NoError(t, m.Leave("p3"))
	_, ok = m.Get(g.ID())
	assert.False(t, ok)
	assert.Equal(t, 0, m.Count())
}

func TestManagerGamesListsOpenFirst(t *testing.T) {
	m := NewManager(Deps{})
	for i := 0; i < 5; i++ {
		_, err := m.JoinAny(player(fmt.Sprintf("p%d", i)))
		require.NoError(t, err)
	}
	games := m.Games()
	require.Len(t, games, 3)
	assert.True(t, games[0].Open)
	assert.Len(t, games[0].Players, 1)
	assert.False(t, games[1].Open)
	assert.False(t, games[2].Open)
}

func TestManagerConcurrentJoinAny(t *testing.T) {
	m := NewManager(Deps{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.JoinAny(player(fmt.Sprintf("p%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, m.Count())
	for _, g := range m.Games() {
		assert.Len(t, g.Players, 2)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	p := r.AddOrGet("p1", "Alice")
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "Alice", r.AddOrGet("p1", "").Name)
	assert.Equal(t, "Alicia", r.AddOrGet("p1", " Alicia ").Name)

	anon := r.AddOrGet("", "")
	assert.NotEmpty(t, anon.ID)
	assert.Equal(t, "Player-"+anon.ID[:8], anon.Name)
	assert.Equal(t, 2, r.Len())

	got, ok := r.Get(anon.ID)
	require.True(t, ok)
	assert.Equal(t, anon, got)

	r.Remove("p1")
	_, ok = r.Get("p1")
	assert.False(t, ok)
}
