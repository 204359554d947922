package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewLevels(t *testing.T) {
	l, err := New(Config{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = New(Config{Development: true, Level: "debug"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestGlobalHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := L()
	Set(zap.New(core))
	defer Set(prev)

	Info("joined", zap.String("player", "p1"))
	Debug("placed")
	Warn("slow")
	Error("failed")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "joined", entries[0].Message)
	assert.Equal(t, "p1", entries[0].ContextMap()["player"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}
