package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "SERVER_PORT", "ALLOWED_ORIGINS", "RATE_LIMIT_PER_SEC", "RATE_LIMIT_BURST",
		"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_GROUP_ID", "LOG_LEVEL", "LOG_DEVELOPMENT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "game-events", cfg.Kafka.Topic)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DB_HOST", "db")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Database.Enabled())
	assert.True(t, cfg.Log.Development)

	t.Setenv("PORT", "7000")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "gomoku.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8500
  ratePerSecond: 5
  rateBurst: 10
database:
  url: postgres://u:p@localhost/gomoku
kafka:
  brokers: [localhost:9092]
log:
  level: debug
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8500, cfg.Server.Port)
	assert.Equal(t, 5.0, cfg.Server.RatePerSecond)
	assert.Equal(t, "postgres://u:p@localhost/gomoku", cfg.Database.URL)
	assert.Equal(t, 5432, cfg.Database.Port, "defaults survive a partial file")
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("SERVER_PORT", "70000")
	_, err = LoadConfig()
	assert.Error(t, err)
}
