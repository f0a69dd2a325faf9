package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5003, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Game.RoundDuration)
	assert.Equal(t, 3*time.Second, cfg.Game.GracePeriod)
	assert.Equal(t, 3*time.Second, cfg.Game.Countdown)
	assert.Equal(t, 8, cfg.Game.MaxPlayers)
	assert.Equal(t, 4.0, cfg.Game.MaxUpdatesPerSecond)
	assert.True(t, cfg.Oracle.Enabled)
	assert.Equal(t, "http://localhost:5001/predict", cfg.Oracle.URL)
	assert.Equal(t, 15*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 5, cfg.Oracle.TopK)
	assert.InDelta(t, 0.60, cfg.Oracle.ConfidenceThreshold, 1e-9)
	assert.Equal(t, SessionStoreMemory, cfg.Sessions.Store)
	assert.Equal(t, 24*time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Sessions.CleanupInterval)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
game:
  round_duration: 45s
  max_players: 4
oracle:
  enabled: false
  top_k: 3
sessions:
  store: redis
  ttl: 1h
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Game.RoundDuration)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.False(t, cfg.Oracle.Enabled)
	assert.Equal(t, 3, cfg.Oracle.TopK)
	assert.Equal(t, SessionStoreRedis, cfg.Sessions.Store)
	assert.Equal(t, time.Hour, cfg.AuthSettings().SessionDuration)

	// untouched keys keep their defaults
	assert.Equal(t, 3*time.Second, cfg.Game.GracePeriod)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("DRAWGUESS_SERVER_PORT", "9100")
	t.Setenv("DRAWGUESS_ORACLE_URL", "http://oracle:5001/predict")
	t.Setenv("DRAWGUESS_GAME_ROUND_DURATION", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "http://oracle:5001/predict", cfg.OracleSettings().URL)
	assert.Equal(t, 30*time.Second, cfg.GameSettings().RoundDuration)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "sessions:\n  store: postgres\n"))
	assert.ErrorContains(t, err, "sessions.store")

	_, err = Load(writeConfig(t, "oracle:\n  confidence_threshold: 1.5\n"))
	assert.ErrorContains(t, err, "confidence_threshold")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "debug"}}
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	cfg.Log.Level = "nonsense"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestSettingsMapping(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	redisCfg := cfg.RedisSettings()
	assert.Equal(t, "redis://localhost:6379", redisCfg.URL)
	assert.Equal(t, 10, redisCfg.PoolSize)

	gameCfg := cfg.GameSettings()
	assert.Equal(t, 8, gameCfg.MaxPlayers)
	assert.Equal(t, 4.0, gameCfg.MaxUpdatesPerSecond)
}
