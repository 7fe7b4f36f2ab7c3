package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "/ws", cfg.Server.WSPath)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, 5*time.Second, cfg.Session.HeartbeatInterval)
	assert.Equal(t, 2*time.Second, cfg.Session.HeartbeatTimeLimit)
	assert.Equal(t, 15*time.Second, cfg.Session.ReconnectionTimeLimit)
	assert.Equal(t, 6, cfg.Room.DefaultMaxPlayers)
	assert.Equal(t, 30, cfg.Game.TurnSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9000
session:
  reconnection_time_limit: 30s
room:
  default_max_players: 4
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Session.ReconnectionTimeLimit)
	assert.Equal(t, 4, cfg.Room.DefaultMaxPlayers)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, "/ws", cfg.Server.WSPath)
	assert.Equal(t, 5*time.Second, cfg.Session.HeartbeatInterval)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WORDPIT_SERVER_PORT", "9100")
	t.Setenv("WORDPIT_SESSION_HEARTBEAT_INTERVAL", "250ms")
	t.Setenv("WORDPIT_LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.HeartbeatInterval)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestPortEnvAlias(t *testing.T) {
	t.Setenv("PORT", "9200")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"zero port", "WORDPIT_SERVER_PORT", "0"},
		{"tiny room", "WORDPIT_ROOM_DEFAULT_MAX_PLAYERS", "1"},
		{"zero window", "WORDPIT_SESSION_RECONNECTION_TIME_LIMIT", "0s"},
		{"zero turn", "WORDPIT_GAME_TURN_SECONDS", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load("")
			require.Error(t, err)
		})
	}
}
