package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, "./data/planner.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "home_planner", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 7, cfg.Backup.Retention)
	assert.False(t, cfg.Auth.Enabled)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_PATH", "/tmp/other.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFrom(writeConfig(t, "logging:\n  level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "server:\n  port: 3001\n"))
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Auth.Enabled = true
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = ""

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "auth.jwt_secret")
	assert.Contains(t, err.Error(), "mqtt.broker")
}

func TestInvalidLogLevelRejected(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, "logging:\n  level: loud\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}
