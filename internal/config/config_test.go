package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Store.OpTimeout)
	assert.Equal(t, 54*time.Second, cfg.WS.PingPeriod)
	assert.Equal(t, "kick", cfg.WS.Backpressure)
	assert.True(t, cfg.Rooms.GCEmpty)
	assert.True(t, cfg.Rooms.AllowOverwrite)
	assert.Equal(t, "room:", cfg.Store.Redis.KeyPrefix)
}

func TestLoadFileYAML(t *testing.T) {
	path := writeConfig(t, `
port: 9000
allowed_origins: ["https://poker.example.com"]
ws:
  send_buffer: 8
  backpressure: drop
rooms:
  gc_empty: false
store:
  driver: redis
  redis:
    addr: redis:6379
    ttl: 24h
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"https://poker.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 8, cfg.WS.SendBuffer)
	assert.Equal(t, "drop", cfg.WS.Backpressure)
	assert.False(t, cfg.Rooms.GCEmpty)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, int64(32768), cfg.WS.ReadLimit, "unset keys keep defaults")
}

func TestLoadFileEnvOverrides(t *testing.T) {
	path := writeConfig(t, "port: 9000\nstore:\n  driver: memory\n")
	t.Setenv("POKER_PORT", "9100")
	t.Setenv("POKER_STORE_DRIVER", "sqlite")
	t.Setenv("POKER_ROOMS_ALLOW_OVERWRITE", "false")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.False(t, cfg.Rooms.AllowOverwrite)
}

func TestLoadFileInvalid(t *testing.T) {
	cases := map[string]string{
		"driver":       "store:\n  driver: cassandra\n",
		"port":         "port: 70000\n",
		"backpressure": "ws:\n  backpressure: ignore\n",
		"send buffer":  "ws:\n  send_buffer: 0\n",
		"timeout":      "store:\n  op_timeout: 0s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestAllowsOrigin(t *testing.T) {
	cfg := &Config{AllowedOrigins: []string{"http://localhost:3000/", "https://Poker.example.com"}}
	assert.True(t, cfg.AllowsOrigin("http://localhost:3000"))
	assert.True(t, cfg.AllowsOrigin("https://poker.example.com"))
	assert.False(t, cfg.AllowsOrigin("https://evil.example.com"))
	assert.False(t, cfg.AllowsOrigin(""))

	open := &Config{AllowedOrigins: []string{"*"}}
	assert.True(t, open.AllowsOrigin("https://anything.example"))
}
