package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(`
otp:
  time_step_seconds: 60
  verify_past_window: 0
lock:
  wait_ms: 250
instrument:
  log_mask_fields: "secret, token,,"
database:
  pool:
    max_conns: 8
app:
  server:
    cors:
      - http://a
      - " "
      - http://b
`))
	require.NoError(t, err)

	assert.Equal(t, int64(60), cfg.GetInt64("otp.time_step_seconds"))
	assert.True(t, cfg.IsSet("otp.verify_past_window"))
	assert.Equal(t, 0, cfg.GetInt("otp.verify_past_window"))
	assert.Equal(t, 1, cfg.GetInt("otp.verify_future_window"), "default")
	assert.Equal(t, 250*time.Millisecond, cfg.GetMillisecond("lock.wait_ms"))
	assert.Equal(t, 10*time.Second, cfg.GetSecond("lock.ttl_seconds"))
	assert.Equal(t, []string{"secret", "token"}, cfg.GetArray("instrument.log_mask_fields"))
	assert.Equal(t, int32(8), cfg.GetInt32("database.pool.max_conns"))
	assert.False(t, cfg.IsSet("database.url"))
	assert.Empty(t, cfg.GetArray("database.url"))
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.GetArray("app.server.cors"))
	assert.NoError(t, cfg.Close())
}

func TestNewViperFromBytes_Errors(t *testing.T) {
	_, err := NewViperFromBytes("", []byte("a: 1"))
	assert.Error(t, err)

	_, err = NewViperFromBytes("yaml", []byte("a: [1"))
	assert.Error(t, err)
}

func TestNewViper(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("clock:\n  correction_minutes: -3\n"), 0o600))

	cfg, err := NewViper(file)
	require.NoError(t, err)

	assert.Equal(t, -3*time.Minute, cfg.GetMinute("clock.correction_minutes"))
	assert.Equal(t, "local", cfg.GetString("lock.driver"))

	_, err = NewViper(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
