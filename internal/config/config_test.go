package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finecision/finecision/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "finecision:", cfg.Redis.Prefix)
	assert.Equal(t, time.Duration(0), cfg.Redis.TTL)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 4, cfg.Engine.StepMultiplier)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
http:
  port: 9090
store:
  backend: redis
redis:
  addr: redis:6379
  ttl: 24h
lock:
  ttl: 5s
engine:
  step_multiplier: 10
`), 0o644))

	t.Setenv("FINECISION_HTTP_PORT", "7070")
	t.Setenv("FINECISION_REDIS_DB", "2")

	cfg, err := config.Load(config.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 5*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 10, cfg.Engine.StepMultiplier)
}

func TestLoad_DiscoversWorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "finecision.yaml"), []byte("workflows:\n  dir: ./flows\n"), 0o644))
	t.Chdir(dir)

	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "./flows", cfg.Workflows.Dir)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(config.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	t.Chdir(t.TempDir())
	t.Setenv("FINECISION_STORE_BACKEND", "postgres")
	_, err = config.Load(config.New(), "")
	assert.ErrorContains(t, err, `unknown store backend "postgres"`)

	t.Setenv("FINECISION_STORE_BACKEND", "memory")
	t.Setenv("FINECISION_ENCRYPTION_FALLBACK_KEYS", "b2xkLWtleQ==")
	_, err = config.Load(config.New(), "")
	assert.ErrorContains(t, err, "need an active key")
}
