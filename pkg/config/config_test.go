package config

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

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Zero(t, cfg.Server.RateLimit)
	assert.Equal(t, 50, cfg.Server.RateBurst)
	assert.Equal(t, int64(100<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 5_000_000, cfg.Server.MaxVertices)
}

func TestLoadRequestLimits(t *testing.T) {
	t.Setenv("GRAPH_APPROX_SERVER_MAX_VERTICES", "1000")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Server.MaxVertices)

	t.Setenv("GRAPH_APPROX_SERVER_MAX_BODY_BYTES", "0")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadRejectsBadRateLimit(t *testing.T) {
	t.Setenv("GRAPH_APPROX_SERVER_RATE_BURST", "0")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9090\"\n  read_timeout: 5s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)

	t.Setenv("GRAPH_APPROX_SERVER_ADDRESS", "127.0.0.1:7070")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7070", cfg.Server.Address)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
