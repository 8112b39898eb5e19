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
	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, ":8080", cfg.AdminAddr)
	assert.Equal(t, 120*time.Second, cfg.HealthCheckInterval)
	assert.Equal(t, 10, cfg.MaxRequestsPerSecond)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "data/chainpool.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Minute, cfg.SnapshotInterval)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DEBUG", "true")
	t.Setenv("ADMIN_ADDR", ":9090")
	t.Setenv("HEALTH_CHECK_INTERVAL", "30s")
	t.Setenv("MAX_REQUESTS_PER_SECOND", "25")
	t.Setenv("RPC_MAX_RETRIES", "5")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	t.Setenv("ETHEREUM_RPC_URL", "https://eth.internal:8545")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, ":9090", cfg.AdminAddr)
	assert.Equal(t, 30*time.Second, cfg.HealthCheckInterval)
	assert.Equal(t, 25, cfg.MaxRequestsPerSecond)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, int64(-100200300), cfg.TelegramChatID)
	assert.Equal(t, "https://eth.internal:8545", cfg.RPCOverrides["ethereum"])
}

func TestLoadRejectsBadChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsShortHealthInterval(t *testing.T) {
	t.Setenv("HEALTH_CHECK_INTERVAL", "2s")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsZeroRPS(t *testing.T) {
	t.Setenv("MAX_REQUESTS_PER_SECOND", "0")
	_, err := Load()
	assert.Error(t, err)
}

const sampleEndpointsYAML = `
chains:
  ethereum:
    - url: https://eth-primary.example
      priority: 1
      maxRequestsPerSecond: 25
    - url: https://eth-backup.example
      priority: 2
  solana:
    - url: https://sol.example
      priority: 1
      maxRequestsPerSecond: 50
`

func writeEndpointsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEndpoints(t *testing.T) {
	path := writeEndpointsFile(t, sampleEndpointsYAML)

	eps, err := LoadEndpoints(path)
	require.NoError(t, err)

	require.Len(t, eps["ethereum"], 2)
	assert.Equal(t, "https://eth-primary.example", eps["ethereum"][0].URL)
	assert.Equal(t, 1, eps["ethereum"][0].Priority)
	assert.Equal(t, 25, eps["ethereum"][0].MaxRPS)
	assert.Equal(t, 0, eps["ethereum"][1].MaxRPS, "omitted cap means pool default")
	require.Len(t, eps["solana"], 1)
}

func TestLoadEndpointsRejectsEmptyURL(t *testing.T) {
	path := writeEndpointsFile(t, "chains:\n  ethereum:\n    - priority: 1\n")
	_, err := LoadEndpoints(path)
	assert.Error(t, err)
}

func TestLoadEndpointsRejectsEmptyFile(t *testing.T) {
	path := writeEndpointsFile(t, "chains: {}\n")
	_, err := LoadEndpoints(path)
	assert.Error(t, err)
}

func TestLoadEndpointsMissingFile(t *testing.T) {
	_, err := LoadEndpoints(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEndpointsMergesOverrides(t *testing.T) {
	path := writeEndpointsFile(t, sampleEndpointsYAML)
	cfg := &Config{
		EndpointsFile:        path,
		MaxRequestsPerSecond: 10,
		RPCOverrides:         map[string]string{"ethereum": "https://eth.internal:8545"},
	}

	eps, err := cfg.Endpoints()
	require.NoError(t, err)

	require.Len(t, eps["ethereum"], 3)
	assert.Equal(t, "https://eth.internal:8545", eps["ethereum"][0].URL)
	assert.Equal(t, 0, eps["ethereum"][0].Priority, "override is the preferred endpoint")
	assert.Equal(t, "https://eth-primary.example", eps["ethereum"][1].URL)
}

func TestEndpointsFallsBackToDefaults(t *testing.T) {
	cfg := &Config{RPCOverrides: map[string]string{}}

	eps, err := cfg.Endpoints()
	require.NoError(t, err)
	assert.NotEmpty(t, eps["ethereum"], "built-in defaults must cover ethereum")
	assert.NotEmpty(t, eps["solana"], "built-in defaults must cover solana")
}
