package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp изолирует тест от config.yaml и .env в рабочей директории.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Node.RPCEndpoint)
	assert.Empty(t, cfg.Node.GraphQLEndpoint)
	assert.Equal(t, 5*time.Second, cfg.Sync.DashboardInterval)
	assert.Equal(t, 10, cfg.Sync.TransactionsLimit)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadConfigLegacyEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LINERA_CHAIN_ID", "e476")
	t.Setenv("LINERA_APPLICATION_ID", "app-1")
	t.Setenv("NEXT_PUBLIC_LINERA_GRAPHQL_ENDPOINT", "http://node:8080/graphql")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "e476", cfg.Node.ChainID)
	assert.Equal(t, "app-1", cfg.Node.ApplicationID)
	assert.Equal(t, "http://node:8080/graphql", cfg.Node.GraphQLEndpoint)
}

func TestLoadConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	yaml := []byte("node:\n  chain_id: from-file\nsync:\n  dashboard_interval: 2s\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("NODE_APPLICATION_ID", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Node.ChainID)
	assert.Equal(t, "from-env", cfg.Node.ApplicationID)
	assert.Equal(t, 2*time.Second, cfg.Sync.DashboardInterval)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)

	logger, err := NewLogger(LoggerConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
