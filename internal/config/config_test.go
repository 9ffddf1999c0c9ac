package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueberrycongee/semcache/internal/config"
)

func writeTempConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "semcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
embedder:
  api_key: test-key
`)
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "entry_limit", cfg.Engine.EvictionPolicy)
	assert.Equal(t, uint64(10_000), cfg.Engine.EntryLimit)
}

func TestLoadFromFileRejectsThresholdOutOfRange(t *testing.T) {
	path := writeTempConfig(t, `
embedder:
  api_key: test-key
engine:
  similarity_threshold: 1.5
`)
	_, err := config.LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileRejectsUnknownEvictionPolicy(t *testing.T) {
	path := writeTempConfig(t, `
embedder:
  api_key: test-key
engine:
  eviction_policy: bogus
`)
	_, err := config.LoadFromFile(path)
	assert.Error(t, err)
}

func TestEnvOverrideWinsOverFile(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: 9000
embedder:
  api_key: test-key
`)
	t.Setenv("SEMCACHE_SERVER_PORT", "9100")

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestManagerReload(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: 8080
embedder:
  api_key: test-key
`)
	mgr, err := config.NewManager(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, mgr.Get().Server.Port)

	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8081
embedder:
  api_key: test-key
`), 0o600))

	require.NoError(t, mgr.Reload())
	assert.Equal(t, 8081, mgr.Get().Server.Port)
}
