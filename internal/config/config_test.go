package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, "truthwatch-weights-v1", cfg.ContractVersion)
	require.True(t, cfg.Browser.Headless)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Budgets.MaxExpectations = 42
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 42, loaded.Budgets.MaxExpectations)
}

func TestEnvOverrideLogDir(t *testing.T) {
	t.Setenv("TRUTHWATCH_LOG_DIR", "/tmp/truthwatch-logs")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "/tmp/truthwatch-logs", cfg.Logging.Dir)
}

func TestIsHardExcluded(t *testing.T) {
	sc := DefaultScanConfig()
	require.True(t, sc.IsHardExcluded("node_modules"))
	require.True(t, sc.IsHardExcluded(".git"))
	require.False(t, sc.IsHardExcluded("src"))
}

func TestBudgetValidate(t *testing.T) {
	b := DefaultBudgetConfig()
	require.NoError(t, b.Validate())

	b.ObserveMaxMs = 0
	require.Error(t, b.Validate())
}
