package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /var/lib/regwatch\nwindow_days: 14\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/regwatch", cfg.DataDir)
	assert.Equal(t, 14, cfg.WindowDays)
	assert.Equal(t, Default().Listen, cfg.Listen, "unset keys keep defaults")
	assert.Equal(t, filepath.Join("/var/lib/regwatch", "regwatch.db"), cfg.DBPath())
}

func TestLoadRejectsBadWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window_days: 0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
