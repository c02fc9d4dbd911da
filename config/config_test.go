package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 4096, cfg.Storage.PageSize)
	require.Equal(t, 2, cfg.Storage.ReplacerK)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burrowdb.yaml")
	content := `
logger:
  level: debug
storage:
  data_file: /tmp/custom.db
  pool_size: 8
  write_rate_bytes_per_sec: 1048576
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logger.Level)
	require.Equal(t, "/tmp/custom.db", cfg.Storage.DataFile)
	require.Equal(t, 8, cfg.Storage.PoolSize)
	require.Equal(t, int64(1048576), cfg.Storage.WriteRateBytesPerSec)

	// Untouched fields keep their defaults.
	require.Equal(t, Default().Storage.PageSize, cfg.Storage.PageSize)
	require.Equal(t, Default().Storage.ReplacerK, cfg.Storage.ReplacerK)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	for name, content := range map[string]string{
		"zero pool":  "storage:\n  pool_size: 0\n",
		"bad k":      "storage:\n  replacer_k: 0\n",
		"bad pages":  "storage:\n  page_size: -1\n",
		"bad syntax": "storage: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
