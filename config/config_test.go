package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "tabular.db", cfg.Storage.Path)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
log_level: debug
storage:
  backend: memory
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
}

func TestLoad_PortOverride(t *testing.T) {
	t.Setenv("PORT", "3001")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3001", cfg.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		cfg := Default()
		cfg.Storage.Backend = "postgres"
		assert.Error(t, cfg.Validate())
	})

	t.Run("sqlite requires a path", func(t *testing.T) {
		cfg := Default()
		cfg.Storage.Path = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("memory needs no path", func(t *testing.T) {
		cfg := Default()
		cfg.Storage.Backend = BackendMemory
		cfg.Storage.Path = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("empty addr", func(t *testing.T) {
		cfg := Default()
		cfg.Addr = ""
		assert.Error(t, cfg.Validate())
	})
}
