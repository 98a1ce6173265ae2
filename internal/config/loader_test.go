package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader("/path/to/config.json")
	assert.NotNil(t, loader)
	assert.Equal(t, "/path/to/config.json", loader.configPath)
}

func TestLoaderLoad(t *testing.T) {
	t.Run("load default config when file doesn't exist", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nonexistent.json")

		cfg, err := NewLoader(configPath).Load()

		require.NoError(t, err)
		assert.Equal(t, "SessionState.json", cfg.Storage.FileName)
		assert.Equal(t, "warn", cfg.Logging.Level)

		_, err = os.Stat(configPath)
		assert.True(t, os.IsNotExist(err), "loading must not create the config file")
	})

	t.Run("load config from file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.json")

		testConfig := `{
			"storage": {
				"project_root": "/srv/project",
				"app_name": "agent"
			},
			"history": {"max_entries": 200},
			"logging": {"level": "debug", "redact_patterns": ["internal-[0-9]+"]}
		}`
		require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0644))

		cfg, err := NewLoader(configPath).Load()

		require.NoError(t, err)
		assert.Equal(t, "/srv/project", cfg.Storage.ProjectRoot)
		assert.Equal(t, "agent", cfg.Storage.AppName)
		assert.Equal(t, ".cache", cfg.Storage.CacheDir, "unset keys keep defaults")
		assert.Equal(t, 200, cfg.History.MaxEntries)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.True(t, cfg.Logging.Redaction)
		assert.Equal(t, []string{"internal-[0-9]+"}, cfg.Logging.RedactPatterns)
	})

	t.Run("set default paths", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{}`), 0644))

		cfg, err := NewLoader(configPath).Load()

		require.NoError(t, err)
		wd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, wd, cfg.Storage.ProjectRoot)
		assert.Equal(t, filepath.Join(tmpDir, "acpkeep.log"), cfg.Logging.File)
	})

	t.Run("environment overrides", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{"history": {"max_entries": 5}}`), 0644))

		t.Setenv("ACPKEEP_HISTORY_MAX_ENTRIES", "25")
		t.Setenv("ACPKEEP_STORAGE_PROJECT_ROOT", "/from/env")
		t.Setenv("ACPKEEP_LOGGING_LEVEL", "error")

		cfg, err := NewLoader(configPath).Load()

		require.NoError(t, err)
		assert.Equal(t, 25, cfg.History.MaxEntries)
		assert.Equal(t, "/from/env", cfg.Storage.ProjectRoot)
		assert.Equal(t, "error", cfg.Logging.Level)
	})

	t.Run("environment overrides without file", func(t *testing.T) {
		t.Setenv("ACPKEEP_TRACING_ENABLED", "true")

		cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.json")).Load()

		require.NoError(t, err)
		assert.True(t, cfg.Tracing.Enabled)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.json")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid json"), 0644))

		_, err := NewLoader(configPath).Load()

		assert.Error(t, err)
	})
}

func TestLoaderSave(t *testing.T) {
	t.Run("save config to file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")

		cfg := DefaultConfig()
		cfg.Storage.ProjectRoot = "/srv/project"
		cfg.History.MaxEntries = 50
		cfg.Metrics.Addr = ":9090"

		require.NoError(t, NewLoader(configPath).Save(cfg))

		_, err := os.Stat(configPath)
		assert.NoError(t, err)

		loaded, err := NewLoader(configPath).Load()
		require.NoError(t, err)
		assert.Equal(t, "/srv/project", loaded.Storage.ProjectRoot)
		assert.Equal(t, 50, loaded.History.MaxEntries)
		assert.Equal(t, ":9090", loaded.Metrics.Addr)
		assert.Equal(t, cfg.Storage.Layout(), loaded.Storage.Layout())
	})

	t.Run("create directory if not exists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "subdir", "config.json")

		require.NoError(t, NewLoader(configPath).Save(DefaultConfig()))

		_, err := os.Stat(filepath.Dir(configPath))
		assert.NoError(t, err)
	})
}

func TestLoaderGetConfigPath(t *testing.T) {
	t.Run("custom path", func(t *testing.T) {
		loader := NewLoader("/custom/path/config.json")
		assert.Equal(t, "/custom/path/config.json", loader.GetConfigPath())
	})

	t.Run("default path", func(t *testing.T) {
		path := NewLoader("").GetConfigPath()
		assert.NotEmpty(t, path)
		assert.Contains(t, path, ".acpkeep")
		assert.Equal(t, "acpkeep.json", filepath.Base(path))
	})
}
