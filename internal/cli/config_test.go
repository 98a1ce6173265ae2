package cli

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/acpkeep/internal/config"
)

func TestConfigInitCommand(t *testing.T) {
	t.Run("writes default config", func(t *testing.T) {
		env := setupTestEnv(t)

		output, err := env.run(t, "config", "init")
		require.NoError(t, err)
		assert.Contains(t, output, env.configPath)

		cfg, err := config.Load(env.configPath)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultConfig().Storage.Layout(), cfg.Storage.Layout())
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		env := setupTestEnv(t)

		_, err := env.run(t, "config", "init")
		require.NoError(t, err)

		_, err = env.run(t, "config", "init")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("force overwrites", func(t *testing.T) {
		env := setupTestEnv(t)

		_, err := env.run(t, "config", "init")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(env.configPath, []byte(`{"history": {"max_entries": 3}}`), 0644))

		_, err = env.run(t, "config", "init", "--force")
		require.NoError(t, err)

		cfg, err := config.Load(env.configPath)
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.History.MaxEntries)
	})
}

func TestConfigShowCommand(t *testing.T) {
	env := setupTestEnv(t)

	output, err := env.run(t, "config", "show")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(output), &cfg))
	assert.Equal(t, env.root, cfg.Storage.ProjectRoot)
	assert.Equal(t, "error", cfg.Logging.Level)
}
