package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultConfigName))
	require.NoError(t, err)

	assert.Equal(t, []string{"ts", "tsx", "typescript"}, cfg.Tags)
	assert.True(t, cfg.JSX)
	assert.Equal(t, "mutate", cfg.Mode)
	assert.True(t, cfg.Cache.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigName)
	data := `tags: [ts, tsx]
mode: emit
jsx: false
cache:
  enabled: false
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ts", "tsx"}, cfg.Tags)
	assert.Equal(t, "emit", cfg.Mode)
	assert.False(t, cfg.JSX)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, []string{".md", ".mdx"}, cfg.Include)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DETYPE_TAGS", "typescript, ts")
	t.Setenv("DETYPE_MODE", "emit")
	t.Setenv("DETYPE_JSX", "false")
	t.Setenv("DETYPE_CACHE", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), DefaultConfigName))
	require.NoError(t, err)

	assert.Equal(t, []string{"typescript", "ts"}, cfg.Tags)
	assert.Equal(t, "emit", cfg.Mode)
	assert.False(t, cfg.JSX)
	assert.False(t, cfg.Cache.Enabled)
}

func TestValidate(t *testing.T) {
	t.Run("Empty Tags", func(t *testing.T) {
		cfg := Default()
		cfg.Tags = nil
		assert.Error(t, cfg.Validate())
	})

	t.Run("Unknown Mode", func(t *testing.T) {
		cfg := Default()
		cfg.Mode = "overwrite"
		assert.Error(t, cfg.Validate())
	})

	t.Run("Empty Include", func(t *testing.T) {
		cfg := Default()
		cfg.Include = nil
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigName)
	require.NoError(t, os.WriteFile(path, []byte("tags: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
