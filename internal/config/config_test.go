package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viridien/triage/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Generator.Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.Generator.Model)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 80.0, cfg.Retrieval.FraudThreshold)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "data/orders.yaml", cfg.Data.OrdersFile)
}

func TestLoad_TOMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triage.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9090"

[redis]
enabled = true
addr = "redis:6379"

[retrieval]
top_k = 5
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triage.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\naddr = \":9090\"\n"), 0o644))

	t.Setenv("TRIAGE_SERVER_ADDR", ":7070")
	t.Setenv("TRIAGE_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("generator without api key", func(t *testing.T) {
		t.Setenv("TRIAGE_GENERATOR_ENABLED", "true")
		_, err := config.Load("")
		assert.ErrorContains(t, err, "generator.api_key")
	})

	t.Run("generator with api key", func(t *testing.T) {
		t.Setenv("TRIAGE_GENERATOR_ENABLED", "true")
		t.Setenv("TRIAGE_GENERATOR_API_KEY", "sk-test")
		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, "sk-test", cfg.Generator.APIKey)
	})

	t.Run("non-positive top_k", func(t *testing.T) {
		t.Setenv("TRIAGE_RETRIEVAL_TOP_K", "0")
		_, err := config.Load("")
		assert.ErrorContains(t, err, "top_k")
	})

	t.Run("encryption key of wrong length", func(t *testing.T) {
		t.Setenv("TRIAGE_SECURITY_ENCRYPTION_KEY", "too-short")
		_, err := config.Load("")
		assert.ErrorContains(t, err, "security.encryption_key")
	})

	t.Run("32-byte encryption key", func(t *testing.T) {
		t.Setenv("TRIAGE_SECURITY_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Len(t, cfg.Security.EncryptionKey, 32)
	})
}

func TestLoad_SecurityMaskPatterns(t *testing.T) {
	t.Run("valid patterns from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "triage.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[security]
mask_patterns = ['\b\d{16}\b', '\b\d{3}-\d{2}-\d{4}\b']
`), 0o644))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Len(t, cfg.Security.MaskPatterns, 2)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "triage.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[security]
mask_patterns = ['[unclosed']
`), 0o644))

		_, err := config.Load(path)
		assert.ErrorContains(t, err, "mask_patterns")
	})
}
