package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bizcheck/internal/engine/batch"
)

// isolateHome points the config directory at a temp dir and clears overrides.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	for _, env := range []string{
		EnvAPIKey, EnvSecretKey, EnvBaseURL, EnvRequestInterval,
		EnvMaxConcurrent, EnvBatchSize, EnvLogLevel,
		"BIZCHECK_CACHE_TTL_SECONDS", "BIZCHECK_CACHE_ENABLED", "BIZCHECK_CACHE_DIR",
	} {
		t.Setenv(env, "")
	}
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)
	return home
}

func TestDefault(t *testing.T) {
	home := isolateHome(t)
	cfg := Default()

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 1000, cfg.Batch.RequestIntervalMS)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 10, cfg.Batch.BatchSize)
	assert.Equal(t, filepath.Join(home, "config.yaml"), cfg.Path())
	assert.Equal(t, filepath.Join(home, "cache"), cfg.Cache.Directory)
	assert.False(t, cfg.HasCredentials())
	require.NoError(t, cfg.Validate())
}

func TestSaveAndLoad(t *testing.T) {
	isolateHome(t)
	cfg := Default()
	cfg.API.APIKey = "ak"
	cfg.API.SecretKey = "sk"
	cfg.Batch.BatchSize = 25
	cfg.Export.Formats = []string{"markdown", "csv"}
	require.NoError(t, cfg.Save())

	info, err := os.Stat(cfg.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(cfg.Path())
	require.NoError(t, err)
	assert.True(t, loaded.HasCredentials())
	assert.Equal(t, 25, loaded.Batch.BatchSize)
	assert.Equal(t, []string{"markdown", "csv"}, loaded.Export.Formats)

	fromNew := New()
	assert.Equal(t, 25, fromNew.Batch.BatchSize)
}

func TestLoad_Errors(t *testing.T) {
	isolateHome(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("batch: [unterminated"), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv(EnvAPIKey, "env-ak")
	t.Setenv(EnvSecretKey, "env-sk")
	t.Setenv(EnvMaxConcurrent, "8")
	t.Setenv(EnvRequestInterval, "250")
	t.Setenv(EnvBatchSize, "not-a-number")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv("BIZCHECK_CACHE_ENABLED", "false")

	cfg := New()
	assert.Equal(t, "env-ak", cfg.API.APIKey)
	assert.Equal(t, "env-sk", cfg.API.SecretKey)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 250, cfg.Batch.RequestIntervalMS)
	assert.Equal(t, 10, cfg.Batch.BatchSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Cache.Enabled)
}

func TestValidate(t *testing.T) {
	isolateHome(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"output format", func(c *Config) { c.Output.DefaultFormat = "yaml" }},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without address", func(c *Config) { c.Cache.Backend = "redis" }},
		{"ttl", func(c *Config) { c.Cache.TTLSeconds = 5 }},
		{"export format", func(c *Config) { c.Export.Formats = []string{"xlsx"} }},
		{"batch size", func(c *Config) { c.Batch.BatchSize = 0 }},
		{"negative rps", func(c *Config) { c.API.RequestsPerSecond = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

// TestBatchProcessorConfig verifies invalid batch values fall back to defaults.
func TestBatchProcessorConfig(t *testing.T) {
	isolateHome(t)
	cfg := Default()
	cfg.Batch.RequestIntervalMS = 500
	cfg.Batch.MaxConcurrent = -2
	cfg.Batch.BatchSize = 0
	cfg.Batch.ItemTimeoutSeconds = 15

	bc := cfg.BatchProcessorConfig(context.Background())

	assert.Equal(t, 500*time.Millisecond, bc.RequestInterval)
	assert.Equal(t, batch.DefaultMaxConcurrent, bc.MaxConcurrent)
	assert.Equal(t, batch.DefaultBatchSize, bc.BatchSize)
	assert.Equal(t, 15*time.Second, bc.ItemTimeout)
	assert.NoError(t, bc.Validate())
}

func TestCacheOptions(t *testing.T) {
	isolateHome(t)
	cfg := Default()
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = "localhost:6379"

	opts := cfg.CacheOptions()
	assert.Equal(t, "redis", opts.Backend)
	assert.Equal(t, "localhost:6379", opts.RedisAddr)
	assert.True(t, opts.Enabled)
}

func TestGlobalConfig(t *testing.T) {
	isolateHome(t)

	cfg := GetGlobalConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, OutputFormatTable, cfg.Output.DefaultFormat)
	assert.Same(t, cfg, GetGlobalConfig())

	replacement := Default()
	replacement.Logging.Level = "warn"
	SetGlobalConfig(replacement)
	assert.Equal(t, "warn", GetLoggingConfig().Level)

	ResetGlobalConfigForTest()
	assert.NotSame(t, replacement, GetGlobalConfig())
}

func TestEnsureSubDirs(t *testing.T) {
	home := isolateHome(t)

	require.NoError(t, EnsureSubDirs())
	for _, sub := range []string{"cache", "exports", "logs"} {
		info, err := os.Stat(filepath.Join(home, sub))
		require.NoError(t, err, sub)
		assert.True(t, info.IsDir())
	}
}

func TestToLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json"}
	assert.Equal(t, "stderr", lc.ToLoggingConfig().Output)

	lc.File = "/var/log/bizcheck.log"
	out := lc.ToLoggingConfig()
	assert.Equal(t, "file", out.Output)
	assert.Equal(t, "/var/log/bizcheck.log", out.File)
	assert.Equal(t, "debug", out.Level)
}

func TestStored_IgnoresEnv(t *testing.T) {
	isolateHome(t)

	cfg, err := Stored()
	require.NoError(t, err)
	assert.False(t, cfg.HasCredentials())

	cfg.Batch.BatchSize = 7
	require.NoError(t, cfg.Save())

	t.Setenv(EnvAPIKey, "env-ak")
	t.Setenv(EnvBatchSize, "3")

	stored, err := Stored()
	require.NoError(t, err)
	assert.Empty(t, stored.API.APIKey)
	assert.Equal(t, 7, stored.Batch.BatchSize)

	assert.Equal(t, 3, New().Batch.BatchSize)
}
