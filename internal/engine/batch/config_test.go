package batch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.Second, cfg.RequestInterval)
	assert.Equal(t, 5, cfg.MaxConcurrent)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.InitialRetryDelay)
	assert.Zero(t, cfg.ItemTimeout)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, "BatchSize"},
		{"negative batch size", func(c *Config) { c.BatchSize = -3 }, "BatchSize"},
		{"zero concurrency", func(c *Config) { c.MaxConcurrent = 0 }, "MaxConcurrent"},
		{"negative interval", func(c *Config) { c.RequestInterval = -time.Millisecond }, "RequestInterval"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "MaxRetries"},
		{"zero retry delay", func(c *Config) { c.InitialRetryDelay = 0 }, "InitialRetryDelay"},
		{"negative item timeout", func(c *Config) { c.ItemTimeout = -time.Second }, "ItemTimeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	t.Run("zero interval and retries are valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RequestInterval = 0
		cfg.MaxRetries = 0
		assert.NoError(t, cfg.Validate())
	})
}

// TestConfig_Sanitize verifies invalid fields fall back to defaults and valid ones survive.
func TestConfig_Sanitize(t *testing.T) {
	cfg := Config{
		RequestInterval:   250 * time.Millisecond,
		MaxConcurrent:     0,
		BatchSize:         -1,
		MaxRetries:        2,
		InitialRetryDelay: 0,
	}

	out, replaced := cfg.Sanitize()

	assert.Equal(t, 250*time.Millisecond, out.RequestInterval)
	assert.Equal(t, DefaultMaxConcurrent, out.MaxConcurrent)
	assert.Equal(t, DefaultBatchSize, out.BatchSize)
	assert.Equal(t, 2, out.MaxRetries)
	assert.Equal(t, DefaultInitialRetryDelay, out.InitialRetryDelay)
	assert.ElementsMatch(t, []string{"MaxConcurrent", "BatchSize", "InitialRetryDelay"}, replaced)
	assert.NoError(t, out.Validate())

	_, none := DefaultConfig().Sanitize()
	assert.Empty(t, none)
}
