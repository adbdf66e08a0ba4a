package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/bizcheck/internal/config"
	"github.com/rshade/bizcheck/internal/engine/cache"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration (file, environment and --config overlay).

This includes:
- API endpoints and credentials
- Batch pacing, concurrency and retry settings
- Cache backend and TTL
- Export formats`,
		Example: `  # Validate current configuration
  bizcheck config validate

  # Validate and show detailed information
  bizcheck config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("Configuration is valid\n")
	if !cfg.HasCredentials() {
		cmd.Printf("Warning: API credentials are not set; query and verify will fail\n")
	}

	if verbose {
		printVerboseDetails(cmd, cfg)
	}

	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Config file: %s\n", cfg.Path())
	cmd.Printf("  API base URL: %s\n", cfg.API.BaseURL)
	cmd.Printf("  API pacing: %.2f req/s (burst %d)\n", cfg.API.RequestsPerSecond, cfg.API.Burst)
	cmd.Printf("  Batch: size %d, %d concurrent, %dms between batches, %d retries\n",
		cfg.Batch.BatchSize, cfg.Batch.MaxConcurrent, cfg.Batch.RequestIntervalMS, cfg.Batch.MaxRetries)
	if cfg.Cache.Enabled {
		cmd.Printf("  Cache: %s, TTL %s\n", cfg.Cache.Backend, cache.FormatDuration(time.Duration(cfg.Cache.TTLSeconds)*time.Second))
	} else {
		cmd.Println("  Cache: disabled")
	}
	cmd.Printf("  Export: %v to %s\n", cfg.Export.Formats, cfg.Export.Directory)
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)
}
