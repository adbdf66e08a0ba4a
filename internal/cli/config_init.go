package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/bizcheck/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates ~/.bizcheck/config.yaml (or $BIZCHECK_HOME/config.yaml) with default
values, plus the cache, export and log directories.

Environment overrides are not written to the file.`,
		Example: `  # Create configuration
  bizcheck config init

  # Create configuration, overwriting existing
  bizcheck config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")

	return cmd
}

func initConfig(cmd *cobra.Command, force bool) error {
	cfg := config.Default()

	// Check if config already exists and force isn't set
	if !force {
		if _, err := os.Stat(cfg.Path()); err == nil {
			return errors.New("configuration file already exists, use --force to overwrite")
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("cannot access config path %s: %w", cfg.Path(), err)
		}
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	config.SetGlobalConfig(cfg)
	if err := config.EnsureSubDirs(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", cfg.Path())
	if !cfg.HasCredentials() {
		cmd.Printf("Next: bizcheck config set api.api_key <key> && bizcheck config set api.secret_key <secret>\n")
	}

	return nil
}
