package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/bizcheck/internal/config"
)

// NewConfigGetCmd creates the config get command.
func NewConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a configuration value",
		Long:  "Prints the effective value of a dotted key such as batch.max_concurrent, including environment overrides.",
		Example: `  # Show the batch size
  bizcheck config get batch.batch_size

  # Show a whole section
  bizcheck config get api`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := config.GetGlobalConfig().Get(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
}

// NewConfigSetCmd creates the config set command.
func NewConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Example: `  # Lower concurrency
  bizcheck config set batch.max_concurrent 2

  # Use the Redis cache backend
  bizcheck config set cache.backend redis`,
		Args: cobra.ExactArgs(2), //nolint:mnd // key and value.
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Stored()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("refusing to save: %w", err)
			}
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			cmd.Printf("Set %s\n", args[0])
			return nil
		},
	}
}

// NewConfigListCmd creates the config list command.
func NewConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long:  "Lists every effective configuration value. Secrets are masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := config.GetGlobalConfig().List()
			if err != nil {
				return err
			}
			for _, kv := range entries {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", kv[0], kv[1]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
