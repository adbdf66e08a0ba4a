package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/bizcheck/internal/config"
	"github.com/rshade/bizcheck/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// ExitError carries a process exit code for failures that are not errors of
// the command itself, e.g. --fail-on-error with failed rows.
type ExitError struct {
	Code   int
	Reason string
}

func (e *ExitError) Error() string {
	return e.Reason
}

// ErrNoInput is returned when a lookup command receives nothing to process.
var ErrNoInput = errors.New("no input: pass values as arguments or use --file")

// NewRootCmd creates the root Cobra command for the bizcheck CLI.
// It wires up configuration, logging and tracing, and the query, verify,
// config and cache subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "bizcheck",
		Short:         "Business registration lookup and verification",
		Long:          "bizcheck: Look up and verify business registrations in paced, retried batches",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging to stderr")
	cmd.PersistentFlags().String("log-file", "", "write logs to this file instead of the configured destination")
	cmd.PersistentFlags().String("config", "", "YAML file whose sections override the configuration file")
	cmd.AddCommand(NewQueryCmd(), NewVerifyCmd(), newConfigCmd(), newCacheCmd())

	return cmd
}

// loadConfig installs the global configuration, applying the --config overlay.
func loadConfig(cmd *cobra.Command) error {
	cfg := config.New()

	overlay, _ := cmd.Flags().GetString("config")
	if overlay != "" {
		if err := config.ShallowMergeYAML(cfg, overlay); err != nil {
			return fmt.Errorf("loading --config: %w", err)
		}
	}

	config.SetGlobalConfig(cfg)
	return nil
}

const rootCmdExample = `  # Look up companies by name
  bizcheck query "阿里巴巴" "腾讯"

  # Look up a list pasted as one argument, split on the default separators
  bizcheck query "阿里巴巴，腾讯、百度"

  # Look up names from a file and export a Markdown and CSV report
  bizcheck query --file companies.txt --export markdown,csv

  # Verify company / registration number pairs
  bizcheck verify --company "甲公司,乙公司" --regnum "911...,912..."

  # Verify pairs from a CSV file and copy the results to the clipboard
  bizcheck verify --file companies.csv --copy

  # Initialize configuration
  bizcheck config init

  # Set configuration values
  bizcheck config set batch.max_concurrent 5`

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(
		NewConfigInitCmd(), NewConfigSetCmd(), NewConfigGetCmd(),
		NewConfigListCmd(), NewConfigValidateCmd(),
	)
	return cmd
}

// newCacheCmd creates the cache command group.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Result cache commands"}
	cmd.AddCommand(NewCacheClearCmd(), NewCacheStatsCmd())
	return cmd
}
