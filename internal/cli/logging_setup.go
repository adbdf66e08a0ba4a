package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/bizcheck/internal/config"
	"github.com/rshade/bizcheck/internal/logging"
)

// applyLogFlags layers --debug and --log-file over the configured logging
// section. --debug switches to console output on stderr unless --log-file
// names a destination.
func applyLogFlags(cfg config.LoggingConfig, debug bool, logFile string) config.LoggingConfig {
	if debug {
		cfg.Level = "debug"
		cfg.Format = logging.FormatConsole
		cfg.File = ""
	}
	if logFile != "" {
		cfg.File = logFile
	}
	return cfg
}

// setupLogging builds the CLI logger and installs it, with a fresh trace ID,
// in the command context so the batch engine and API client log through it.
func setupLogging(cmd *cobra.Command) logging.LogPathResult {
	debug, _ := cmd.Flags().GetBool("debug")
	logFile, _ := cmd.Flags().GetString("log-file")
	loggingCfg := applyLogFlags(config.GetLoggingConfig(), debug, logFile)

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig())
	logger = logging.ComponentLogger(result.Logger, "cli")

	switch {
	case result.FallbackUsed:
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	case result.UsingFile && (debug || logFile != ""):
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	}

	ctx := logging.ContextWithTraceID(cmd.Context(), logging.GetOrGenerateTraceID(cmd.Context()))
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	overlay, _ := cmd.Flags().GetString("config")
	logger.Info().
		Ctx(ctx).
		Str("command", cmd.CommandPath()).
		Str("config_path", config.GetGlobalConfig().Path()).
		Str("overlay", overlay).
		Str("log_level", loggingCfg.Level).
		Msg("command started")

	return result
}

// cleanupLogging closes the log file handle.
func cleanupLogging(logResult *logging.LogPathResult) error {
	if logResult == nil {
		return nil
	}
	return logResult.Close()
}
