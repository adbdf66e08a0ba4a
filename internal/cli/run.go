package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/rshade/bizcheck/internal/bizapi"
	"github.com/rshade/bizcheck/internal/config"
	"github.com/rshade/bizcheck/internal/engine/batch"
	"github.com/rshade/bizcheck/internal/engine/cache"
	"github.com/rshade/bizcheck/internal/export"
	"github.com/rshade/bizcheck/internal/logging"
	"github.com/rshade/bizcheck/internal/metrics"
	"github.com/rshade/bizcheck/internal/tui"
)

// exitCodeFailedRows is returned with --fail-on-error when any row failed.
const exitCodeFailedRows = 2

// copyToClipboard is replaced in tests; headless CI has no clipboard.
var copyToClipboard = clipboard.WriteAll //nolint:gochecknoglobals // Test seam.

// runFlags are the flags shared by query and verify.
type runFlags struct {
	file          string
	separator     string
	format        string
	copy          bool
	export        bool
	exportFormats []string
	exportDir     string
	includeRaw    bool
	metricsFile   string
	noProgress    bool
	failOnError   bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "read input from a .txt or .csv file")
	flags.StringVarP(&f.separator, "separator", "s", "",
		"whitespace-separated list of separators (default: , ， newline 、 | / \\ ; ； #)")
	flags.StringVarP(&f.format, "output", "o", "", "output format: table, json, text (default from config)")
	flags.BoolVar(&f.copy, "copy", false, "copy the results to the clipboard as text")
	flags.BoolVar(&f.export, "export", false, "write report files using export settings from the configuration")
	flags.StringSliceVar(&f.exportFormats, "export-format", nil, "report formats: markdown, json, csv (implies --export)")
	flags.StringVar(&f.exportDir, "export-dir", "", "report directory (implies --export)")
	flags.BoolVar(&f.includeRaw, "include-raw", false, "include raw API responses in reports")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path after the run")
	flags.BoolVar(&f.noProgress, "no-progress", false, "disable the interactive progress bar")
	flags.BoolVar(&f.failOnError, "fail-on-error", false, "exit with code 2 when any item failed")
}

// outputFormat resolves --output against the configured default.
func (f *runFlags) outputFormat(cfg *config.Config) (string, error) {
	format := f.format
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	switch format {
	case config.OutputFormatTable, config.OutputFormatJSON, config.OutputFormatText:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// exportOptions returns the report settings, or false when nothing should be
// exported.
func (f *runFlags) exportOptions(cfg *config.Config) (export.Options, bool, error) {
	if !f.export && len(f.exportFormats) == 0 && f.exportDir == "" {
		return export.Options{}, false, nil
	}

	names := cfg.Export.Formats
	if len(f.exportFormats) > 0 {
		names = f.exportFormats
	}
	formats, err := export.ParseFormats(names)
	if err != nil {
		return export.Options{}, false, err
	}
	if len(formats) == 0 {
		formats = []export.Format{export.FormatMarkdown}
	}

	dir := cfg.Export.Directory
	if f.exportDir != "" {
		dir = f.exportDir
	}

	return export.Options{
		Formats:        formats,
		Directory:      dir,
		IncludeRawData: f.includeRaw || cfg.Export.IncludeRawData,
	}, true, nil
}

// lookupService is the part of bizapi.Service the commands use.
type lookupService interface {
	Query(ctx context.Context, name string) (*bizapi.BusinessLicense, error)
	Verify(ctx context.Context, company, regnum string) (*bizapi.Verification, error)
}

// newLookupService builds the API client and result cache from the
// configuration. The returned func releases the cache.
func newLookupService(ctx context.Context, cfg *config.Config) (lookupService, func(), error) {
	if !cfg.HasCredentials() {
		return nil, nil, fmt.Errorf("%w: run 'bizcheck config set api.api_key ...' or set %s and %s",
			bizapi.ErrMissingCredentials, config.EnvAPIKey, config.EnvSecretKey)
	}

	log := logging.FromContext(ctx)

	var store cache.Store
	opened, err := cache.Open(ctx, cfg.CacheOptions())
	if err != nil {
		log.Warn().Ctx(ctx).Err(err).Msg("result cache unavailable, continuing without it")
	} else {
		store = opened
	}

	client, err := bizapi.NewClient(bizapi.Options{
		BaseURL:           cfg.API.BaseURL,
		TokenURL:          cfg.API.TokenURL,
		APIKey:            cfg.API.APIKey,
		SecretKey:         cfg.API.SecretKey,
		Timeout:           time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		TokenStore:        store,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, fmt.Errorf("creating API client: %w", err)
	}

	cleanup := func() {
		if store != nil {
			if err := store.Close(); err != nil {
				log.Debug().Ctx(ctx).Err(err).Msg("closing cache")
			}
		}
	}
	return bizapi.NewService(client, store), cleanup, nil
}

// foldable reports whether a worker error belongs in the result row rather
// than failing the item. Cancellation, throttling, server errors and token
// failures are returned to the processor so they are retried.
func foldable(ctx context.Context, err error) bool {
	return ctx.Err() == nil && !bizapi.IsTransient(err) && !errors.Is(err, bizapi.ErrTokenRequest)
}

// runOutcome is a finished batch run.
type runOutcome[R any] struct {
	rows    []R
	stats   batch.Stats
	elapsed time.Duration
}

// executeBatch runs worker over items with the configured processor, showing
// a progress bar on interactive terminals.
func executeBatch[T, R any](
	cmd *cobra.Command,
	f *runFlags,
	collector *metrics.Collector,
	title string,
	items []T,
	worker batch.Worker[T, R],
) (runOutcome[R], error) {
	ctx := cmd.Context()
	cfg := config.GetGlobalConfig()
	procCfg := cfg.BatchProcessorConfig(ctx)
	log := logging.FromContext(ctx)

	var out runOutcome[R]
	run := func(ctx context.Context, observe func(batch.ProgressSnapshot)) error {
		opts := []batch.Option{batch.WithHooks(collector)}
		if observe != nil {
			opts = append(opts, batch.WithObserver(observe))
		}
		proc, err := batch.NewProcessor[T, R](procCfg, opts...)
		if err != nil {
			return err
		}

		rows, err := proc.ProcessBatch(ctx, items, worker, func(percent float64) {
			log.Debug().Ctx(ctx).Float64("percent", percent).Msg("progress")
		})
		out.rows = rows
		out.stats = proc.Stats()
		return err
	}

	start := time.Now()
	var err error
	if f.showProgress(cfg) {
		err = tui.RunWithProgress(ctx, title, len(items), os.Stdin, cmd.ErrOrStderr(), run)
	} else {
		err = run(ctx, nil)
	}
	out.elapsed = time.Since(start)

	log.Info().
		Ctx(ctx).
		Int("items", len(items)).
		Int64("attempts", out.stats.Attempts).
		Int64("retries", out.stats.Retries).
		Dur("elapsed", out.elapsed).
		Err(err).
		Msg("batch run finished")

	return out, err
}

func (f *runFlags) showProgress(cfg *config.Config) bool {
	return !f.noProgress && cfg.Output.Progress && isTerminal(os.Stdin) && isTerminal(os.Stderr)
}

// emit prints rows in the chosen format.
func emit(w io.Writer, format string, rows any, table, text func() string) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(rows)
	case config.OutputFormatText:
		_, err := fmt.Fprintln(w, text())
		return err
	default:
		_, err := fmt.Fprintln(w, table())
		return err
	}
}

// finish handles clipboard, metrics and the exit status shared by both
// commands.
func finish(cmd *cobra.Command, f *runFlags, collector *metrics.Collector, text string, failed int) error {
	ctx := cmd.Context()

	if f.copy {
		if err := copyToClipboard(text); err != nil {
			cmd.PrintErrf("Warning: could not copy to clipboard: %v\n", err)
		} else {
			cmd.PrintErrln("Results copied to clipboard")
		}
	}

	if err := writeMetrics(ctx, f, collector); err != nil {
		return err
	}

	if failed > 0 && f.failOnError {
		return &ExitError{Code: exitCodeFailedRows, Reason: fmt.Sprintf("%d item(s) failed", failed)}
	}
	return nil
}

func writeMetrics(ctx context.Context, f *runFlags, collector *metrics.Collector) error {
	if f.metricsFile == "" {
		return nil
	}
	if err := collector.WriteTextfile(f.metricsFile); err != nil {
		return err
	}
	logging.FromContext(ctx).Debug().Ctx(ctx).Str("path", f.metricsFile).Msg("metrics written")
	return nil
}
