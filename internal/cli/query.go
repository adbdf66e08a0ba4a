package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/bizcheck/internal/config"
	"github.com/rshade/bizcheck/internal/engine/batch"
	"github.com/rshade/bizcheck/internal/export"
	"github.com/rshade/bizcheck/internal/ingest"
	"github.com/rshade/bizcheck/internal/metrics"
	"github.com/rshade/bizcheck/internal/tui"
)

// Result statuses recorded in metrics.
const (
	statusFound       = "found"
	statusVerified    = "verified"
	statusNotVerified = "not_verified"
	statusError       = "error"
)

// NewQueryCmd creates the query command that looks up business licenses.
func NewQueryCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "query [company...]",
		Short: "Look up the business license of one or more companies",
		Long: `Looks up the registered business license of each company name or
registration number.

Each argument may hold several names separated by any of the default
separators (or those given with --separator). Names can also be read from a
.txt file (one per line) or the company column of a .csv file.`,
		Example: `  # Look up two companies
  bizcheck query "阿里巴巴" "腾讯"

  # Look up names from a file, print JSON
  bizcheck query --file companies.txt --output json

  # Export Markdown and CSV reports
  bizcheck query "阿里巴巴、腾讯" --export-format markdown,csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, &flags, args)
		},
	}
	flags.register(cmd)

	return cmd
}

// collectNames gathers lookup names from arguments and --file.
func collectNames(f *runFlags, args []string) ([]string, error) {
	separators := ingest.ParseSeparators(f.separator)

	var names []string
	for _, arg := range args {
		names = append(names, ingest.Split(arg, separators)...)
	}
	if f.file != "" {
		lines, err := ingest.ReadLines(f.file)
		if err != nil {
			return nil, err
		}
		names = append(names, lines...)
	}
	if len(names) == 0 {
		return nil, ErrNoInput
	}
	return names, nil
}

// queryWorker looks up one name. Per-company failures become error rows.
func queryWorker(svc lookupService) batch.Worker[string, export.QueryRow] {
	return func(ctx context.Context, name string) (export.QueryRow, error) {
		license, err := svc.Query(ctx, name)
		if err != nil {
			if !foldable(ctx, err) {
				return export.QueryRow{}, err
			}
			return export.QueryRow{Query: name, Error: err.Error()}, nil
		}
		return export.QueryRow{Query: name, License: license}, nil
	}
}

func runQuery(cmd *cobra.Command, f *runFlags, args []string) error {
	ctx := cmd.Context()
	cfg := config.GetGlobalConfig()

	format, err := f.outputFormat(cfg)
	if err != nil {
		return err
	}
	exportOpts, doExport, err := f.exportOptions(cfg)
	if err != nil {
		return err
	}
	names, err := collectNames(f, args)
	if err != nil {
		return err
	}

	svc, cleanup, err := newLookupService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	collector := metrics.NewCollector("query")
	outcome, err := executeBatch(cmd, f, collector, "Querying companies", names, queryWorker(svc))
	if err != nil {
		_ = writeMetrics(ctx, f, collector)
		return fmt.Errorf("query failed: %w", err)
	}
	rows := outcome.rows

	failed := 0
	for _, row := range rows {
		status := statusFound
		if row.Failed() {
			status = statusError
			failed++
		}
		collector.RecordResult(status)
	}

	text := export.FormatQueryText(rows)
	if err := emit(cmd.OutOrStdout(), format, rows,
		func() string { return tui.RenderQueryTable(rows) },
		func() string { return text },
	); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	var files []string
	if doExport {
		if files, err = export.WriteQueries(ctx, rows, exportOpts); err != nil {
			return fmt.Errorf("exporting results: %w", err)
		}
	}

	if format == config.OutputFormatTable {
		cmd.Println(tui.RenderSummary(tui.Summary{
			Title:     "QUERY SUMMARY",
			Total:     len(rows),
			Succeeded: len(rows) - failed,
			Failed:    failed,
			Retries:   int(outcome.stats.Retries),
			Elapsed:   outcome.elapsed,
			Files:     files,
		}, 0))
	} else {
		for _, path := range files {
			cmd.PrintErrf("Exported: %s\n", path)
		}
	}

	return finish(cmd, f, collector, text, failed)
}
