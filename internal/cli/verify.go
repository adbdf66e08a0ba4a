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

// NewVerifyCmd creates the verify command that checks company and
// registration number pairs.
func NewVerifyCmd() *cobra.Command {
	var (
		flags     runFlags
		companies string
		regnums   string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify that companies match their registration numbers",
		Long: `Checks each company name against its unified social credit code or
registration number.

Pairs come from --company and --regnum, two lists of equal length split on
the default separators (or those given with --separator), or from a .csv file
with company and registration number columns. Full-width characters in
registration numbers are folded to half-width.`,
		Example: `  # Verify two pairs
  bizcheck verify --company "甲公司,乙公司" --regnum "91110000XXXXXXXX1X,91110000XXXXXXXX2X"

  # Verify pairs from a CSV file with a header row
  bizcheck verify --file companies.csv --export`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := collectRecords(&flags, companies, regnums)
			if err != nil {
				return err
			}
			return runVerify(cmd, &flags, records)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&companies, "company", "", "company names")
	cmd.Flags().StringVar(&regnums, "regnum", "", "registration numbers, in the same order as --company")

	return cmd
}

// collectRecords gathers company/registration-number pairs from flags and
// --file.
func collectRecords(f *runFlags, companies, regnums string) ([]ingest.Record, error) {
	separators := ingest.ParseSeparators(f.separator)

	records, err := ingest.Pair(ingest.Split(companies, separators), ingest.Split(regnums, separators))
	if err != nil {
		return nil, err
	}
	if f.file != "" {
		fromFile, err := ingest.ReadRecords(f.file, ingest.ReadOptions{SkipEmptyRows: true})
		if err != nil {
			return nil, err
		}
		records = append(records, fromFile...)
	}
	if len(records) == 0 {
		return nil, ErrNoInput
	}
	return records, nil
}

// verifyWorker checks one pair. Per-pair failures become error rows.
func verifyWorker(svc lookupService) batch.Worker[ingest.Record, export.VerifyRow] {
	return func(ctx context.Context, rec ingest.Record) (export.VerifyRow, error) {
		row := export.VerifyRow{Company: rec.Company, RegNum: rec.RegNum}

		result, err := svc.Verify(ctx, rec.Company, rec.RegNum)
		if err != nil {
			if !foldable(ctx, err) {
				return export.VerifyRow{}, err
			}
			row.Error = err.Error()
			return row, nil
		}
		row.Result = result
		return row, nil
	}
}

func runVerify(cmd *cobra.Command, f *runFlags, records []ingest.Record) error {
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

	svc, cleanup, err := newLookupService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	collector := metrics.NewCollector("verify")
	outcome, err := executeBatch(cmd, f, collector, "Verifying companies", records, verifyWorker(svc))
	if err != nil {
		_ = writeMetrics(ctx, f, collector)
		return fmt.Errorf("verification failed: %w", err)
	}
	rows := outcome.rows

	failed, verified := 0, 0
	for _, row := range rows {
		switch {
		case row.Failed():
			failed++
			collector.RecordResult(statusError)
		case row.Result.Verified():
			verified++
			collector.RecordResult(statusVerified)
		default:
			collector.RecordResult(statusNotVerified)
		}
	}

	text := export.FormatVerificationText(rows)
	if err := emit(cmd.OutOrStdout(), format, rows,
		func() string { return tui.RenderVerifyTable(rows) },
		func() string { return text },
	); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	var files []string
	if doExport {
		if files, err = export.WriteVerifications(ctx, rows, exportOpts); err != nil {
			return fmt.Errorf("exporting results: %w", err)
		}
	}

	if format == config.OutputFormatTable {
		cmd.Println(tui.RenderSummary(tui.Summary{
			Title:     fmt.Sprintf("VERIFICATION SUMMARY (%d verified)", verified),
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
