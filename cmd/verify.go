package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldops/techrank/internal/adapters/repository"
	"github.com/fieldops/techrank/internal/verify"
)

func newVerifyCmd(c *cli) *cobra.Command {
	cfg := verify.Config{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a running server's rankings against the local dataset",
		Long: `Requests the unfiltered ranking for every sort key and order from a
running server and compares it row by row with rankings computed locally from
the configured dataset. Exits non-zero on any mismatch.`,
		Example: `  techrank verify --url http://localhost:5000 --data data/technicians.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := repository.Load(ctx, c.cfg.DataPath, c.cfg.DataFormat,
				repository.WithLogger(c.logger),
				repository.WithDropOrphans(c.cfg.DropOrphans),
			)
			if err != nil {
				return err
			}

			report, err := verify.Run(ctx, cfg, store)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			if !report.OK() {
				return fmt.Errorf("%w: %d mismatches", verify.ErrMismatch, len(report.Mismatches))
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&cfg.BaseURL, "url", "http://localhost:5000", "base URL of the running server")
	fl.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "per-request timeout")
	fl.IntVar(&cfg.Workers, "workers", 4, "concurrent ranking requests")
	return cmd
}

func printReport(out io.Writer, r verify.Report) {
	_, _ = fmt.Fprintf(out, "checked %d rankings (%d rows) in %s\n", r.Checked, r.Rows, r.Duration.Round(time.Millisecond))
	for _, m := range r.Mismatches {
		_, _ = fmt.Fprintf(out, "  %s %s position %d: want %s, got %s\n", m.SortBy, m.Order, m.Position, m.Want, m.Got)
	}
	if r.OK() {
		_, _ = fmt.Fprintln(out, "all rankings match")
	}
}
