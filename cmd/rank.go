package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldops/techrank/internal/adapters/repository"
	app "github.com/fieldops/techrank/internal/app"
	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/ranking"
	"github.com/fieldops/techrank/internal/domain/types"
)

type rankFlags struct {
	sortBy   string
	order    string
	tech     filter.TechnicianFilter
	jobs     filter.JobFilter
	limit    int
	showMeta bool
}

func newRankCmd(c *cli) *cobra.Command {
	var f rankFlags
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print a technician ranking from the configured dataset",
		Example: `  # Top ten by first-time fix rate in one region
  techrank rank --sort-by firstTimeFixRate --region North --limit 10

  # Fastest technicians on repairs during January
  techrank rank --sort-by avgCompletionTimeMinutes --job-type Repair \
    --date-from 2024-01-01 --date-to 2024-01-31`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := ranking.ParseQuery(f.tech, f.jobs, f.sortBy, f.order)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := repository.Load(ctx, c.cfg.DataPath, c.cfg.DataFormat,
				repository.WithLogger(c.logger),
				repository.WithDropOrphans(c.cfg.DropOrphans),
			)
			if err != nil {
				return err
			}
			svc := app.New(app.WithStore(store), app.WithLogger(c.logger))
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			return printRanking(cmd.OutOrStdout(), svc.Rankings(ctx, q), q.SortBy, f.limit, f.showMeta)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.sortBy, "sort-by", ranking.DefaultSortKey.String(), "metric to rank by")
	fl.StringVar(&f.order, "order", string(ranking.Desc), "asc or desc")
	fl.StringVar(&f.tech.Region, "region", "", "technician region")
	fl.StringVar(&f.tech.Role, "role", "", "technician role")
	fl.StringVar(&f.tech.Nom, "nom", "", "network operations manager")
	fl.StringVar(&f.tech.Rom, "rom", "", "regional operations manager")
	fl.StringVar(&f.jobs.JobType, "job-type", "", "recompute metrics from jobs of this type")
	fl.StringVar(&f.jobs.DateFrom, "date-from", "", "recompute metrics from jobs on or after this day")
	fl.StringVar(&f.jobs.DateTo, "date-to", "", "recompute metrics from jobs on or before this day")
	fl.IntVar(&f.limit, "limit", 0, "print at most this many rows (0 prints all)")
	fl.BoolVar(&f.showMeta, "meta", false, "print total and thresholds after the table")
	return cmd
}

func printRanking(out io.Writer, r types.Ranking, key ranking.SortKey, limit int, showMeta bool) error {
	rows := r.Technicians
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tNETWORK ID\tNAME\tREGION\t%s\tJOBS\tTIER\n", key.String())
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%g\t%d\t%s\n",
			row.Rank, row.NetworkID, row.Name, row.Region, key.Value(row.Technician),
			row.TotalJobsCompleted, row.PerformanceTier)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if showMeta {
		_, err := fmt.Fprintf(out, "\ntotal=%d sortBy=%s order=%s top10=%g bottom10=%g\n",
			r.Meta.Total, r.Meta.SortBy, r.Meta.Order, r.Meta.Thresholds.Top10, r.Meta.Thresholds.Bottom10)
		return err
	}
	return nil
}
