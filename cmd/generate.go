package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldops/techrank/internal/adapters/repository"
	"github.com/fieldops/techrank/internal/datagen"
	"github.com/fieldops/techrank/internal/domain/model"
	"github.com/fieldops/techrank/pkg/logger"
)

type generateFlags struct {
	technicians int
	days        int
	seed        uint64
	start       string
	inactive    float64
	out         string
	outFormat   string
}

func newGenerateCmd(c *cli) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic, reproducible dataset",
		Long: `Generates technicians and their job history from a seed. The output
format follows --out-format, or the file extension (.db, .sqlite) when unset.`,
		Example: `  techrank generate --technicians 200 --days 120 --seed 7 --out data/technicians.json
  techrank generate --out data/technicians.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			start, err := time.Parse(model.DateLayout, f.start)
			if err != nil {
				return fmt.Errorf("invalid --start %q: %w", f.start, err)
			}
			ds, err := datagen.Generate(ctx, datagen.NewConfig(
				datagen.WithTechnicians(f.technicians),
				datagen.WithDays(f.days),
				datagen.WithSeed(f.seed),
				datagen.WithStart(start),
				datagen.WithInactiveShare(f.inactive),
			))
			if err != nil {
				return err
			}

			if f.out == "" || f.out == "-" {
				return repository.WriteJSON(cmd.OutOrStdout(), ds)
			}
			if dir := filepath.Dir(f.out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", dir, err)
				}
			}

			format := outputFormat(f.outFormat, f.out)
			switch format {
			case repository.FormatSQLite:
				if err := os.Remove(f.out); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("replace %s: %w", f.out, err)
				}
				err = repository.WriteSQLite(ctx, f.out, ds)
			case repository.FormatJSON:
				err = writeJSONFile(f.out, ds)
			default:
				return fmt.Errorf("%w: %q", repository.ErrUnknownFormat, format)
			}
			if err != nil {
				return err
			}

			c.logger.Info(ctx, "dataset written",
				logger.String("path", f.out),
				logger.String("format", format),
				logger.Int("technicians", len(ds.Technicians)),
				logger.Int("jobs", len(ds.Jobs)),
			)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&f.technicians, "technicians", 50, "number of technicians")
	fl.IntVar(&f.days, "days", 90, "days of job history")
	fl.Uint64Var(&f.seed, "seed", 42, "PRNG seed")
	fl.StringVar(&f.start, "start", "2024-01-01", "first day of the history")
	fl.Float64Var(&f.inactive, "inactive", 0.05, "share of technicians without jobs")
	fl.StringVar(&f.out, "out", "-", "output path, - for stdout")
	fl.StringVar(&f.outFormat, "out-format", "", "json or sqlite")
	return cmd
}

func outputFormat(explicit, path string) string {
	if explicit != "" {
		return strings.ToLower(explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return repository.FormatSQLite
	default:
		return repository.FormatJSON
	}
}

func writeJSONFile(path string, ds model.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := repository.WriteJSON(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
