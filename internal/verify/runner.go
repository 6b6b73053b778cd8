package verify

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fieldops/techrank/internal/adapters/repository"
	"github.com/fieldops/techrank/internal/domain/filter"
	"github.com/fieldops/techrank/internal/domain/model"
	"github.com/fieldops/techrank/internal/domain/ranking"
	"github.com/fieldops/techrank/internal/domain/types"
	"github.com/fieldops/techrank/pkg/logger"
)

// Run checks service health, then requests the unfiltered ranking for every
// sort key and order and compares each against store. Disagreements are
// returned in the report; err is reserved for transport and health failures.
func Run(ctx context.Context, cfg Config, store repository.Store) (Report, error) {
	start := time.Now()
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	logger.Get().Info(ctx, "starting ranking verification",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	if err := client.getJSON(ctx, "/api/summary", nil); err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	techs := store.Technicians(ctx)
	jobsFor := func(id string) []model.Job { return store.JobsFor(ctx, id) }

	var (
		mu     sync.Mutex
		report Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, key := range ranking.SortKeys() {
		for _, order := range []ranking.Order{ranking.Desc, ranking.Asc} {
			g.Go(func() error {
				q := url.Values{"sortBy": {key.String()}, "order": {string(order)}}
				var got types.Ranking
				if err := client.getJSON(gctx, "/api/rankings?"+q.Encode(), &got); err != nil {
					return err
				}
				want := ranking.Rank(techs, jobsFor, filter.JobFilter{}, key, order)
				diff := compare(want, got, key.String(), string(order))

				mu.Lock()
				defer mu.Unlock()
				report.Checked++
				report.Rows += len(got.Technicians)
				report.Mismatches = append(report.Mismatches, diff...)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("ranking retrieval failed: %w", err)
	}

	sort.SliceStable(report.Mismatches, func(i, j int) bool {
		a, b := report.Mismatches[i], report.Mismatches[j]
		if a.SortBy != b.SortBy {
			return a.SortBy < b.SortBy
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Position < b.Position
	})
	report.Duration = time.Since(start)

	logger.Get().Info(ctx, "ranking verification completed",
		logger.Int("checked", report.Checked),
		logger.Int("rows", report.Rows),
		logger.Int("mismatches", len(report.Mismatches)),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

// compare checks the total, then row order and dense ranks. Position 0
// marks a total mismatch.
func compare(want, got types.Ranking, sortBy, order string) []Mismatch {
	var out []Mismatch
	if want.Meta.Total != got.Meta.Total || len(want.Technicians) != len(got.Technicians) {
		out = append(out, Mismatch{
			SortBy: sortBy, Order: order,
			Want: fmt.Sprintf("total %d", want.Meta.Total),
			Got:  fmt.Sprintf("total %d", got.Meta.Total),
		})
		return out
	}
	for i := range want.Technicians {
		w, g := want.Technicians[i], got.Technicians[i]
		if w.NetworkID != g.NetworkID || g.Rank != i+1 {
			out = append(out, Mismatch{
				SortBy: sortBy, Order: order, Position: i + 1,
				Want: fmt.Sprintf("%s#%d", w.NetworkID, i+1),
				Got:  fmt.Sprintf("%s#%d", g.NetworkID, g.Rank),
			})
		}
	}
	return out
}
