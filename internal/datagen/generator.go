package datagen

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fieldops/techrank/internal/domain/aggregate"
	"github.com/fieldops/techrank/internal/domain/model"
	"github.com/fieldops/techrank/pkg/logger"
)

// networkNamespace seeds name-based UUIDs so network IDs are stable for a
// given seed.
var networkNamespace = uuid.MustParse("6f1c2a8e-4b7d-4c1a-9e3f-2d5b8a7c6e10")

// Generate creates cfg.Technicians technicians and their job history.
// Technicians are generated concurrently, each from its own PRNG stream
// keyed by (seed, index), so the output does not depend on scheduling.
func Generate(ctx context.Context, cfg Config) (model.Dataset, error) {
	if cfg.Technicians <= 0 || cfg.Days <= 0 {
		return model.Dataset{}, fmt.Errorf("%w: technicians=%d days=%d", ErrInvalidConfig, cfg.Technicians, cfg.Days)
	}
	logger.Get().Info(ctx, "generating dataset",
		logger.Int("technicians", cfg.Technicians),
		logger.Int("days", cfg.Days),
		logger.Any("seed", cfg.Seed),
	)

	techs := make([]model.Technician, cfg.Technicians)
	jobs := make([][]model.Job, cfg.Technicians)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i := range cfg.Technicians {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			techs[i], jobs[i] = generateTechnician(cfg, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Dataset{}, fmt.Errorf("context cancelled during generation: %w", err)
	}

	ds := model.Dataset{Technicians: techs}
	for _, js := range jobs {
		ds.Jobs = append(ds.Jobs, js...)
	}
	logger.Get().Info(ctx, "dataset generated", logger.Int("jobs", len(ds.Jobs)))
	return ds, nil
}

func generateTechnician(cfg Config, i int) (model.Technician, []model.Job) {
	r := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
	reg := regions[r.IntN(len(regions))]

	t := model.Technician{
		NetworkID:      networkID(cfg.Seed, i),
		Name:           pick(r, firstNames) + " " + pick(r, lastNames),
		Region:         reg.name,
		City:           pick(r, reg.cities),
		Role:           pick(r, roles),
		Nom:            reg.nom,
		Rom:            pick(r, reg.roms),
		Skills:         pickSkills(r),
		ActivationDate: cfg.Start.AddDate(0, 0, -r.IntN(3*365)).Format(model.DateLayout),
	}

	p := drawProfile(r)
	if r.Float64() < cfg.InactiveShare {
		t.TotalTasksAssigned = r.IntN(3)
		return t, nil
	}

	var jobs []model.Job
	for d := range cfg.Days {
		day := cfg.Start.AddDate(0, 0, d)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for range r.IntN(p.perDay + 1) {
			jobs = append(jobs, generateJob(r, p, t, day))
		}
	}

	t.StoredMetrics = storedMetrics(r, p, jobs)
	return t, jobs
}

func generateJob(r *rand.Rand, p profile, t model.Technician, day time.Time) model.Job {
	jt := jobTypes[r.IntN(len(jobTypes))]
	minutes := int(math.Round(float64(jt.baseMinutes) * p.speed * (0.75 + 0.5*r.Float64())))
	revisit := r.Float64() < p.revisitProb
	return model.Job{
		TechnicianID:          t.NetworkID,
		Region:                t.Region,
		JobType:               jt.name,
		Date:                  day.Format(model.DateLayout),
		CompletionTimeMinutes: max(minutes, 10),
		FirstTimeFix:          !revisit && r.Float64() < p.fixProb,
		SLACompliant:          r.Float64() < p.slaProb,
		RevisitRequired:       revisit,
	}
}

// drawProfile mixes performer bands the way a real workforce skews: a few
// elite, most average, some struggling.
func drawProfile(r *rand.Rand) profile {
	var q float64
	switch band := r.Float64(); {
	case band < 0.10:
		q = 0.9 + 0.1*r.Float64()
	case band < 0.35:
		q = 0.65 + 0.25*r.Float64()
	case band < 0.80:
		q = 0.35 + 0.3*r.Float64()
	default:
		q = 0.35 * r.Float64()
	}
	return profile{
		fixProb:     0.55 + 0.4*q,
		slaProb:     0.6 + 0.38*q,
		revisitProb: 0.2 - 0.15*q,
		speed:       1.3 - 0.5*q,
		perDay:      2 + r.IntN(3),
		completion:  0.85 + 0.14*q,
	}
}

// storedMetrics computes the full-history bundle the data file ships.
// Assigned tasks include the ones left incomplete, so completion rate is
// the only metric not derivable from job records.
func storedMetrics(r *rand.Rand, p profile, jobs []model.Job) model.StoredMetrics {
	b := aggregate.JobsOrZero(jobs)
	if b.Count == 0 {
		return model.StoredMetrics{TotalTasksAssigned: r.IntN(3)}
	}
	assigned := b.Count + int(math.Round(float64(b.Count)*(1-p.completion)/p.completion))
	completionRate := aggregate.Round1(float64(b.Count) / float64(assigned) * 100)
	score := performanceScore(b, completionRate)
	return model.StoredMetrics{
		TotalTasksAssigned:       assigned,
		TotalJobsCompleted:       b.Count,
		CompletionRate:           completionRate,
		FirstTimeFixRate:         b.FirstTimeFixRate,
		AvgCompletionTimeMinutes: b.AvgCompletionTimeMinutes,
		JobsPerWeek:              b.JobsPerWeek,
		SLAComplianceRate:        b.SLAComplianceRate,
		RepeatVisitRate:          b.RevisitRate,
		PerformanceScore:         score,
		PerformanceTier:          tier(score),
	}
}

func performanceScore(b aggregate.Bundle, completionRate float64) float64 {
	speed := (slowMinutes - b.AvgCompletionTimeMinutes) / (slowMinutes - fastMinutes) * 100
	speed = math.Min(math.Max(speed, 0), 100)
	return aggregate.Round1(weightFTFR*b.FirstTimeFixRate +
		weightSLA*b.SLAComplianceRate +
		weightCompletion*completionRate +
		weightSpeed*speed)
}

func tier(score float64) string {
	for _, t := range tiers {
		if score >= t.min {
			return t.name
		}
	}
	return tiers[len(tiers)-1].name
}

func networkID(seed uint64, i int) string {
	id := uuid.NewSHA1(networkNamespace, []byte(fmt.Sprintf("%d/%d", seed, i)))
	return fmt.Sprintf("T%04d-%s", i+1, strings.ToUpper(id.String()[:8]))
}

func pick(r *rand.Rand, from []string) string {
	return from[r.IntN(len(from))]
}

func pickSkills(r *rand.Rand) []string {
	n := 1 + r.IntN(3)
	out := make([]string, 0, n)
	for _, i := range r.Perm(len(skills))[:n] {
		out = append(out, skills[i])
	}
	return out
}
