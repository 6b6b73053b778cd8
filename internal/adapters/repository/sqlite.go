package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/fieldops/techrank/internal/domain/model"
)

const sqliteDriver = "sqlite3"

const schema = `
CREATE TABLE IF NOT EXISTS technicians (
	network_id                  TEXT PRIMARY KEY,
	name                        TEXT NOT NULL DEFAULT '',
	region                      TEXT NOT NULL DEFAULT '',
	city                        TEXT NOT NULL DEFAULT '',
	role                        TEXT NOT NULL DEFAULT '',
	nom                         TEXT NOT NULL DEFAULT '',
	rom                         TEXT NOT NULL DEFAULT '',
	skills                      TEXT NOT NULL DEFAULT '[]',
	activation_date             TEXT NOT NULL DEFAULT '',
	total_tasks_assigned        INTEGER NOT NULL DEFAULT 0,
	total_jobs_completed        INTEGER NOT NULL DEFAULT 0,
	completion_rate             REAL NOT NULL DEFAULT 0,
	first_time_fix_rate         REAL NOT NULL DEFAULT 0,
	avg_completion_time_minutes REAL NOT NULL DEFAULT 0,
	jobs_per_week               REAL NOT NULL DEFAULT 0,
	sla_compliance_rate         REAL NOT NULL DEFAULT 0,
	repeat_visit_rate           REAL NOT NULL DEFAULT 0,
	performance_score           REAL NOT NULL DEFAULT 0,
	performance_tier            TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS jobs (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	technician_id           TEXT NOT NULL,
	region                  TEXT NOT NULL DEFAULT '',
	job_type                TEXT NOT NULL DEFAULT '',
	date                    TEXT NOT NULL,
	completion_time_minutes INTEGER NOT NULL,
	first_time_fix          INTEGER NOT NULL DEFAULT 0,
	sla_compliant           INTEGER NOT NULL DEFAULT 0,
	revisit_required        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS jobs_technician_id ON jobs (technician_id);
`

// ReadSQLite loads technicians and jobs from a SQLite database. Row order
// follows rowid so the load order matches the order rows were written.
// Thresholds, filter options and the date range are derived by NewMemStore.
func ReadSQLite(ctx context.Context, path string) (model.Dataset, error) {
	db, err := sql.Open(sqliteDriver, "file:"+path+"?mode=ro")
	if err != nil {
		return model.Dataset{}, fmt.Errorf("%w: open sqlite: %w", ErrLoad, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return model.Dataset{}, fmt.Errorf("%w: ping sqlite: %w", ErrLoad, err)
	}

	techs, err := readTechnicians(ctx, db)
	if err != nil {
		return model.Dataset{}, err
	}
	jobs, err := readJobs(ctx, db)
	if err != nil {
		return model.Dataset{}, err
	}
	return model.Dataset{Technicians: techs, Jobs: jobs}, nil
}

func readTechnicians(ctx context.Context, db *sql.DB) ([]model.Technician, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT network_id, name, region, city, role, nom, rom, skills, activation_date,
		       total_tasks_assigned, total_jobs_completed, completion_rate, first_time_fix_rate,
		       avg_completion_time_minutes, jobs_per_week, sla_compliance_rate, repeat_visit_rate,
		       performance_score, performance_tier
		FROM technicians ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: query technicians: %w", ErrLoad, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Technician
	for rows.Next() {
		var (
			t      model.Technician
			skills string
		)
		if err := rows.Scan(
			&t.NetworkID, &t.Name, &t.Region, &t.City, &t.Role, &t.Nom, &t.Rom, &skills, &t.ActivationDate,
			&t.TotalTasksAssigned, &t.TotalJobsCompleted, &t.CompletionRate, &t.FirstTimeFixRate,
			&t.AvgCompletionTimeMinutes, &t.JobsPerWeek, &t.SLAComplianceRate, &t.RepeatVisitRate,
			&t.PerformanceScore, &t.PerformanceTier,
		); err != nil {
			return nil, fmt.Errorf("%w: scan technician: %w", ErrLoad, err)
		}
		if err := json.Unmarshal([]byte(skills), &t.Skills); err != nil {
			return nil, fmt.Errorf("%w: technician %q skills: %w", ErrIntegrity, t.NetworkID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate technicians: %w", ErrLoad, err)
	}
	return out, nil
}

func readJobs(ctx context.Context, db *sql.DB) ([]model.Job, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT technician_id, region, job_type, date, completion_time_minutes,
		       first_time_fix, sla_compliant, revisit_required
		FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: query jobs: %w", ErrLoad, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Job
	for rows.Next() {
		var j model.Job
		if err := rows.Scan(
			&j.TechnicianID, &j.Region, &j.JobType, &j.Date, &j.CompletionTimeMinutes,
			&j.FirstTimeFix, &j.SLACompliant, &j.RevisitRequired,
		); err != nil {
			return nil, fmt.Errorf("%w: scan job: %w", ErrLoad, err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate jobs: %w", ErrLoad, err)
	}
	return out, nil
}

// WriteSQLite writes ds into a SQLite database at path, creating the schema
// when needed. It is used to export generated datasets.
func WriteSQLite(ctx context.Context, path string, ds model.Dataset) error {
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	techStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO technicians (network_id, name, region, city, role, nom, rom, skills, activation_date,
			total_tasks_assigned, total_jobs_completed, completion_rate, first_time_fix_rate,
			avg_completion_time_minutes, jobs_per_week, sla_compliance_rate, repeat_visit_rate,
			performance_score, performance_tier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare technicians: %w", err)
	}
	defer func() { _ = techStmt.Close() }()

	for _, t := range ds.Technicians {
		skills, err := json.Marshal(nonNil(t.Skills))
		if err != nil {
			return fmt.Errorf("encode skills: %w", err)
		}
		if _, err := techStmt.ExecContext(ctx,
			t.NetworkID, t.Name, t.Region, t.City, t.Role, t.Nom, t.Rom, string(skills), t.ActivationDate,
			t.TotalTasksAssigned, t.TotalJobsCompleted, t.CompletionRate, t.FirstTimeFixRate,
			t.AvgCompletionTimeMinutes, t.JobsPerWeek, t.SLAComplianceRate, t.RepeatVisitRate,
			t.PerformanceScore, t.PerformanceTier,
		); err != nil {
			return fmt.Errorf("insert technician %q: %w", t.NetworkID, err)
		}
	}

	jobStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO jobs (technician_id, region, job_type, date, completion_time_minutes,
			first_time_fix, sla_compliant, revisit_required)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare jobs: %w", err)
	}
	defer func() { _ = jobStmt.Close() }()

	for _, j := range ds.Jobs {
		if _, err := jobStmt.ExecContext(ctx,
			j.TechnicianID, j.Region, j.JobType, j.Date, j.CompletionTimeMinutes,
			j.FirstTimeFix, j.SLACompliant, j.RevisitRequired,
		); err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
