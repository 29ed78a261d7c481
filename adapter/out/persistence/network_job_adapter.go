package persistence

import (
	"context"
	"fmt"

	"network_server/core/domain"
	"network_server/core/port/out"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobAdapter implements out.JobRepository on the pgx pool.
type JobAdapter struct {
	db *pgxpool.Pool
}

func NewJobAdapter(db *pgxpool.Pool) *JobAdapter {
	return &JobAdapter{db: db}
}

// FindOpenBySkills returns open jobs requiring any of skills, newest first.
func (a *JobAdapter) FindOpenBySkills(ctx context.Context, skills []string, limit int) ([]*domain.Job, error) {
	lowered := lowerSkills(skills)
	if len(lowered) == 0 || limit <= 0 {
		return []*domain.Job{}, nil
	}

	query := `
		SELECT id, employer_id, title, COALESCE(company, ''), COALESCE(location, ''),
			skills, hourly_rate, status, created_at
		FROM jobs
		WHERE status = $1
			AND ARRAY(SELECT lower(s) FROM unnest(skills) s) && $2::text[]
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := a.db.Query(ctx, query, string(domain.JobOpen), lowered, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}

	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Job, error) {
		var (
			j    domain.Job
			rate *float64
		)
		if err := row.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Company, &j.Location,
			&j.Skills, &rate, &j.Status, &j.CreatedAt); err != nil {
			return nil, err
		}
		if rate != nil {
			j.HourlyRate = *rate
		}
		return &j, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan jobs: %w", err)
	}
	return jobs, nil
}

var _ out.JobRepository = (*JobAdapter)(nil)
