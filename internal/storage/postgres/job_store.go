package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/adforge/internal/adforge"
)

// JobStore implements adforge.JobStore using Postgres.
type JobStore struct {
	pool  pool
	table string
	now   func() time.Time
}

// NewJobStoreWithPool constructs a JobStore on an existing pool. The pool is
// usually shared with the ProductStore and is closed by it.
func NewJobStoreWithPool(p pool, table string) (*JobStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "creative_jobs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &JobStore{pool: p, table: table, now: func() time.Time { return time.Now().UTC() }}, nil
}

// JobStore returns a job store sharing this store's pool.
func (s *ProductStore) JobStore() (*JobStore, error) {
	return NewJobStoreWithPool(s.pool, s.table+"_jobs")
}

// EnsureSchema creates the jobs table.
func (s *JobStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL,
	started_at TIMESTAMPTZ,
	finished_at TIMESTAMPTZ,
	error_text TEXT NOT NULL DEFAULT '',
	request JSONB,
	result JSONB
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create jobs table: %w", err)
	}
	return nil
}

// CreateJob inserts a job row.
func (s *JobStore) CreateJob(ctx context.Context, job adforge.Job) error {
	query := fmt.Sprintf(`
INSERT INTO %s (id, kind, status, submitted_at, request)
VALUES ($1, $2, $3, $4, $5)`, s.table)
	_, err := s.pool.Exec(ctx, query, job.ID, string(job.Kind), string(job.Status), job.Submitted, nullableJSON(job.Request))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("job %s already exists", job.ID)
		}
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// UpdateJobStatus moves a non-terminal job to status.
func (s *JobStore) UpdateJobStatus(ctx context.Context, jobID string, status adforge.JobStatus, errText string) error {
	query := fmt.Sprintf(`
UPDATE %s
SET status = $2,
	error_text = $3,
	started_at = CASE WHEN $2 = 'running' AND started_at IS NULL THEN $4 ELSE started_at END,
	finished_at = CASE WHEN $5 THEN $4 ELSE finished_at END
WHERE id = $1 AND status NOT IN ('succeeded', 'failed', 'canceled')`, s.table)
	tag, err := s.pool.Exec(ctx, query, jobID, string(status), errText, s.now(), status.Terminal())
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	current, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	return fmt.Errorf("job %s already %s", jobID, current.Status)
}

// SetJobResult stores the JSON result document.
func (s *JobStore) SetJobResult(ctx context.Context, jobID string, result []byte) error {
	query := fmt.Sprintf(`UPDATE %s SET result = $2 WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, jobID, nullableJSON(result))
	if err != nil {
		return fmt.Errorf("failed to set job result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return adforge.ErrJobNotFound
	}
	return nil
}

// GetJob retrieves a single job by its ID.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (adforge.Job, error) {
	query := fmt.Sprintf(`
SELECT id, kind, status, submitted_at, started_at, finished_at, error_text, request, result
FROM %s
WHERE id = $1`, s.table)
	var (
		job             adforge.Job
		kind, status    string
		request, result []byte
	)
	err := s.pool.QueryRow(ctx, query, jobID).Scan(
		&job.ID,
		&kind,
		&status,
		&job.Submitted,
		&job.Started,
		&job.Finished,
		&job.ErrorText,
		&request,
		&result,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return adforge.Job{}, adforge.ErrJobNotFound
		}
		return adforge.Job{}, fmt.Errorf("failed to get job: %w", err)
	}
	job.Kind = adforge.JobKind(kind)
	job.Status = adforge.JobStatus(status)
	job.Request = request
	job.Result = result
	return job, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
