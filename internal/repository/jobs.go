package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Job status values.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

const enqueueJob = `
INSERT INTO jobs (id, job_type, payload, status, priority, max_attempts, scheduled_at)
VALUES ($1, $2, $3, 'pending', $4, $5, $6)
RETURNING id, job_type, payload, status, priority, attempts, max_attempts,
	error_message, result_key, scheduled_at, started_at, completed_at,
	created_at, updated_at
`

// EnqueueJobParams describe a new background job.
type EnqueueJobParams struct {
	JobType     string
	Payload     []byte
	Priority    int32
	MaxAttempts int32
	ScheduledAt time.Time
}

func (q *Queries) EnqueueJob(ctx context.Context, arg EnqueueJobParams) (Job, error) {
	row := q.db.QueryRowContext(ctx, enqueueJob,
		uuid.New(), arg.JobType, arg.Payload, arg.Priority, arg.MaxAttempts, arg.ScheduledAt,
	)
	return scanJob(row)
}

const dequeueJob = `
SELECT id, job_type, payload, status, priority, attempts, max_attempts,
	error_message, result_key, scheduled_at, started_at, completed_at,
	created_at, updated_at
FROM jobs
WHERE status = 'pending' AND scheduled_at <= now()
ORDER BY priority DESC, scheduled_at
LIMIT 1
FOR UPDATE SKIP LOCKED
`

// DequeueJob claims the next runnable job. Returns sql.ErrNoRows when the
// queue is empty. Must run inside a transaction so SKIP LOCKED holds the row.
func (q *Queries) DequeueJob(ctx context.Context) (Job, error) {
	return scanJob(q.db.QueryRowContext(ctx, dequeueJob))
}

const updateJobStarted = `
UPDATE jobs
SET status = 'running', attempts = attempts + 1, started_at = now(), updated_at = now()
WHERE id = $1
`

func (q *Queries) UpdateJobStarted(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, updateJobStarted, id)
	return err
}

const updateJobCompleted = `
UPDATE jobs
SET status = 'completed', result_key = $2, completed_at = now(), updated_at = now()
WHERE id = $1
`

// UpdateJobCompletedParams finish a job, recording where its output landed.
type UpdateJobCompletedParams struct {
	ID        uuid.UUID
	ResultKey sql.NullString
}

func (q *Queries) UpdateJobCompleted(ctx context.Context, arg UpdateJobCompletedParams) error {
	_, err := q.db.ExecContext(ctx, updateJobCompleted, arg.ID, arg.ResultKey)
	return err
}

const updateJobFailed = `
UPDATE jobs
SET status = CASE WHEN $3 OR attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
	scheduled_at = CASE WHEN $3 OR attempts >= max_attempts THEN scheduled_at
		ELSE now() + (interval '30 seconds' * power(2, attempts - 1)) END,
	error_message = $2,
	updated_at = now()
WHERE id = $1
`

// UpdateJobFailedParams record a failure. Permanent failures (or exhausted
// attempts) stay failed; otherwise the job is rescheduled with exponential
// backoff.
type UpdateJobFailedParams struct {
	ID           uuid.UUID
	ErrorMessage sql.NullString
	Permanent    bool
}

func (q *Queries) UpdateJobFailed(ctx context.Context, arg UpdateJobFailedParams) error {
	_, err := q.db.ExecContext(ctx, updateJobFailed, arg.ID, arg.ErrorMessage, arg.Permanent)
	return err
}

const getJobByID = `
SELECT id, job_type, payload, status, priority, attempts, max_attempts,
	error_message, result_key, scheduled_at, started_at, completed_at,
	created_at, updated_at
FROM jobs
WHERE id = $1
`

func (q *Queries) GetJobByID(ctx context.Context, id uuid.UUID) (Job, error) {
	return scanJob(q.db.QueryRowContext(ctx, getJobByID, id))
}

const recoverStaleJobs = `
UPDATE jobs
SET status = 'pending', updated_at = now()
WHERE status = 'running' AND started_at < now() - make_interval(secs => $1)
`

// RecoverStaleJobs resets jobs stuck in 'running' longer than the threshold,
// typically left behind by a crashed worker. Returns the number recovered.
func (q *Queries) RecoverStaleJobs(ctx context.Context, thresholdSeconds float64) (int64, error) {
	res, err := q.db.ExecContext(ctx, recoverStaleJobs, thresholdSeconds)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanJob(row *sql.Row) (Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.JobType, &j.Payload, &j.Status, &j.Priority, &j.Attempts,
		&j.MaxAttempts, &j.ErrorMessage, &j.ResultKey, &j.ScheduledAt,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}
