package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labelstack/labeladmin/internal/repository"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeExportAssignments = "export_assignments"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// ExportAssignmentsPayload is the payload for assignment export jobs.
// An empty TaskIDs list exports every assignment.
type ExportAssignmentsPayload struct {
	TaskIDs     []uuid.UUID `json:"task_ids,omitempty"`
	Format      string      `json:"format"` // "csv" or "json"
	RequestedBy uuid.UUID   `json:"requested_by"`
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob is a generic helper for enqueuing jobs with custom options.
func EnqueueJob(
	ctx context.Context,
	queries *repository.Queries,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	// Marshal the payload to JSON
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	// Default parameters
	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}

	// Apply options
	for _, opt := range opts {
		opt(&params)
	}

	// Enqueue the job
	job, err := queries.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

// EnqueueExportAssignments enqueues a job to export assignments as CSV or
// JSON. The result key on the completed job points at the generated file.
func EnqueueExportAssignments(
	ctx context.Context,
	queries *repository.Queries,
	taskIDs []uuid.UUID,
	format string,
	requestedBy uuid.UUID,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := ExportAssignmentsPayload{
		TaskIDs:     taskIDs,
		Format:      format,
		RequestedBy: requestedBy,
	}

	return EnqueueJob(ctx, queries, JobTypeExportAssignments, payload, opts...)
}
