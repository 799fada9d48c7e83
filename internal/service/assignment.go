// Package service contains business logic for the labeling admin service.
//
// This file implements the assignment service behind the admin dashboard:
// the paginated assignment list, aggregate stats, and lifecycle toggles.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labelstack/labeladmin/internal/domain"
	"github.com/labelstack/labeladmin/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// AssignmentService defines the interface for assignment operations.
type AssignmentService interface {
	// List retrieves a page of assignments with task and labeler details,
	// optionally filtered by task.
	List(ctx context.Context, params domain.ListAssignmentsParams) (*domain.ListAssignmentsResult, error)

	// GetByID retrieves one assignment with details.
	// Returns domain.ENOTFOUND if the assignment doesn't exist.
	GetByID(ctx context.Context, assignmentID uuid.UUID) (*domain.AssignmentDetail, error)

	// Stats returns the aggregate numbers for the dashboard header.
	Stats(ctx context.Context) (*domain.AssignmentStats, error)

	// SetActive toggles whether a labeler can submit responses.
	// Returns domain.ENOTFOUND if the assignment doesn't exist.
	SetActive(ctx context.Context, assignmentID uuid.UUID, active bool) error

	// Delete removes an assignment.
	// Returns domain.ENOTFOUND if the assignment doesn't exist.
	Delete(ctx context.Context, assignmentID uuid.UUID) error

	// ListForExport returns assignment details for an export job. An empty
	// task ID list exports everything.
	ListForExport(ctx context.Context, taskIDs []uuid.UUID) ([]domain.AssignmentDetail, error)
}

// =============================================================================
// Implementation
// =============================================================================

// assignmentService implements the AssignmentService interface.
type assignmentService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(queries *repository.Queries, logger *slog.Logger) AssignmentService {
	return &assignmentService{
		queries: queries,
		logger:  logger,
	}
}

// =============================================================================
// List
// =============================================================================

// List retrieves a page of assignments with task and labeler details.
func (s *assignmentService) List(ctx context.Context, params domain.ListAssignmentsParams) (*domain.ListAssignmentsResult, error) {
	const op = "assignment.list"

	taskFilter := uuid.NullUUID{}
	if params.TaskID != nil {
		taskFilter = uuid.NullUUID{UUID: *params.TaskID, Valid: true}
	}

	rows, err := s.queries.ListAssignmentDetails(ctx, repository.ListAssignmentDetailsParams{
		TaskID: taskFilter,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list assignments")
	}

	total, err := s.queries.CountAssignments(ctx, taskFilter)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count assignments")
	}

	details := make([]domain.AssignmentDetail, len(rows))
	for i, row := range rows {
		details[i] = detailToDomain(row)
	}

	return &domain.ListAssignmentsResult{
		Assignments: details,
		Total:       total,
		Limit:       params.Limit,
		Offset:      params.Offset,
	}, nil
}

// =============================================================================
// GetByID
// =============================================================================

// GetByID retrieves one assignment with details.
func (s *assignmentService) GetByID(ctx context.Context, assignmentID uuid.UUID) (*domain.AssignmentDetail, error) {
	const op = "assignment.get"

	row, err := s.queries.GetAssignmentDetail(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "assignment", assignmentID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch assignment")
	}

	detail := detailToDomain(row)
	return &detail, nil
}

// =============================================================================
// Stats
// =============================================================================

// Stats returns the aggregate numbers for the dashboard header.
func (s *assignmentService) Stats(ctx context.Context) (*domain.AssignmentStats, error) {
	const op = "assignment.stats"

	row, err := s.queries.GetAssignmentStats(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to compute stats")
	}

	stats := &domain.AssignmentStats{
		Total:     row.Total,
		Active:    row.Active,
		Completed: row.Completed,
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total)
	}

	return stats, nil
}

// =============================================================================
// SetActive
// =============================================================================

// SetActive toggles whether a labeler can submit responses.
func (s *assignmentService) SetActive(ctx context.Context, assignmentID uuid.UUID, active bool) error {
	const op = "assignment.set_active"

	err := s.queries.SetAssignmentActive(ctx, repository.SetAssignmentActiveParams{
		ID:       assignmentID,
		IsActive: active,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "assignment", assignmentID.String())
		}
		return domain.Internal(err, op, "failed to update assignment")
	}

	s.logger.Info("assignment toggled", "assignment_id", assignmentID, "active", active)

	return nil
}

// =============================================================================
// Delete
// =============================================================================

// Delete removes an assignment.
func (s *assignmentService) Delete(ctx context.Context, assignmentID uuid.UUID) error {
	const op = "assignment.delete"

	if err := s.queries.DeleteAssignment(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "assignment", assignmentID.String())
		}
		return domain.Internal(err, op, "failed to delete assignment")
	}

	s.logger.Info("assignment deleted", "assignment_id", assignmentID)

	return nil
}

// =============================================================================
// ListForExport
// =============================================================================

// ListForExport returns assignment details for an export job.
func (s *assignmentService) ListForExport(ctx context.Context, taskIDs []uuid.UUID) ([]domain.AssignmentDetail, error) {
	const op = "assignment.list_for_export"

	var rows []repository.AssignmentDetailRow
	var err error
	if len(taskIDs) == 0 {
		rows, err = s.queries.ListAllAssignmentDetails(ctx)
	} else {
		rows, err = s.queries.ListAssignmentDetailsByTasks(ctx, taskIDs)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list assignments for export")
	}

	details := make([]domain.AssignmentDetail, len(rows))
	for i, row := range rows {
		details[i] = detailToDomain(row)
	}
	return details, nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// detailToDomain converts a repository detail row to the domain shape.
func detailToDomain(row repository.AssignmentDetailRow) domain.AssignmentDetail {
	return domain.AssignmentDetail{
		Assignment: domain.Assignment{
			ID:                 row.ID,
			TaskID:             row.TaskID,
			UserID:             row.UserID,
			IsActive:           row.IsActive,
			CompletedQuestions: row.CompletedQuestions,
			TotalQuestions:     row.TotalQuestions,
			CreatedAt:          row.CreatedAt,
			UpdatedAt:          row.UpdatedAt,
		},
		TaskTitle:    row.TaskTitle,
		LabelerName:  row.LabelerName,
		LabelerEmail: row.LabelerEmail,
	}
}
