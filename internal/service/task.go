// Package service contains business logic for the labeling admin service.
//
// This file implements the task service backing the creation wizard and the
// paginated task list.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/labelstack/labeladmin/internal/domain"
	"github.com/labelstack/labeladmin/internal/repository"
	"github.com/labelstack/labeladmin/internal/storage"
	"github.com/sqlc-dev/pqtype"
)

// =============================================================================
// Interface Definition
// =============================================================================

// TaskService defines the interface for task-related operations.
type TaskService interface {
	// Create validates wizard input and creates a new draft task.
	// Returns domain.EINVALID for validation errors.
	// Returns domain.ECONFLICT if a task with the same title already exists.
	Create(ctx context.Context, params domain.CreateTaskParams) (*domain.Task, error)

	// GetByID retrieves a task by ID.
	// Returns domain.ENOTFOUND if the task doesn't exist.
	GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// List retrieves a page of tasks, optionally filtered by status.
	List(ctx context.Context, params domain.ListTasksParams) (*domain.ListTasksResult, error)

	// Update modifies an editable task's fields.
	// Returns domain.EINVALID if the task is not in an editable status.
	// Returns domain.ECONFLICT if the new title collides with another task.
	Update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error)

	// UpdateStatus transitions the task lifecycle status.
	// Returns domain.EINVALID when the transition is not allowed.
	UpdateStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error)

	// Delete removes a task, its assignments, and all stored example
	// images and thumbnails.
	Delete(ctx context.Context, taskID uuid.UUID) error
}

// =============================================================================
// Implementation
// =============================================================================

// taskService implements the TaskService interface.
type taskService struct {
	queries *repository.Queries
	storage storage.Storage
	logger  *slog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(queries *repository.Queries, storage storage.Storage, logger *slog.Logger) TaskService {
	return &taskService{
		queries: queries,
		storage: storage,
		logger:  logger,
	}
}

// =============================================================================
// Create
// =============================================================================

// Create validates wizard input and creates a new draft task.
func (s *taskService) Create(ctx context.Context, params domain.CreateTaskParams) (*domain.Task, error) {
	const op = "task.create"

	if err := params.Validate(op); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(params.Title)

	// Reject duplicate titles up front for a friendlier error than the
	// unique index violation.
	exists, err := s.queries.TaskTitleExists(ctx, repository.TaskTitleExistsParams{
		Title:     title,
		ExcludeID: uuid.Nil,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to check title uniqueness")
	}
	if exists {
		return nil, domain.Conflict(op, "A task with this title already exists")
	}

	params.Template.Normalize()
	templateJSON, err := domain.MarshalTemplate(params.Template)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to serialize question template")
	}

	priority := params.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}

	dbTask, err := s.queries.CreateTask(ctx, repository.CreateTaskParams{
		ID:                 uuid.New(),
		Title:              title,
		Description:        repository.NullString(strings.TrimSpace(params.Description)),
		Instructions:       repository.NullString(strings.TrimSpace(params.Instructions)),
		Priority:           string(priority),
		Status:             string(domain.TaskStatusDraft),
		QuestionsNumber:    params.QuestionsNumber,
		RequiredAgreements: params.RequiredAgreements,
		Deadline:           repository.NullTime(params.Deadline),
		Template:           nullRawMessage(templateJSON),
		CreatedBy:          params.CreatedBy,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create task")
	}

	s.logger.Info("task created", "task_id", dbTask.ID, "title", title)

	return taskToDomain(dbTask)
}

// =============================================================================
// GetByID
// =============================================================================

// GetByID retrieves a task by ID.
func (s *taskService) GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	const op = "task.get"

	dbTask, err := s.queries.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "task", taskID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch task")
	}

	return taskToDomain(dbTask)
}

// =============================================================================
// List
// =============================================================================

// List retrieves a page of tasks, optionally filtered by status.
func (s *taskService) List(ctx context.Context, params domain.ListTasksParams) (*domain.ListTasksResult, error) {
	const op = "task.list"

	if params.Status != "" && !params.Status.IsValid() {
		return nil, domain.Invalid(op, "Unknown task status filter")
	}

	dbTasks, err := s.queries.ListTasks(ctx, repository.ListTasksParams{
		Status: string(params.Status),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list tasks")
	}

	total, err := s.queries.CountTasks(ctx, string(params.Status))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count tasks")
	}

	tasks := make([]domain.Task, 0, len(dbTasks))
	for _, dbTask := range dbTasks {
		t, err := taskToDomain(dbTask)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}

	return &domain.ListTasksResult{
		Tasks:  tasks,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

// =============================================================================
// Update
// =============================================================================

// Update modifies an editable task's fields.
func (s *taskService) Update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	const op = "task.update"

	task, err := s.GetByID(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if !task.IsEditable() {
		return nil, domain.Invalid(op, "Only draft or paused tasks can be edited")
	}

	// Reuse the creation validation rules.
	createParams := domain.CreateTaskParams{
		Title:              params.Title,
		Description:        params.Description,
		Instructions:       params.Instructions,
		Priority:           params.Priority,
		QuestionsNumber:    params.QuestionsNumber,
		RequiredAgreements: params.RequiredAgreements,
		Deadline:           params.Deadline,
		Template:           params.Template,
	}
	if err := createParams.Validate(op); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(params.Title)
	exists, err := s.queries.TaskTitleExists(ctx, repository.TaskTitleExistsParams{
		Title:     title,
		ExcludeID: params.ID,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to check title uniqueness")
	}
	if exists {
		return nil, domain.Conflict(op, "A task with this title already exists")
	}

	params.Template.Normalize()
	templateJSON, err := domain.MarshalTemplate(params.Template)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to serialize question template")
	}

	priority := params.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}

	dbTask, err := s.queries.UpdateTask(ctx, repository.UpdateTaskParams{
		ID:                 params.ID,
		Title:              title,
		Description:        repository.NullString(strings.TrimSpace(params.Description)),
		Instructions:       repository.NullString(strings.TrimSpace(params.Instructions)),
		Priority:           string(priority),
		QuestionsNumber:    params.QuestionsNumber,
		RequiredAgreements: params.RequiredAgreements,
		Deadline:           repository.NullTime(params.Deadline),
		Template:           nullRawMessage(templateJSON),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "task", params.ID.String())
		}
		return nil, domain.Internal(err, op, "failed to update task")
	}

	return taskToDomain(dbTask)
}

// =============================================================================
// UpdateStatus
// =============================================================================

// UpdateStatus transitions the task lifecycle status.
func (s *taskService) UpdateStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	const op = "task.update_status"

	task, err := s.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	// TransitionTo enforces the lifecycle rules and mutates the copy.
	if err := task.TransitionTo(status); err != nil {
		return nil, err
	}

	if err := s.queries.UpdateTaskStatus(ctx, repository.UpdateTaskStatusParams{
		ID:     taskID,
		Status: string(task.Status),
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to update task status")
	}

	s.logger.Info("task status changed", "task_id", taskID, "status", task.Status)

	return task, nil
}

// =============================================================================
// Delete
// =============================================================================

// Delete removes a task, its assignments, and all stored example images.
func (s *taskService) Delete(ctx context.Context, taskID uuid.UUID) error {
	const op = "task.delete"

	// Verify the task exists before touching storage.
	if _, err := s.GetByID(ctx, taskID); err != nil {
		return err
	}

	// Remove stored objects first. Continue even if storage cleanup fails,
	// the database rows are the source of truth.
	if err := s.storage.DeletePrefix(ctx, storage.TaskPrefix(taskID)); err != nil {
		s.logger.Error("failed to delete task storage", "error", err, "task_id", taskID)
	}

	// Assignments and example image rows cascade via foreign keys.
	if err := s.queries.DeleteTask(ctx, taskID); err != nil {
		return domain.Internal(err, op, "failed to delete task")
	}

	s.logger.Info("task deleted", "task_id", taskID)

	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// nullRawMessage wraps serialized JSON, treating empty as NULL.
func nullRawMessage(data []byte) pqtype.NullRawMessage {
	if len(data) == 0 {
		return pqtype.NullRawMessage{}
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}
}

// taskToDomain converts a repository Task to a domain Task.
func taskToDomain(dbTask repository.Task) (*domain.Task, error) {
	var templateData []byte
	if dbTask.Template.Valid {
		templateData = dbTask.Template.RawMessage
	}
	template, err := domain.UnmarshalTemplate(templateData)
	if err != nil {
		return nil, domain.Internal(err, "task.decode", "failed to decode question template")
	}

	return &domain.Task{
		ID:                 dbTask.ID,
		Title:              dbTask.Title,
		Description:        dbTask.Description.String,
		Instructions:       dbTask.Instructions.String,
		Priority:           domain.TaskPriority(dbTask.Priority),
		Status:             domain.TaskStatus(dbTask.Status),
		QuestionsNumber:    dbTask.QuestionsNumber,
		RequiredAgreements: dbTask.RequiredAgreements,
		Deadline:           repository.NullTimePtr(dbTask.Deadline),
		Template:           template,
		CreatedBy:          dbTask.CreatedBy,
		CreatedAt:          dbTask.CreatedAt,
		UpdatedAt:          dbTask.UpdatedAt,
	}, nil
}
