// Package handler contains HTTP handlers for the labeling admin service.
//
// This file implements the task endpoints: the creation wizard submit, the
// paginated task list, and the lifecycle operations.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/labelstack/labeladmin/internal/auth"
	"github.com/labelstack/labeladmin/internal/domain"
	"github.com/labelstack/labeladmin/internal/metrics"
	"github.com/labelstack/labeladmin/internal/pagination"
	"github.com/labelstack/labeladmin/internal/service"
)

// DefaultPageSize is the task and assignment list page size when the client
// does not send per_page.
const DefaultPageSize = 10

// MaxPageSize caps per_page so a single request cannot drag the whole table.
const MaxPageSize = 100

// =============================================================================
// Request / Response Types
// =============================================================================

// taskRequest is the JSON payload of the creation wizard submit and of task
// updates.
type taskRequest struct {
	Title              string                   `json:"title"`
	Description        string                   `json:"description"`
	Instructions       string                   `json:"instructions"`
	Priority           string                   `json:"priority"`
	QuestionsNumber    int32                    `json:"questions_number"`
	RequiredAgreements int32                    `json:"required_agreements"`
	Deadline           *time.Time               `json:"deadline,omitempty"`
	Template           *domain.QuestionTemplate `json:"question_template"`
}

// statusRequest is the JSON payload of a status transition.
type statusRequest struct {
	Status string `json:"status"`
}

// taskResponse is the JSON shape of a task.
type taskResponse struct {
	ID                 uuid.UUID                `json:"id"`
	Title              string                   `json:"title"`
	Description        string                   `json:"description,omitempty"`
	Instructions       string                   `json:"instructions,omitempty"`
	Priority           string                   `json:"priority"`
	PriorityLabel      string                   `json:"priority_label"`
	Status             string                   `json:"status"`
	StatusLabel        string                   `json:"status_label"`
	QuestionsNumber    int32                    `json:"questions_number"`
	RequiredAgreements int32                    `json:"required_agreements"`
	Deadline           *time.Time               `json:"deadline,omitempty"`
	Template           *domain.QuestionTemplate `json:"question_template,omitempty"`
	CreatedBy          uuid.UUID                `json:"created_by"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// taskListResponse is the JSON shape of a task list page.
type taskListResponse struct {
	Tasks      []taskResponse      `json:"tasks"`
	Pagination pagination.State    `json:"pagination"`
	PageInfo   pagination.PageInfo `json:"page_info"`
}

func toTaskResponse(t *domain.Task) taskResponse {
	return taskResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Instructions:       t.Instructions,
		Priority:           string(t.Priority),
		PriorityLabel:      PriorityLabel(t.Priority),
		Status:             string(t.Status),
		StatusLabel:        StatusLabel(t.Status),
		QuestionsNumber:    t.QuestionsNumber,
		RequiredAgreements: t.RequiredAgreements,
		Deadline:           t.Deadline,
		Template:           t.Template,
		CreatedBy:          t.CreatedBy,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

// =============================================================================
// Handler Configuration
// =============================================================================

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:  tasks,
		logger: logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all task routes with the provided mux.
//
// Routes:
// - POST   /api/tasks             -> Create
// - GET    /api/tasks             -> List
// - GET    /api/tasks/{id}        -> Get
// - PUT    /api/tasks/{id}        -> Update
// - PATCH  /api/tasks/{id}/status -> UpdateStatus
// - DELETE /api/tasks/{id}        -> Delete
func (h *TaskHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("POST /api/tasks", requireUser(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/tasks", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/tasks/{id}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/tasks/{id}", requireUser(http.HandlerFunc(h.Update)))
	mux.Handle("PATCH /api/tasks/{id}/status", requireUser(http.HandlerFunc(h.UpdateStatus)))
	mux.Handle("DELETE /api/tasks/{id}", requireUser(http.HandlerFunc(h.Delete)))
}

// =============================================================================
// POST /api/tasks - Create Task
// =============================================================================

// Create handles the creation wizard submit.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("task.create", "Invalid JSON body"))
		return
	}

	task, err := h.tasks.Create(r.Context(), domain.CreateTaskParams{
		Title:              req.Title,
		Description:        req.Description,
		Instructions:       req.Instructions,
		Priority:           domain.TaskPriority(req.Priority),
		QuestionsNumber:    req.QuestionsNumber,
		RequiredAgreements: req.RequiredAgreements,
		Deadline:           req.Deadline,
		Template:           req.Template,
		CreatedBy:          user.ID,
	})
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.TasksCreated.Inc()

	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

// =============================================================================
// GET /api/tasks - List Tasks
// =============================================================================

// List handles the paginated task list. Out-of-range page values are clamped
// rather than rejected, so a stale link to page 12 of a shrunken list lands
// on the last page instead of a 404.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", DefaultPageSize)
	if perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	status := domain.TaskStatus(r.URL.Query().Get("status"))

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	result, err := h.tasks.List(r.Context(), domain.ListTasksParams{
		Status: status,
		Limit:  int32(perPage),
		Offset: int32(offset),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// The total count is only known after the first fetch, so the pager is
	// built from the result and may clamp the requested page back into range.
	pager := pagination.New(pagination.Options{
		PageSize:    perPage,
		TotalItems:  int(result.Total),
		InitialPage: page,
	})
	if pager.StartIndex() != offset {
		// The requested page was past the end and got clamped; refetch the
		// corrected page.
		result, err = h.tasks.List(r.Context(), domain.ListTasksParams{
			Status: status,
			Limit:  int32(pager.PageSize()),
			Offset: int32(pager.StartIndex()),
		})
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	tasks := make([]taskResponse, len(result.Tasks))
	for i := range result.Tasks {
		tasks[i] = toTaskResponse(&result.Tasks[i])
	}

	writeJSON(w, http.StatusOK, taskListResponse{
		Tasks:      tasks,
		Pagination: pager.State(),
		PageInfo:   pager.Info(),
	})
}

// =============================================================================
// GET /api/tasks/{id} - Get Task
// =============================================================================

// Get returns one task.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("task.get", "Invalid task ID"))
		return
	}

	task, err := h.tasks.GetByID(r.Context(), taskID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// =============================================================================
// PUT /api/tasks/{id} - Update Task
// =============================================================================

// Update modifies an editable task.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("task.update", "Invalid task ID"))
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("task.update", "Invalid JSON body"))
		return
	}

	task, err := h.tasks.Update(r.Context(), domain.UpdateTaskParams{
		ID:                 taskID,
		Title:              req.Title,
		Description:        req.Description,
		Instructions:       req.Instructions,
		Priority:           domain.TaskPriority(req.Priority),
		QuestionsNumber:    req.QuestionsNumber,
		RequiredAgreements: req.RequiredAgreements,
		Deadline:           req.Deadline,
		Template:           req.Template,
	})
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// =============================================================================
// PATCH /api/tasks/{id}/status - Transition Status
// =============================================================================

// UpdateStatus transitions the task lifecycle status.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("task.update_status", "Invalid task ID"))
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("task.update_status", "Invalid JSON body"))
		return
	}

	task, err := h.tasks.UpdateStatus(r.Context(), taskID, domain.TaskStatus(req.Status))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// =============================================================================
// DELETE /api/tasks/{id} - Delete Task
// =============================================================================

// Delete removes a task along with its assignments and stored images.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("task.delete", "Invalid task ID"))
		return
	}

	if err := h.tasks.Delete(r.Context(), taskID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helper Functions
// =============================================================================

// queryInt parses an integer query parameter, falling back to def for
// missing or unparseable values. Range clamping is the pager's job.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
