// Package handler contains HTTP handlers for the labeling admin service.
//
// This file implements the assignment dashboard endpoints: the paginated
// detail list, aggregate stats, lifecycle toggles, and the background export
// flow (enqueue + status polling + download URL).
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/labelstack/labeladmin/internal/auth"
	"github.com/labelstack/labeladmin/internal/domain"
	"github.com/labelstack/labeladmin/internal/pagination"
	"github.com/labelstack/labeladmin/internal/repository"
	"github.com/labelstack/labeladmin/internal/service"
	"github.com/labelstack/labeladmin/internal/storage"
	"github.com/labelstack/labeladmin/internal/worker"
)

// =============================================================================
// Request / Response Types
// =============================================================================

// assignmentResponse is the JSON shape of one assignment row on the
// dashboard.
type assignmentResponse struct {
	ID                 uuid.UUID `json:"id"`
	TaskID             uuid.UUID `json:"task_id"`
	TaskTitle          string    `json:"task_title"`
	UserID             uuid.UUID `json:"user_id"`
	LabelerName        string    `json:"labeler_name"`
	LabelerEmail       string    `json:"labeler_email"`
	IsActive           bool      `json:"is_active"`
	CompletedQuestions int32     `json:"completed_questions"`
	TotalQuestions     int32     `json:"total_questions"`
	Progress           float64   `json:"progress"`
	IsCompleted        bool      `json:"is_completed"`
	CreatedAt          time.Time `json:"created_at"`
}

// assignmentListResponse is the JSON shape of an assignment list page.
type assignmentListResponse struct {
	Assignments []assignmentResponse `json:"assignments"`
	Pagination  pagination.State     `json:"pagination"`
	PageInfo    pagination.PageInfo  `json:"page_info"`
}

// setActiveRequest is the JSON payload of the active-flag toggle.
type setActiveRequest struct {
	Active bool `json:"active"`
}

// exportRequest is the JSON payload of an export enqueue.
type exportRequest struct {
	TaskIDs []uuid.UUID `json:"task_ids,omitempty"`
	Format  string      `json:"format"`
}

// exportStatusResponse is the JSON shape of an export job status poll.
type exportStatusResponse struct {
	JobID       uuid.UUID `json:"job_id"`
	Status      string    `json:"status"`
	StatusLabel string    `json:"status_label"`
	Error       string    `json:"error,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
}

func toAssignmentResponse(d *domain.AssignmentDetail) assignmentResponse {
	return assignmentResponse{
		ID:                 d.ID,
		TaskID:             d.TaskID,
		TaskTitle:          d.TaskTitle,
		UserID:             d.UserID,
		LabelerName:        d.LabelerName,
		LabelerEmail:       d.LabelerEmail,
		IsActive:           d.IsActive,
		CompletedQuestions: d.CompletedQuestions,
		TotalQuestions:     d.TotalQuestions,
		Progress:           d.Progress(),
		IsCompleted:        d.IsCompleted(),
		CreatedAt:          d.CreatedAt,
	}
}

// =============================================================================
// Handler Configuration
// =============================================================================

// AssignmentHandler handles assignment HTTP requests.
type AssignmentHandler struct {
	assignments service.AssignmentService
	queries     *repository.Queries
	storage     storage.Storage
	logger      *slog.Logger
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(
	assignments service.AssignmentService,
	queries *repository.Queries,
	storage storage.Storage,
	logger *slog.Logger,
) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignments,
		queries:     queries,
		storage:     storage,
		logger:      logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all assignment routes with the provided mux.
//
// Routes:
// - GET    /api/assignments          -> List
// - GET    /api/assignments/stats    -> Stats
// - PATCH  /api/assignments/{id}     -> SetActive
// - DELETE /api/assignments/{id}     -> Delete
// - POST   /api/assignments/export   -> Export
// - GET    /api/exports/{jobID}      -> ExportStatus
func (h *AssignmentHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/assignments", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/assignments/stats", requireUser(http.HandlerFunc(h.Stats)))
	mux.Handle("PATCH /api/assignments/{id}", requireUser(http.HandlerFunc(h.SetActive)))
	mux.Handle("DELETE /api/assignments/{id}", requireUser(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/assignments/export", requireUser(http.HandlerFunc(h.Export)))
	mux.Handle("GET /api/exports/{jobID}", requireUser(http.HandlerFunc(h.ExportStatus)))
}

// =============================================================================
// GET /api/assignments - List Assignments
// =============================================================================

// List returns a page of assignment details, optionally filtered by task.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", DefaultPageSize)
	if perPage > MaxPageSize {
		perPage = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	var taskID *uuid.UUID
	if raw := r.URL.Query().Get("task_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("assignment.list", "Invalid task_id filter"))
			return
		}
		taskID = &id
	}

	result, err := h.assignments.List(r.Context(), domain.ListAssignmentsParams{
		TaskID: taskID,
		Limit:  int32(perPage),
		Offset: int32(offset),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	pager := pagination.New(pagination.Options{
		PageSize:    perPage,
		TotalItems:  int(result.Total),
		InitialPage: page,
	})
	if pager.StartIndex() != offset {
		// Requested page was past the end; refetch the clamped page.
		result, err = h.assignments.List(r.Context(), domain.ListAssignmentsParams{
			TaskID: taskID,
			Limit:  int32(perPage),
			Offset: int32(pager.StartIndex()),
		})
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	assignments := make([]assignmentResponse, len(result.Assignments))
	for i := range result.Assignments {
		assignments[i] = toAssignmentResponse(&result.Assignments[i])
	}

	writeJSON(w, http.StatusOK, assignmentListResponse{
		Assignments: assignments,
		Pagination:  pager.State(),
		PageInfo:    pager.Info(),
	})
}

// =============================================================================
// GET /api/assignments/stats - Dashboard Stats
// =============================================================================

// Stats returns the aggregate numbers for the dashboard header.
func (h *AssignmentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.assignments.Stats(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":           stats.Total,
		"active":          stats.Active,
		"completed":       stats.Completed,
		"completion_rate": stats.CompletionRate,
	})
}

// =============================================================================
// PATCH /api/assignments/{id} - Toggle Active
// =============================================================================

// SetActive toggles whether a labeler can submit responses.
func (h *AssignmentHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("assignment.set_active", "Invalid assignment ID"))
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("assignment.set_active", "Invalid JSON body"))
		return
	}

	if err := h.assignments.SetActive(r.Context(), assignmentID, req.Active); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	detail, err := h.assignments.GetByID(r.Context(), assignmentID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toAssignmentResponse(detail))
}

// =============================================================================
// DELETE /api/assignments/{id} - Remove Assignment
// =============================================================================

// Delete removes an assignment. The confirmation dialog lives in the client;
// this is the destructive endpoint it confirms into.
func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("assignment.delete", "Invalid assignment ID"))
		return
	}

	if err := h.assignments.Delete(r.Context(), assignmentID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// POST /api/assignments/export - Enqueue Export
// =============================================================================

// Export enqueues a background job that renders the assignment list as CSV
// or JSON and writes it to storage. Returns 202 with the job ID to poll.
func (h *AssignmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("assignment.export", "Invalid JSON body"))
		return
	}

	if !service.IsValidExportFormat(req.Format) {
		ErrorResponse(w, r, h.logger, domain.Invalid("assignment.export", "Format must be csv or json"))
		return
	}

	job, err := worker.EnqueueExportAssignments(r.Context(), h.queries, req.TaskIDs, req.Format, user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "assignment.export", "Failed to enqueue export"))
		return
	}

	h.logger.Info("export enqueued", "job_id", job.ID, "format", req.Format, "requested_by", user.ID)

	writeJSON(w, http.StatusAccepted, exportStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		StatusLabel: JobStatusLabel(job.Status),
	})
}

// =============================================================================
// GET /api/exports/{jobID} - Export Status
// =============================================================================

// ExportStatus reports the state of an export job. Completed jobs include a
// time-limited download URL for the generated file.
func (h *AssignmentHandler) ExportStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("jobID"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("export.status", "Invalid job ID"))
		return
	}

	job, err := h.queries.GetJobByID(r.Context(), jobID)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NotFound("export.status", "export job", jobID.String()))
		return
	}
	if job.JobType != worker.JobTypeExportAssignments {
		ErrorResponse(w, r, h.logger, domain.NotFound("export.status", "export job", jobID.String()))
		return
	}

	resp := exportStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		StatusLabel: JobStatusLabel(job.Status),
	}

	switch job.Status {
	case repository.JobStatusCompleted:
		if job.ResultKey.Valid {
			url, err := h.storage.URL(r.Context(), job.ResultKey.String, 1*time.Hour)
			if err != nil {
				h.logger.Error("failed to generate export URL", "error", err, "key", job.ResultKey.String)
			} else {
				resp.DownloadURL = url
			}
		}
	case repository.JobStatusFailed:
		resp.Error = job.ErrorMessage.String
	}

	writeJSON(w, http.StatusOK, resp)
}
