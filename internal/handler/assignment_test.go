package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelstack/labeladmin/internal/domain"
)

// stubAssignmentService returns canned assignment data.
type stubAssignmentService struct {
	listFn      func(ctx context.Context, params domain.ListAssignmentsParams) (*domain.ListAssignmentsResult, error)
	getFn       func(ctx context.Context, assignmentID uuid.UUID) (*domain.AssignmentDetail, error)
	statsFn     func(ctx context.Context) (*domain.AssignmentStats, error)
	setActiveFn func(ctx context.Context, assignmentID uuid.UUID, active bool) error
	deleteFn    func(ctx context.Context, assignmentID uuid.UUID) error
}

func (s *stubAssignmentService) List(ctx context.Context, params domain.ListAssignmentsParams) (*domain.ListAssignmentsResult, error) {
	return s.listFn(ctx, params)
}

func (s *stubAssignmentService) GetByID(ctx context.Context, assignmentID uuid.UUID) (*domain.AssignmentDetail, error) {
	return s.getFn(ctx, assignmentID)
}

func (s *stubAssignmentService) Stats(ctx context.Context) (*domain.AssignmentStats, error) {
	return s.statsFn(ctx)
}

func (s *stubAssignmentService) SetActive(ctx context.Context, assignmentID uuid.UUID, active bool) error {
	return s.setActiveFn(ctx, assignmentID, active)
}

func (s *stubAssignmentService) Delete(ctx context.Context, assignmentID uuid.UUID) error {
	return s.deleteFn(ctx, assignmentID)
}

func (s *stubAssignmentService) ListForExport(ctx context.Context, taskIDs []uuid.UUID) ([]domain.AssignmentDetail, error) {
	return nil, nil
}

func sampleDetail() domain.AssignmentDetail {
	return domain.AssignmentDetail{
		Assignment: domain.Assignment{
			ID:                 uuid.New(),
			TaskID:             uuid.New(),
			UserID:             uuid.New(),
			IsActive:           true,
			CompletedQuestions: 5,
			TotalQuestions:     20,
			CreatedAt:          time.Now(),
		},
		TaskTitle:    "Bird species",
		LabelerName:  "Ada",
		LabelerEmail: "ada@example.com",
	}
}

func newAssignmentMux(svc *stubAssignmentService) *http.ServeMux {
	// Export enqueue and job status need a live database; those paths are
	// covered only up to their input validation here.
	h := NewAssignmentHandler(svc, nil, nil, slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, withTestUser(adminUser()))
	return mux
}

// =============================================================================
// List / Stats
// =============================================================================

func TestAssignmentHandler_List(t *testing.T) {
	detail := sampleDetail()
	svc := &stubAssignmentService{
		listFn: func(ctx context.Context, params domain.ListAssignmentsParams) (*domain.ListAssignmentsResult, error) {
			return &domain.ListAssignmentsResult{
				Assignments: []domain.AssignmentDetail{detail},
				Total:       1,
				Limit:       params.Limit,
				Offset:      params.Offset,
			}, nil
		},
	}
	mux := newAssignmentMux(svc)

	req := httptest.NewRequest("GET", "/api/assignments", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp assignmentListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, "Bird species", resp.Assignments[0].TaskTitle)
	assert.Equal(t, "ada@example.com", resp.Assignments[0].LabelerEmail)
	assert.InDelta(t, 0.25, resp.Assignments[0].Progress, 1e-9)
	assert.False(t, resp.Assignments[0].IsCompleted)
	assert.Equal(t, 1, resp.PageInfo.Of)
}

func TestAssignmentHandler_List_TaskFilter(t *testing.T) {
	taskID := uuid.New()
	var gotFilter *uuid.UUID
	svc := &stubAssignmentService{
		listFn: func(ctx context.Context, params domain.ListAssignmentsParams) (*domain.ListAssignmentsResult, error) {
			gotFilter = params.TaskID
			return &domain.ListAssignmentsResult{}, nil
		},
	}
	mux := newAssignmentMux(svc)

	req := httptest.NewRequest("GET", "/api/assignments?task_id="+taskID.String(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotFilter)
	assert.Equal(t, taskID, *gotFilter)
}

func TestAssignmentHandler_List_BadTaskFilter(t *testing.T) {
	mux := newAssignmentMux(&stubAssignmentService{})

	req := httptest.NewRequest("GET", "/api/assignments?task_id=nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignmentHandler_Stats(t *testing.T) {
	svc := &stubAssignmentService{
		statsFn: func(ctx context.Context) (*domain.AssignmentStats, error) {
			return &domain.AssignmentStats{Total: 40, Active: 30, Completed: 10, CompletionRate: 0.25}, nil
		},
	}
	mux := newAssignmentMux(svc)

	req := httptest.NewRequest("GET", "/api/assignments/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(40), resp["total"])
	assert.Equal(t, float64(10), resp["completed"])
	assert.InDelta(t, 0.25, resp["completion_rate"], 1e-9)
}

// =============================================================================
// SetActive / Delete
// =============================================================================

func TestAssignmentHandler_SetActive(t *testing.T) {
	detail := sampleDetail()
	detail.IsActive = false
	var gotActive *bool
	svc := &stubAssignmentService{
		setActiveFn: func(ctx context.Context, assignmentID uuid.UUID, active bool) error {
			gotActive = &active
			return nil
		},
		getFn: func(ctx context.Context, assignmentID uuid.UUID) (*domain.AssignmentDetail, error) {
			return &detail, nil
		},
	}
	mux := newAssignmentMux(svc)

	req := httptest.NewRequest("PATCH", "/api/assignments/"+detail.ID.String(),
		strings.NewReader(`{"active": false}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotActive)
	assert.False(t, *gotActive)

	var resp assignmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.IsActive)
}

func TestAssignmentHandler_SetActive_NotFound(t *testing.T) {
	svc := &stubAssignmentService{
		setActiveFn: func(ctx context.Context, assignmentID uuid.UUID, active bool) error {
			return domain.NotFound("assignment.set_active", "assignment", assignmentID.String())
		},
	}
	mux := newAssignmentMux(svc)

	req := httptest.NewRequest("PATCH", "/api/assignments/"+uuid.NewString(),
		strings.NewReader(`{"active": true}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignmentHandler_Delete(t *testing.T) {
	deleted := uuid.Nil
	svc := &stubAssignmentService{
		deleteFn: func(ctx context.Context, assignmentID uuid.UUID) error {
			deleted = assignmentID
			return nil
		},
	}
	mux := newAssignmentMux(svc)

	assignmentID := uuid.New()
	req := httptest.NewRequest("DELETE", "/api/assignments/"+assignmentID.String(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, assignmentID, deleted)
}

// =============================================================================
// Export
// =============================================================================

func TestAssignmentHandler_Export_InvalidFormat(t *testing.T) {
	mux := newAssignmentMux(&stubAssignmentService{})

	req := httptest.NewRequest("POST", "/api/assignments/export",
		strings.NewReader(`{"format": "xlsx"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignmentHandler_Export_BadJSON(t *testing.T) {
	mux := newAssignmentMux(&stubAssignmentService{})

	req := httptest.NewRequest("POST", "/api/assignments/export", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignmentHandler_ExportStatus_InvalidID(t *testing.T) {
	mux := newAssignmentMux(&stubAssignmentService{})

	req := httptest.NewRequest("GET", "/api/exports/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
