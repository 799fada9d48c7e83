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

	"github.com/labelstack/labeladmin/internal/auth"
	"github.com/labelstack/labeladmin/internal/domain"
)

// withTestUser is the requireUser middleware used in handler tests: it
// injects a fixed admin user instead of resolving identity headers.
func withTestUser(user *domain.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
		})
	}
}

func adminUser() *domain.User {
	return &domain.User{
		ID:    uuid.New(),
		Email: "admin@example.com",
		Name:  "Admin",
		Role:  domain.UserRoleAdmin,
	}
}

// stubTaskService records calls and returns canned results.
type stubTaskService struct {
	createFn func(ctx context.Context, params domain.CreateTaskParams) (*domain.Task, error)
	getFn    func(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)
	listFn   func(ctx context.Context, params domain.ListTasksParams) (*domain.ListTasksResult, error)
	updateFn func(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error)
	statusFn func(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error)
	deleteFn func(ctx context.Context, taskID uuid.UUID) error
}

func (s *stubTaskService) Create(ctx context.Context, params domain.CreateTaskParams) (*domain.Task, error) {
	return s.createFn(ctx, params)
}

func (s *stubTaskService) GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	return s.getFn(ctx, taskID)
}

func (s *stubTaskService) List(ctx context.Context, params domain.ListTasksParams) (*domain.ListTasksResult, error) {
	return s.listFn(ctx, params)
}

func (s *stubTaskService) Update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	return s.updateFn(ctx, params)
}

func (s *stubTaskService) UpdateStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	return s.statusFn(ctx, taskID, status)
}

func (s *stubTaskService) Delete(ctx context.Context, taskID uuid.UUID) error {
	return s.deleteFn(ctx, taskID)
}

func sampleTask() *domain.Task {
	return &domain.Task{
		ID:                 uuid.New(),
		Title:              "Bird species",
		Priority:           domain.TaskPriorityMedium,
		Status:             domain.TaskStatusDraft,
		QuestionsNumber:    100,
		RequiredAgreements: 3,
		Template: &domain.QuestionTemplate{
			QuestionText: "Which species is shown?",
			Choices: map[string]domain.FailureChoice{
				"blur": {Text: "Image too blurry", Options: []string{"None", "Slight", "Severe"}},
			},
		},
		CreatedBy: uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func newTaskMux(svc *stubTaskService) *http.ServeMux {
	h := NewTaskHandler(svc, slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, withTestUser(adminUser()))
	return mux
}

// =============================================================================
// Create
// =============================================================================

func TestTaskHandler_Create(t *testing.T) {
	task := sampleTask()
	var gotParams domain.CreateTaskParams
	svc := &stubTaskService{
		createFn: func(ctx context.Context, params domain.CreateTaskParams) (*domain.Task, error) {
			gotParams = params
			return task, nil
		},
	}
	mux := newTaskMux(svc)

	body := `{
		"title": "Bird species",
		"priority": "medium",
		"questions_number": 100,
		"required_agreements": 3,
		"question_template": {
			"question_text": "Which species is shown?",
			"choices": {"blur": {"text": "Image too blurry", "options": ["None", "Severe"], "multiple_select": false}}
		}
	}`
	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Bird species", gotParams.Title)
	assert.Equal(t, int32(100), gotParams.QuestionsNumber)
	require.NotNil(t, gotParams.Template)
	assert.NotEqual(t, uuid.Nil, gotParams.CreatedBy)

	var resp taskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, task.ID, resp.ID)
	assert.Equal(t, "Draft", resp.StatusLabel)
}

func TestTaskHandler_Create_ValidationError(t *testing.T) {
	svc := &stubTaskService{
		createFn: func(ctx context.Context, params domain.CreateTaskParams) (*domain.Task, error) {
			return nil, domain.NewValidationError("task.create", "title", "Title cannot be empty")
		},
	}
	mux := newTaskMux(svc)

	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader(`{"title": ""}`))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body JSONError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Title cannot be empty", body.Error.Fields["title"])
}

func TestTaskHandler_Create_BadJSON(t *testing.T) {
	mux := newTaskMux(&stubTaskService{})

	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// List
// =============================================================================

func TestTaskHandler_List_Pagination(t *testing.T) {
	var offsets []int32
	svc := &stubTaskService{
		listFn: func(ctx context.Context, params domain.ListTasksParams) (*domain.ListTasksResult, error) {
			offsets = append(offsets, params.Offset)
			return &domain.ListTasksResult{
				Tasks:  []domain.Task{*sampleTask()},
				Total:  25,
				Limit:  params.Limit,
				Offset: params.Offset,
			}, nil
		},
	}
	mux := newTaskMux(svc)

	req := httptest.NewRequest("GET", "/api/tasks?page=2&per_page=10", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int32{10}, offsets)

	var resp taskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Pagination.CurrentPage)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Equal(t, 25, resp.PageInfo.Of)
	assert.Equal(t, 11, resp.PageInfo.Showing)
	assert.Equal(t, 20, resp.PageInfo.To)
	assert.Equal(t, []int{1, 2, 3}, resp.Pagination.VisiblePages)
}

func TestTaskHandler_List_ClampsPastEnd(t *testing.T) {
	// 25 items, 10 per page, page 99 requested: the pager clamps to page 3
	// and the handler refetches with the corrected offset.
	var offsets []int32
	svc := &stubTaskService{
		listFn: func(ctx context.Context, params domain.ListTasksParams) (*domain.ListTasksResult, error) {
			offsets = append(offsets, params.Offset)
			return &domain.ListTasksResult{
				Tasks:  []domain.Task{*sampleTask()},
				Total:  25,
				Limit:  params.Limit,
				Offset: params.Offset,
			}, nil
		},
	}
	mux := newTaskMux(svc)

	req := httptest.NewRequest("GET", "/api/tasks?page=99&per_page=10", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int32{980, 20}, offsets)

	var resp taskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Pagination.CurrentPage)
	assert.False(t, resp.Pagination.HasNext)
}

func TestTaskHandler_List_EmptyList(t *testing.T) {
	svc := &stubTaskService{
		listFn: func(ctx context.Context, params domain.ListTasksParams) (*domain.ListTasksResult, error) {
			return &domain.ListTasksResult{Total: 0}, nil
		},
	}
	mux := newTaskMux(svc)

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp taskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Pagination.CurrentPage)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
	assert.Equal(t, 0, resp.PageInfo.Showing)
	assert.Equal(t, 0, resp.PageInfo.To)
}

// =============================================================================
// Get / Update / Status / Delete
// =============================================================================

func TestTaskHandler_Get_InvalidID(t *testing.T) {
	mux := newTaskMux(&stubTaskService{})

	req := httptest.NewRequest("GET", "/api/tasks/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_Get_NotFound(t *testing.T) {
	svc := &stubTaskService{
		getFn: func(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
			return nil, domain.NotFound("task.get", "task", taskID.String())
		},
	}
	mux := newTaskMux(svc)

	req := httptest.NewRequest("GET", "/api/tasks/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskHandler_UpdateStatus_InvalidTransition(t *testing.T) {
	svc := &stubTaskService{
		statusFn: func(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
			return nil, domain.Invalid("task.transition", "cannot transition task from draft to completed")
		},
	}
	mux := newTaskMux(svc)

	req := httptest.NewRequest("PATCH", "/api/tasks/"+uuid.NewString()+"/status",
		strings.NewReader(`{"status": "completed"}`))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_UpdateStatus(t *testing.T) {
	task := sampleTask()
	task.Status = domain.TaskStatusActive
	svc := &stubTaskService{
		statusFn: func(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
			assert.Equal(t, domain.TaskStatusActive, status)
			return task, nil
		},
	}
	mux := newTaskMux(svc)

	req := httptest.NewRequest("PATCH", "/api/tasks/"+task.ID.String()+"/status",
		strings.NewReader(`{"status": "active"}`))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp taskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, "Active", resp.StatusLabel)
}

func TestTaskHandler_Delete(t *testing.T) {
	deleted := uuid.Nil
	svc := &stubTaskService{
		deleteFn: func(ctx context.Context, taskID uuid.UUID) error {
			deleted = taskID
			return nil
		},
	}
	mux := newTaskMux(svc)

	taskID := uuid.New()
	req := httptest.NewRequest("DELETE", "/api/tasks/"+taskID.String(), nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, taskID, deleted)
}
