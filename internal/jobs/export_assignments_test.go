package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelstack/labeladmin/internal/domain"
	"github.com/labelstack/labeladmin/internal/service"
	"github.com/labelstack/labeladmin/internal/storage"
	"github.com/labelstack/labeladmin/internal/worker"
)

// stubAssignments implements service.AssignmentService for export tests.
type stubAssignments struct {
	service.AssignmentService
	details []domain.AssignmentDetail
	err     error
}

func (s *stubAssignments) ListForExport(ctx context.Context, taskIDs []uuid.UUID) ([]domain.AssignmentDetail, error) {
	return s.details, s.err
}

func newTestHandler(t *testing.T, details []domain.AssignmentDetail) (*ExportAssignmentsHandler, storage.Storage) {
	t.Helper()
	store, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	h := NewExportAssignmentsHandler(&stubAssignments{details: details}, store, slog.New(slog.DiscardHandler))
	return h, store
}

func TestExportAssignmentsHandler_CSV(t *testing.T) {
	details := []domain.AssignmentDetail{
		{
			Assignment: domain.Assignment{
				ID:                 uuid.New(),
				TaskID:             uuid.New(),
				IsActive:           true,
				CompletedQuestions: 3,
				TotalQuestions:     10,
				CreatedAt:          time.Now(),
			},
			TaskTitle:    "Bird species",
			LabelerName:  "Ada",
			LabelerEmail: "ada@example.com",
		},
	}
	h, store := newTestHandler(t, details)

	payload, err := json.Marshal(worker.ExportAssignmentsPayload{
		Format:      service.ExportFormatCSV,
		RequestedBy: uuid.New(),
	})
	require.NoError(t, err)

	key, err := h.Handle(context.Background(), payload)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	rc, info, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	assert.Contains(t, string(data), "Bird species")
	assert.Contains(t, string(data), "ada@example.com")
	assert.Greater(t, info.Size, int64(0))
}

func TestExportAssignmentsHandler_JSONEmpty(t *testing.T) {
	h, store := newTestHandler(t, nil)

	payload, err := json.Marshal(worker.ExportAssignmentsPayload{
		Format:      service.ExportFormatJSON,
		RequestedBy: uuid.New(),
	})
	require.NoError(t, err)

	key, err := h.Handle(context.Background(), payload)
	require.NoError(t, err)

	rc, _, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestExportAssignmentsHandler_InvalidPayload(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	_, err := h.Handle(context.Background(), []byte("{not json"))
	require.Error(t, err)
	assert.True(t, worker.IsPermanent(err))
}

func TestExportAssignmentsHandler_InvalidFormat(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	payload, err := json.Marshal(worker.ExportAssignmentsPayload{Format: "xlsx"})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, worker.IsPermanent(err))
}
