// Package jobs contains background job handlers executed by the worker.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/labelstack/labeladmin/internal/metrics"
	"github.com/labelstack/labeladmin/internal/service"
	"github.com/labelstack/labeladmin/internal/storage"
	"github.com/labelstack/labeladmin/internal/worker"
)

// ExportAssignmentsHandler processes jobs that export assignment data as
// CSV or JSON. The rendered file is uploaded to storage and its key is
// recorded on the job for download.
type ExportAssignmentsHandler struct {
	assignments service.AssignmentService
	storage     storage.Storage
	logger      *slog.Logger
}

// NewExportAssignmentsHandler creates a new handler for export jobs.
func NewExportAssignmentsHandler(
	assignments service.AssignmentService,
	storage storage.Storage,
	logger *slog.Logger,
) *ExportAssignmentsHandler {
	return &ExportAssignmentsHandler{
		assignments: assignments,
		storage:     storage,
		logger:      logger,
	}
}

// Type returns the job type identifier.
func (h *ExportAssignmentsHandler) Type() string {
	return worker.JobTypeExportAssignments
}

// Handle executes the export job.
func (h *ExportAssignmentsHandler) Handle(ctx context.Context, payload []byte) (string, error) {
	// 1. Unmarshal the payload
	var p worker.ExportAssignmentsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}

	// 2. Validate format
	if !service.IsValidExportFormat(p.Format) {
		return "", worker.NewPermanentError(fmt.Errorf("invalid format: %s (must be 'csv' or 'json')", p.Format))
	}

	h.logger.Info("Exporting assignments",
		"format", p.Format,
		"task_count", len(p.TaskIDs),
		"requested_by", p.RequestedBy,
	)

	// 3. Fetch the assignment details
	details, err := h.assignments.ListForExport(ctx, p.TaskIDs)
	if err != nil {
		return "", fmt.Errorf("list assignments: %w", err)
	}

	// 4. Render the export
	var data []byte
	if p.Format == service.ExportFormatCSV {
		data, err = service.RenderAssignmentsCSV(details)
	} else {
		data, err = service.RenderAssignmentsJSON(details)
	}
	if err != nil {
		// Rendering is deterministic, retrying will not help
		return "", worker.NewPermanentError(fmt.Errorf("render export: %w", err))
	}

	// 5. Upload to storage
	key := storage.ExportKey(p.Format)
	if err := h.storage.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{
		ContentType: storage.ExportContentType(p.Format),
	}); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}

	metrics.ExportsGenerated.WithLabelValues(p.Format).Inc()

	h.logger.Info("Export complete",
		"key", key,
		"format", p.Format,
		"assignments", len(details),
		"bytes", len(data),
	)

	return key, nil
}
