// Package service contains business logic for the labeling admin service.
//
// This file renders assignment exports. Rendering is separated from the
// export job handler so it can be tested without storage or a database.
package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/labelstack/labeladmin/internal/domain"
)

// Export formats accepted by the export endpoint and job payload.
const (
	ExportFormatCSV  = "csv"
	ExportFormatJSON = "json"
)

// IsValidExportFormat reports whether the format is supported.
func IsValidExportFormat(format string) bool {
	return format == ExportFormatCSV || format == ExportFormatJSON
}

// exportRecord is the JSON shape of one exported assignment.
type exportRecord struct {
	AssignmentID       string    `json:"assignment_id"`
	TaskID             string    `json:"task_id"`
	TaskTitle          string    `json:"task_title"`
	LabelerName        string    `json:"labeler_name"`
	LabelerEmail       string    `json:"labeler_email"`
	IsActive           bool      `json:"is_active"`
	CompletedQuestions int32     `json:"completed_questions"`
	TotalQuestions     int32     `json:"total_questions"`
	Progress           float64   `json:"progress"`
	CreatedAt          time.Time `json:"created_at"`
}

// RenderAssignmentsCSV renders assignment details as CSV with a header row.
func RenderAssignmentsCSV(details []domain.AssignmentDetail) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"assignment_id", "task_id", "task_title", "labeler_name", "labeler_email",
		"is_active", "completed_questions", "total_questions", "progress", "created_at",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range details {
		d := &details[i]
		record := []string{
			d.ID.String(),
			d.TaskID.String(),
			d.TaskTitle,
			d.LabelerName,
			d.LabelerEmail,
			fmt.Sprintf("%t", d.IsActive),
			fmt.Sprintf("%d", d.CompletedQuestions),
			fmt.Sprintf("%d", d.TotalQuestions),
			fmt.Sprintf("%.4f", d.Progress()),
			d.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderAssignmentsJSON renders assignment details as an indented JSON array.
// An empty input renders as "[]", not "null".
func RenderAssignmentsJSON(details []domain.AssignmentDetail) ([]byte, error) {
	records := make([]exportRecord, len(details))
	for i := range details {
		d := &details[i]
		records[i] = exportRecord{
			AssignmentID:       d.ID.String(),
			TaskID:             d.TaskID.String(),
			TaskTitle:          d.TaskTitle,
			LabelerName:        d.LabelerName,
			LabelerEmail:       d.LabelerEmail,
			IsActive:           d.IsActive,
			CompletedQuestions: d.CompletedQuestions,
			TotalQuestions:     d.TotalQuestions,
			Progress:           d.Progress(),
			CreatedAt:          d.CreatedAt.UTC(),
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}
