package service

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelstack/labeladmin/internal/domain"
)

func exportFixture() []domain.AssignmentDetail {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return []domain.AssignmentDetail{
		{
			Assignment: domain.Assignment{
				ID:                 uuid.MustParse("11111111-1111-1111-1111-111111111111"),
				TaskID:             uuid.MustParse("22222222-2222-2222-2222-222222222222"),
				IsActive:           true,
				CompletedQuestions: 5,
				TotalQuestions:     20,
				CreatedAt:          created,
			},
			TaskTitle:    "Street signs, batch 3",
			LabelerName:  "Dana Reyes",
			LabelerEmail: "dana@example.com",
		},
		{
			Assignment: domain.Assignment{
				ID:                 uuid.MustParse("33333333-3333-3333-3333-333333333333"),
				TaskID:             uuid.MustParse("22222222-2222-2222-2222-222222222222"),
				IsActive:           false,
				CompletedQuestions: 20,
				TotalQuestions:     20,
				CreatedAt:          created,
			},
			TaskTitle:    "Street signs, batch 3",
			LabelerName:  "Sam Okafor",
			LabelerEmail: "sam@example.com",
		},
	}
}

func TestRenderAssignmentsCSV(t *testing.T) {
	data, err := RenderAssignmentsCSV(exportFixture())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "assignment_id", records[0][0])
	assert.Equal(t, "created_at", records[0][9])

	assert.Equal(t, "11111111-1111-1111-1111-111111111111", records[1][0])
	assert.Equal(t, "Dana Reyes", records[1][3])
	assert.Equal(t, "true", records[1][5])
	assert.Equal(t, "0.2500", records[1][8])
	assert.Equal(t, "2026-03-14T09:30:00Z", records[1][9])

	assert.Equal(t, "1.0000", records[2][8])
}

func TestRenderAssignmentsCSV_Empty(t *testing.T) {
	data, err := RenderAssignmentsCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1) // header only
}

func TestRenderAssignmentsJSON(t *testing.T) {
	data, err := RenderAssignmentsJSON(exportFixture())
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)

	assert.Equal(t, "Street signs, batch 3", records[0]["task_title"])
	assert.Equal(t, "dana@example.com", records[0]["labeler_email"])
	assert.Equal(t, 0.25, records[0]["progress"])
	assert.Equal(t, true, records[0]["is_active"])
	assert.Equal(t, float64(20), records[1]["completed_questions"])
}

func TestRenderAssignmentsJSON_Empty(t *testing.T) {
	data, err := RenderAssignmentsJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestIsValidExportFormat(t *testing.T) {
	assert.True(t, IsValidExportFormat(ExportFormatCSV))
	assert.True(t, IsValidExportFormat(ExportFormatJSON))
	assert.False(t, IsValidExportFormat("xlsx"))
	assert.False(t, IsValidExportFormat(""))
}
