package handler

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/labelstack/labeladmin/internal/domain"
)

// titleCaser humanizes lowercase status values for badge labels.
var titleCaser = cases.Title(language.English)

// StatusLabel returns the human-facing label for a task status, e.g.
// "draft" -> "Draft".
func StatusLabel(status domain.TaskStatus) string {
	return titleCaser.String(string(status))
}

// PriorityLabel returns the human-facing label for a task priority.
func PriorityLabel(priority domain.TaskPriority) string {
	return titleCaser.String(string(priority))
}

// JobStatusLabel returns the human-facing label for a background job status.
func JobStatusLabel(status string) string {
	return titleCaser.String(status)
}
