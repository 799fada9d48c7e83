// Package domain contains core business types and interfaces.
//
// This file defines the Assignment domain type linking labelers to tasks,
// plus the detail and stats shapes the admin dashboard renders.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Assignment links a labeler to a task with progress tracking.
type Assignment struct {
	ID                 uuid.UUID
	TaskID             uuid.UUID
	UserID             uuid.UUID
	IsActive           bool
	CompletedQuestions int32
	TotalQuestions     int32
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Progress returns completion as a fraction in [0, 1].
func (a *Assignment) Progress() float64 {
	if a.TotalQuestions == 0 {
		return 0
	}
	return float64(a.CompletedQuestions) / float64(a.TotalQuestions)
}

// IsCompleted reports whether every question has been answered.
func (a *Assignment) IsCompleted() bool {
	return a.TotalQuestions > 0 && a.CompletedQuestions >= a.TotalQuestions
}

// AssignmentDetail is an assignment joined with the task and labeler it
// references, as listed on the admin dashboard.
type AssignmentDetail struct {
	Assignment
	TaskTitle    string
	LabelerName  string
	LabelerEmail string
}

// AssignmentStats are the aggregate numbers shown at the top of the
// assignments dashboard.
type AssignmentStats struct {
	Total          int64
	Active         int64
	Completed      int64
	CompletionRate float64 // Fraction in [0, 1]
}

// ListAssignmentsParams contains parameters for listing assignments.
type ListAssignmentsParams struct {
	TaskID *uuid.UUID // Optional filter by task
	Limit  int32      // Max results to return
	Offset int32      // Number of results to skip
}

// ListAssignmentsResult contains the result of a paginated assignment query.
type ListAssignmentsResult struct {
	Assignments []AssignmentDetail
	Total       int64
	Limit       int32
	Offset      int32
}
