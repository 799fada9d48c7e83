// Package domain contains core business types and interfaces.
//
// This file defines the labeling Task domain type: the unit of work admins
// create through the task wizard and labelers receive as assignments.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Task Status
// =============================================================================

// TaskStatus represents the lifecycle state of a labeling task.
type TaskStatus string

const (
	// TaskStatusDraft indicates the task is being assembled in the wizard
	// and is not visible to labelers yet.
	TaskStatusDraft TaskStatus = "draft"

	// TaskStatusActive indicates the task is accepting label responses.
	TaskStatusActive TaskStatus = "active"

	// TaskStatusPaused indicates labeling is temporarily suspended.
	TaskStatusPaused TaskStatus = "paused"

	// TaskStatusCompleted indicates all questions reached the required
	// agreement count.
	TaskStatusCompleted TaskStatus = "completed"
)

// String returns the string representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusDraft, TaskStatusActive, TaskStatusPaused, TaskStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo returns true if the status change is allowed.
//
// Allowed transitions:
//   - draft -> active
//   - active <-> paused
//   - active -> completed
//   - any -> draft (reopen for editing)
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	if target == TaskStatusDraft {
		return true
	}
	switch s {
	case TaskStatusDraft:
		return target == TaskStatusActive
	case TaskStatusActive:
		return target == TaskStatusPaused || target == TaskStatusCompleted
	case TaskStatusPaused:
		return target == TaskStatusActive
	}
	return false
}

// =============================================================================
// Task Priority
// =============================================================================

// TaskPriority indicates scheduling urgency shown on the task list.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid returns true if the priority is a recognized value.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// =============================================================================
// Question Template
// =============================================================================

// FailureChoice is one failure category inside a question template: a label,
// the options a labeler can pick, and whether multiple options may be
// selected at once.
type FailureChoice struct {
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	MultipleSelect bool     `json:"multiple_select"`
}

// QuestionTemplate is the shared template every question generated for a
// task is stamped from.
type QuestionTemplate struct {
	QuestionText string                   `json:"question_text"`
	Choices      map[string]FailureChoice `json:"choices"`
}

// Normalize trims the question text and guarantees every choice carries a
// "None" option, inserting it at the front when missing.
func (t *QuestionTemplate) Normalize() {
	t.QuestionText = strings.TrimSpace(t.QuestionText)
	for key, choice := range t.Choices {
		hasNone := false
		for _, opt := range choice.Options {
			if opt == "None" {
				hasNone = true
				break
			}
		}
		if !hasNone {
			choice.Options = append([]string{"None"}, choice.Options...)
			t.Choices[key] = choice
		}
	}
}

// Validate checks the template for use in task creation.
func (t *QuestionTemplate) Validate(op string) error {
	if strings.TrimSpace(t.QuestionText) == "" {
		return NewValidationError(op, "question_template.question_text", "Question text cannot be empty")
	}
	if len(t.Choices) == 0 {
		return NewValidationError(op, "question_template.choices", "At least one failure category is required")
	}
	for key, choice := range t.Choices {
		if strings.TrimSpace(choice.Text) == "" {
			return NewValidationError(op, fmt.Sprintf("question_template.choices.%s.text", key), "Choice text cannot be empty")
		}
		if len(choice.Options) == 0 {
			return NewValidationError(op, fmt.Sprintf("question_template.choices.%s.options", key), "Options cannot be empty")
		}
	}
	return nil
}

// MarshalTemplate serializes a question template for storage.
func MarshalTemplate(t *QuestionTemplate) ([]byte, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// UnmarshalTemplate deserializes a stored question template. Returns nil for
// empty input.
func UnmarshalTemplate(data []byte) (*QuestionTemplate, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var t QuestionTemplate
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// =============================================================================
// Task Domain Type
// =============================================================================

// Task limits enforced at creation and update time.
const (
	// MaxTitleLength is the maximum length of a task title.
	MaxTitleLength = 200

	// MinRequiredAgreements and MaxRequiredAgreements bound how many
	// matching responses a question needs before it counts as labeled.
	MinRequiredAgreements = 1
	MaxRequiredAgreements = 10
)

// Task represents a labeling task.
type Task struct {
	ID                 uuid.UUID
	Title              string
	Description        string
	Instructions       string
	Priority           TaskPriority
	Status             TaskStatus
	QuestionsNumber    int32
	RequiredAgreements int32
	Deadline           *time.Time
	Template           *QuestionTemplate
	CreatedBy          uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TransitionTo changes the task status, enforcing the transition rules.
// The status is left unchanged when the transition is not allowed.
func (t *Task) TransitionTo(target TaskStatus) error {
	if !target.IsValid() {
		return Invalid("task.transition", fmt.Sprintf("Unknown task status %q", target))
	}
	if !t.Status.CanTransitionTo(target) {
		return Invalid("task.transition", fmt.Sprintf("cannot transition task from %s to %s", t.Status, target))
	}
	t.Status = target
	return nil
}

// IsEditable reports whether the wizard may still modify the task.
func (t *Task) IsEditable() bool {
	return t.Status == TaskStatusDraft || t.Status == TaskStatusPaused
}

// =============================================================================
// Task Service Parameters
// =============================================================================

// CreateTaskParams contains validated parameters for the task creation
// wizard. Example images are uploaded separately and attached by ID.
type CreateTaskParams struct {
	Title              string
	Description        string
	Instructions       string
	Priority           TaskPriority
	QuestionsNumber    int32
	RequiredAgreements int32
	Deadline           *time.Time
	Template           *QuestionTemplate
	CreatedBy          uuid.UUID
}

// Validate checks wizard input before anything touches the database.
func (p *CreateTaskParams) Validate(op string) error {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return NewValidationError(op, "title", "Title cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return NewValidationError(op, "title", fmt.Sprintf("Title cannot exceed %d characters", MaxTitleLength))
	}
	if p.Priority != "" && !p.Priority.IsValid() {
		return NewValidationError(op, "priority", fmt.Sprintf("Unknown priority %q", p.Priority))
	}
	if p.QuestionsNumber <= 0 {
		return NewValidationError(op, "questions_number", "Questions number must be positive")
	}
	if p.RequiredAgreements < MinRequiredAgreements || p.RequiredAgreements > MaxRequiredAgreements {
		return NewValidationError(op, "required_agreements",
			fmt.Sprintf("Required agreements must be between %d and %d", MinRequiredAgreements, MaxRequiredAgreements))
	}
	if p.Template == nil {
		return NewValidationError(op, "question_template", "A question template is required")
	}
	return p.Template.Validate(op)
}

// UpdateTaskParams contains parameters for updating an existing task.
type UpdateTaskParams struct {
	ID                 uuid.UUID
	Title              string
	Description        string
	Instructions       string
	Priority           TaskPriority
	QuestionsNumber    int32
	RequiredAgreements int32
	Deadline           *time.Time
	Template           *QuestionTemplate
}

// ListTasksParams contains parameters for listing tasks.
type ListTasksParams struct {
	Status TaskStatus // Optional filter; empty means all statuses
	Limit  int32      // Max results to return
	Offset int32      // Number of results to skip
}

// ListTasksResult contains the result of a paginated task list query.
type ListTasksResult struct {
	Tasks  []Task // The task results
	Total  int64  // Total number of tasks (for pagination)
	Limit  int32  // Number of results requested
	Offset int32  // Number of results skipped
}
