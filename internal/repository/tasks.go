package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const createTask = `
INSERT INTO tasks (
	id, title, description, instructions, priority, status,
	questions_number, required_agreements, deadline, template, created_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, title, description, instructions, priority, status,
	questions_number, required_agreements, deadline, template, created_by,
	created_at, updated_at
`

// CreateTaskParams are the insert values for a new task.
type CreateTaskParams struct {
	ID                 uuid.UUID
	Title              string
	Description        sql.NullString
	Instructions       sql.NullString
	Priority           string
	Status             string
	QuestionsNumber    int32
	RequiredAgreements int32
	Deadline           sql.NullTime
	Template           pqtype.NullRawMessage
	CreatedBy          uuid.UUID
}

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (Task, error) {
	row := q.db.QueryRowContext(ctx, createTask,
		arg.ID, arg.Title, arg.Description, arg.Instructions, arg.Priority,
		arg.Status, arg.QuestionsNumber, arg.RequiredAgreements, arg.Deadline,
		arg.Template, arg.CreatedBy,
	)
	return scanTask(row)
}

const getTaskByID = `
SELECT id, title, description, instructions, priority, status,
	questions_number, required_agreements, deadline, template, created_by,
	created_at, updated_at
FROM tasks
WHERE id = $1
`

func (q *Queries) GetTaskByID(ctx context.Context, id uuid.UUID) (Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, getTaskByID, id))
}

const listTasks = `
SELECT id, title, description, instructions, priority, status,
	questions_number, required_agreements, deadline, template, created_by,
	created_at, updated_at
FROM tasks
WHERE ($1::text = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

// ListTasksParams filter and page the task list.
type ListTasksParams struct {
	Status string // Empty matches all statuses
	Limit  int32
	Offset int32
}

func (q *Queries) ListTasks(ctx context.Context, arg ListTasksParams) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, listTasks, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Instructions, &t.Priority,
			&t.Status, &t.QuestionsNumber, &t.RequiredAgreements, &t.Deadline,
			&t.Template, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

const countTasks = `
SELECT count(*) FROM tasks WHERE ($1::text = '' OR status = $1)
`

func (q *Queries) CountTasks(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countTasks, status).Scan(&count)
	return count, err
}

const taskTitleExists = `
SELECT EXISTS (
	SELECT 1 FROM tasks WHERE lower(title) = lower($1) AND id <> $2
)
`

// TaskTitleExistsParams checks for a duplicate title, excluding one task
// (pass uuid.Nil when creating).
type TaskTitleExistsParams struct {
	Title     string
	ExcludeID uuid.UUID
}

func (q *Queries) TaskTitleExists(ctx context.Context, arg TaskTitleExistsParams) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, taskTitleExists, arg.Title, arg.ExcludeID).Scan(&exists)
	return exists, err
}

const updateTask = `
UPDATE tasks
SET title = $2, description = $3, instructions = $4, priority = $5,
	questions_number = $6, required_agreements = $7, deadline = $8,
	template = $9, updated_at = now()
WHERE id = $1
RETURNING id, title, description, instructions, priority, status,
	questions_number, required_agreements, deadline, template, created_by,
	created_at, updated_at
`

// UpdateTaskParams are the new values for an existing task.
type UpdateTaskParams struct {
	ID                 uuid.UUID
	Title              string
	Description        sql.NullString
	Instructions       sql.NullString
	Priority           string
	QuestionsNumber    int32
	RequiredAgreements int32
	Deadline           sql.NullTime
	Template           pqtype.NullRawMessage
}

func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (Task, error) {
	row := q.db.QueryRowContext(ctx, updateTask,
		arg.ID, arg.Title, arg.Description, arg.Instructions, arg.Priority,
		arg.QuestionsNumber, arg.RequiredAgreements, arg.Deadline, arg.Template,
	)
	return scanTask(row)
}

const updateTaskStatus = `
UPDATE tasks SET status = $2, updated_at = now() WHERE id = $1
`

// UpdateTaskStatusParams set a task's lifecycle status.
type UpdateTaskStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateTaskStatus(ctx context.Context, arg UpdateTaskStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateTaskStatus, arg.ID, arg.Status)
	return err
}

const deleteTask = `
DELETE FROM tasks WHERE id = $1
`

func (q *Queries) DeleteTask(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteTask, id)
	return err
}

func scanTask(row *sql.Row) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Instructions, &t.Priority,
		&t.Status, &t.QuestionsNumber, &t.RequiredAgreements, &t.Deadline,
		&t.Template, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// NullString wraps a string, treating empty as NULL.
func NullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// NullTime wraps an optional time for insert parameters.
func NullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// NullTimePtr converts a SQL nullable time back into an optional time.
func NullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
