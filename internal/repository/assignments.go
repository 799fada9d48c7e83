package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AssignmentDetailRow is an assignment joined with its task title and
// labeler identity, as shown on the admin dashboard.
type AssignmentDetailRow struct {
	Assignment
	TaskTitle    string
	LabelerName  string
	LabelerEmail string
}

const listAssignmentDetails = `
SELECT a.id, a.task_id, a.user_id, a.is_active,
	a.completed_questions, a.total_questions, a.created_at, a.updated_at,
	t.title, u.name, u.email
FROM assignments a
JOIN tasks t ON t.id = a.task_id
JOIN users u ON u.id = a.user_id
WHERE ($1::uuid IS NULL OR a.task_id = $1)
ORDER BY a.created_at DESC
LIMIT $2 OFFSET $3
`

// ListAssignmentDetailsParams filter and page the assignment list. TaskID
// nil matches all tasks.
type ListAssignmentDetailsParams struct {
	TaskID uuid.NullUUID
	Limit  int32
	Offset int32
}

func (q *Queries) ListAssignmentDetails(ctx context.Context, arg ListAssignmentDetailsParams) ([]AssignmentDetailRow, error) {
	rows, err := q.db.QueryContext(ctx, listAssignmentDetails, arg.TaskID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []AssignmentDetailRow
	for rows.Next() {
		var d AssignmentDetailRow
		if err := rows.Scan(
			&d.ID, &d.TaskID, &d.UserID, &d.IsActive,
			&d.CompletedQuestions, &d.TotalQuestions, &d.CreatedAt, &d.UpdatedAt,
			&d.TaskTitle, &d.LabelerName, &d.LabelerEmail,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

const countAssignments = `
SELECT count(*) FROM assignments WHERE ($1::uuid IS NULL OR task_id = $1)
`

func (q *Queries) CountAssignments(ctx context.Context, taskID uuid.NullUUID) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAssignments, taskID).Scan(&count)
	return count, err
}

const getAssignmentDetail = `
SELECT a.id, a.task_id, a.user_id, a.is_active,
	a.completed_questions, a.total_questions, a.created_at, a.updated_at,
	t.title, u.name, u.email
FROM assignments a
JOIN tasks t ON t.id = a.task_id
JOIN users u ON u.id = a.user_id
WHERE a.id = $1
`

func (q *Queries) GetAssignmentDetail(ctx context.Context, id uuid.UUID) (AssignmentDetailRow, error) {
	var d AssignmentDetailRow
	err := q.db.QueryRowContext(ctx, getAssignmentDetail, id).Scan(
		&d.ID, &d.TaskID, &d.UserID, &d.IsActive,
		&d.CompletedQuestions, &d.TotalQuestions, &d.CreatedAt, &d.UpdatedAt,
		&d.TaskTitle, &d.LabelerName, &d.LabelerEmail,
	)
	return d, err
}

const setAssignmentActive = `
UPDATE assignments SET is_active = $2, updated_at = now() WHERE id = $1
`

// SetAssignmentActiveParams toggle an assignment's active flag.
type SetAssignmentActiveParams struct {
	ID       uuid.UUID
	IsActive bool
}

func (q *Queries) SetAssignmentActive(ctx context.Context, arg SetAssignmentActiveParams) error {
	res, err := q.db.ExecContext(ctx, setAssignmentActive, arg.ID, arg.IsActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const deleteAssignment = `
DELETE FROM assignments WHERE id = $1
`

func (q *Queries) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, deleteAssignment, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AssignmentStatsRow aggregates assignment progress for the dashboard.
type AssignmentStatsRow struct {
	Total     int64
	Active    int64
	Completed int64
}

const getAssignmentStats = `
SELECT
	count(*),
	count(*) FILTER (WHERE is_active),
	count(*) FILTER (WHERE total_questions > 0 AND completed_questions >= total_questions)
FROM assignments
`

func (q *Queries) GetAssignmentStats(ctx context.Context) (AssignmentStatsRow, error) {
	var s AssignmentStatsRow
	err := q.db.QueryRowContext(ctx, getAssignmentStats).Scan(&s.Total, &s.Active, &s.Completed)
	return s, err
}

const listAllAssignmentDetails = `
SELECT a.id, a.task_id, a.user_id, a.is_active,
	a.completed_questions, a.total_questions, a.created_at, a.updated_at,
	t.title, u.name, u.email
FROM assignments a
JOIN tasks t ON t.id = a.task_id
JOIN users u ON u.id = a.user_id
ORDER BY a.created_at
`

// ListAllAssignmentDetails returns every assignment, used by export jobs.
func (q *Queries) ListAllAssignmentDetails(ctx context.Context) ([]AssignmentDetailRow, error) {
	rows, err := q.db.QueryContext(ctx, listAllAssignmentDetails)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignmentDetails(rows)
}

const listAssignmentDetailsByTasks = `
SELECT a.id, a.task_id, a.user_id, a.is_active,
	a.completed_questions, a.total_questions, a.created_at, a.updated_at,
	t.title, u.name, u.email
FROM assignments a
JOIN tasks t ON t.id = a.task_id
JOIN users u ON u.id = a.user_id
WHERE a.task_id = ANY($1::uuid[])
ORDER BY a.created_at
`

// ListAssignmentDetailsByTasks returns assignments for the given tasks,
// used by exports scoped to a task subset.
func (q *Queries) ListAssignmentDetailsByTasks(ctx context.Context, taskIDs []uuid.UUID) ([]AssignmentDetailRow, error) {
	ids := make([]string, len(taskIDs))
	for i, id := range taskIDs {
		ids[i] = id.String()
	}
	rows, err := q.db.QueryContext(ctx, listAssignmentDetailsByTasks, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignmentDetails(rows)
}

func collectAssignmentDetails(rows *sql.Rows) ([]AssignmentDetailRow, error) {
	var details []AssignmentDetailRow
	for rows.Next() {
		var d AssignmentDetailRow
		if err := rows.Scan(
			&d.ID, &d.TaskID, &d.UserID, &d.IsActive,
			&d.CompletedQuestions, &d.TotalQuestions, &d.CreatedAt, &d.UpdatedAt,
			&d.TaskTitle, &d.LabelerName, &d.LabelerEmail,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
