package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Task mirrors the tasks table.
type Task struct {
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
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ExampleImage mirrors the example_images table.
type ExampleImage struct {
	ID               uuid.UUID
	TaskID           uuid.UUID
	StorageKey       string
	ThumbnailKey     string
	OriginalFilename string
	ContentType      string
	SizeBytes        int64
	Width            int32
	Height           int32
	Caption          sql.NullString
	Position         int32
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Assignment mirrors the assignments table.
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

// User mirrors the users table.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Job mirrors the jobs table backing the background worker.
type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      []byte
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ErrorMessage sql.NullString
	ResultKey    sql.NullString
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
