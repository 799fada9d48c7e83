package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const createExampleImage = `
INSERT INTO example_images (
	id, task_id, storage_key, thumbnail_key, original_filename,
	content_type, size_bytes, width, height, caption, position
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, task_id, storage_key, thumbnail_key, original_filename,
	content_type, size_bytes, width, height, caption, position,
	created_at, updated_at
`

// CreateExampleImageParams are the insert values for an example image.
type CreateExampleImageParams struct {
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
}

func (q *Queries) CreateExampleImage(ctx context.Context, arg CreateExampleImageParams) (ExampleImage, error) {
	row := q.db.QueryRowContext(ctx, createExampleImage,
		arg.ID, arg.TaskID, arg.StorageKey, arg.ThumbnailKey,
		arg.OriginalFilename, arg.ContentType, arg.SizeBytes,
		arg.Width, arg.Height, arg.Caption, arg.Position,
	)
	return scanExampleImage(row)
}

const getExampleImageByID = `
SELECT id, task_id, storage_key, thumbnail_key, original_filename,
	content_type, size_bytes, width, height, caption, position,
	created_at, updated_at
FROM example_images
WHERE id = $1
`

func (q *Queries) GetExampleImageByID(ctx context.Context, id uuid.UUID) (ExampleImage, error) {
	return scanExampleImage(q.db.QueryRowContext(ctx, getExampleImageByID, id))
}

const listExampleImagesByTask = `
SELECT id, task_id, storage_key, thumbnail_key, original_filename,
	content_type, size_bytes, width, height, caption, position,
	created_at, updated_at
FROM example_images
WHERE task_id = $1
ORDER BY position, created_at
`

func (q *Queries) ListExampleImagesByTask(ctx context.Context, taskID uuid.UUID) ([]ExampleImage, error) {
	rows, err := q.db.QueryContext(ctx, listExampleImagesByTask, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []ExampleImage
	for rows.Next() {
		var img ExampleImage
		if err := rows.Scan(
			&img.ID, &img.TaskID, &img.StorageKey, &img.ThumbnailKey,
			&img.OriginalFilename, &img.ContentType, &img.SizeBytes,
			&img.Width, &img.Height, &img.Caption, &img.Position,
			&img.CreatedAt, &img.UpdatedAt,
		); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

const updateExampleImageCaption = `
UPDATE example_images
SET caption = $2, updated_at = now()
WHERE id = $1
RETURNING id, task_id, storage_key, thumbnail_key, original_filename,
	content_type, size_bytes, width, height, caption, position,
	created_at, updated_at
`

// UpdateExampleImageCaptionParams set an image's caption. This is the commit
// target of the caption autosave controller.
type UpdateExampleImageCaptionParams struct {
	ID      uuid.UUID
	Caption sql.NullString
}

func (q *Queries) UpdateExampleImageCaption(ctx context.Context, arg UpdateExampleImageCaptionParams) (ExampleImage, error) {
	row := q.db.QueryRowContext(ctx, updateExampleImageCaption, arg.ID, arg.Caption)
	return scanExampleImage(row)
}

const deleteExampleImage = `
DELETE FROM example_images WHERE id = $1
`

func (q *Queries) DeleteExampleImage(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteExampleImage, id)
	return err
}

const nextExampleImagePosition = `
SELECT coalesce(max(position), 0) + 1 FROM example_images WHERE task_id = $1
`

func (q *Queries) NextExampleImagePosition(ctx context.Context, taskID uuid.UUID) (int32, error) {
	var pos int32
	err := q.db.QueryRowContext(ctx, nextExampleImagePosition, taskID).Scan(&pos)
	return pos, err
}

func scanExampleImage(row *sql.Row) (ExampleImage, error) {
	var img ExampleImage
	err := row.Scan(
		&img.ID, &img.TaskID, &img.StorageKey, &img.ThumbnailKey,
		&img.OriginalFilename, &img.ContentType, &img.SizeBytes,
		&img.Width, &img.Height, &img.Caption, &img.Position,
		&img.CreatedAt, &img.UpdatedAt,
	)
	return img, err
}
