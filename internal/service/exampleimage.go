// Package service contains business logic for the labeling admin service.
//
// This file implements the example image service for the image-management
// panel of the task wizard, including the caption update that caption
// autosave commits through.
package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labelstack/labeladmin/internal/domain"
	"github.com/labelstack/labeladmin/internal/repository"
	"github.com/labelstack/labeladmin/internal/storage"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ExampleImageService defines the interface for example image operations.
type ExampleImageService interface {
	// Upload validates an uploaded file, generates a thumbnail, stores both,
	// and creates a database record. Size and content-type checks run before
	// any storage call.
	// Returns domain.EINVALID for unsupported formats.
	// Returns domain.ETOOLARGE when the file exceeds the size limit.
	// Returns domain.ENOTFOUND if the task doesn't exist.
	Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, taskID uuid.UUID, caption string) (*domain.ExampleImage, error)

	// GetByID retrieves an example image by ID.
	// Returns domain.ENOTFOUND if the image doesn't exist.
	GetByID(ctx context.Context, imageID uuid.UUID) (*domain.ExampleImage, error)

	// ListByTask retrieves all example images for a task in display order,
	// with thumbnail and original URLs populated.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.ExampleImage, error)

	// UpdateCaption sets an image's caption. This is the commit target of
	// the caption autosave controller.
	// Returns domain.ENOTFOUND if the image was deleted in the meantime.
	// Returns domain.EINVALID if the caption exceeds the length limit.
	UpdateCaption(ctx context.Context, imageID uuid.UUID, caption string) (*domain.ExampleImage, error)

	// Delete removes an example image from storage and database.
	// Returns domain.ENOTFOUND if the image doesn't exist.
	Delete(ctx context.Context, imageID uuid.UUID) error
}

// =============================================================================
// Implementation
// =============================================================================

// exampleImageService implements the ExampleImageService interface.
type exampleImageService struct {
	queries            *repository.Queries
	storage            storage.Storage
	thumbnailProcessor ThumbnailProcessor
	maxUploadSize      int64
	logger             *slog.Logger
}

// NewExampleImageService creates a new ExampleImageService. A non-positive
// maxUploadSize falls back to domain.MaxExampleImageSize.
func NewExampleImageService(
	queries *repository.Queries,
	storage storage.Storage,
	thumbnailProcessor ThumbnailProcessor,
	maxUploadSize int64,
	logger *slog.Logger,
) ExampleImageService {
	if maxUploadSize <= 0 {
		maxUploadSize = domain.MaxExampleImageSize
	}
	return &exampleImageService{
		queries:            queries,
		storage:            storage,
		thumbnailProcessor: thumbnailProcessor,
		maxUploadSize:      maxUploadSize,
		logger:             logger,
	}
}

// =============================================================================
// Upload
// =============================================================================

// Upload validates an uploaded file, generates a thumbnail, stores both, and
// creates a database record.
func (s *exampleImageService) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, taskID uuid.UUID, caption string) (*domain.ExampleImage, error) {
	const op = "example_image.upload"

	// Verify the task exists
	if _, err := s.queries.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "task", taskID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch task")
	}

	// Validate file size before reading anything
	if err := domain.ValidateExampleImageSize(header.Size, s.maxUploadSize); err != nil {
		return nil, err
	}

	// Detect content type from file content (read first 512 bytes)
	headerBytes := make([]byte, 512)
	n, err := file.Read(headerBytes)
	if err != nil && err != io.EOF {
		return nil, domain.Internal(err, op, "failed to read file header")
	}
	contentType := http.DetectContentType(headerBytes[:n])

	// Validate content type before any storage call
	if !domain.IsValidExampleImageContentType(contentType) {
		return nil, domain.Invalid(op, fmt.Sprintf("Unsupported image type: %s. Only JPEG, PNG, GIF and WebP are supported.", contentType))
	}

	// Validate the caption, if one was provided with the upload
	caption = domain.NormalizeCaption(caption)
	if err := domain.ValidateCaption(caption); err != nil {
		return nil, err
	}

	// Reset file pointer to beginning after reading header
	if seeker, ok := file.(io.Seeker); ok {
		if _, err := seeker.Seek(0, 0); err != nil {
			return nil, domain.Internal(err, op, "failed to reset file pointer")
		}
	}

	// Read entire file into memory for processing
	fileData, err := io.ReadAll(file)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read file data")
	}

	// Generate thumbnail
	thumbnailBytes, width, height, err := s.thumbnailProcessor.GenerateThumbnail(
		bytes.NewReader(fileData),
		domain.ThumbnailMaxWidth,
		domain.ThumbnailMaxHeight,
	)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate thumbnail")
	}

	// Generate storage keys sharing one image ID
	imageID := uuid.New()
	storageKey := storage.ExampleImageKey(taskID, imageID, header.Filename)
	thumbnailKey := storage.ExampleThumbnailKey(taskID, imageID)

	// Upload original to storage
	if err := s.storage.Put(ctx, storageKey, bytes.NewReader(fileData), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     s.maxUploadSize,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to upload original image")
	}

	// Upload thumbnail to storage
	if err := s.storage.Put(ctx, thumbnailKey, bytes.NewReader(thumbnailBytes), storage.PutOptions{
		ContentType: "image/jpeg",
	}); err != nil {
		// Clean up original image on thumbnail upload failure
		_ = s.storage.Delete(ctx, storageKey)
		return nil, domain.Internal(err, op, "failed to upload thumbnail")
	}

	// Append at the end of the task's gallery
	position, err := s.queries.NextExampleImagePosition(ctx, taskID)
	if err != nil {
		position = 1
	}

	// Create database record
	dbImage, err := s.queries.CreateExampleImage(ctx, repository.CreateExampleImageParams{
		ID:               imageID,
		TaskID:           taskID,
		StorageKey:       storageKey,
		ThumbnailKey:     thumbnailKey,
		OriginalFilename: header.Filename,
		ContentType:      contentType,
		SizeBytes:        header.Size,
		Width:            int32(width),
		Height:           int32(height),
		Caption:          repository.NullString(caption),
		Position:         position,
	})
	if err != nil {
		// Clean up storage on database error
		_ = s.storage.Delete(ctx, storageKey)
		_ = s.storage.Delete(ctx, thumbnailKey)
		return nil, domain.Internal(err, op, "failed to create image record")
	}

	s.logger.Info("example image uploaded",
		"image_id", dbImage.ID,
		"task_id", taskID,
		"size", header.Size,
		"content_type", contentType,
	)

	return s.toDomain(dbImage), nil
}

// =============================================================================
// GetByID
// =============================================================================

// GetByID retrieves an example image by ID.
func (s *exampleImageService) GetByID(ctx context.Context, imageID uuid.UUID) (*domain.ExampleImage, error) {
	const op = "example_image.get"

	dbImage, err := s.queries.GetExampleImageByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "example image", imageID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch image")
	}

	return s.toDomain(dbImage), nil
}

// =============================================================================
// ListByTask
// =============================================================================

// ListByTask retrieves all example images for a task in display order.
func (s *exampleImageService) ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.ExampleImage, error) {
	const op = "example_image.list"

	// Verify the task exists
	if _, err := s.queries.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "task", taskID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch task")
	}

	dbImages, err := s.queries.ListExampleImagesByTask(ctx, taskID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to fetch images")
	}

	images := make([]domain.ExampleImage, len(dbImages))
	for i, dbImage := range dbImages {
		img := s.toDomain(dbImage)
		s.populateURLs(ctx, img)
		images[i] = *img
	}

	return images, nil
}

// =============================================================================
// UpdateCaption
// =============================================================================

// UpdateCaption sets an image's caption.
func (s *exampleImageService) UpdateCaption(ctx context.Context, imageID uuid.UUID, caption string) (*domain.ExampleImage, error) {
	const op = "example_image.update_caption"

	caption = domain.NormalizeCaption(caption)
	if err := domain.ValidateCaption(caption); err != nil {
		return nil, err
	}

	dbImage, err := s.queries.UpdateExampleImageCaption(ctx, repository.UpdateExampleImageCaptionParams{
		ID:      imageID,
		Caption: repository.NullString(caption),
	})
	if err != nil {
		// The image may have been deleted while the edit was staged.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "example image", imageID.String())
		}
		return nil, domain.Internal(err, op, "failed to update caption")
	}

	s.logger.Debug("caption committed", "image_id", imageID, "length", len(caption))

	return s.toDomain(dbImage), nil
}

// =============================================================================
// Delete
// =============================================================================

// Delete removes an example image from storage and database.
func (s *exampleImageService) Delete(ctx context.Context, imageID uuid.UUID) error {
	const op = "example_image.delete"

	image, err := s.GetByID(ctx, imageID)
	if err != nil {
		return err
	}

	// Delete from storage (both original and thumbnail).
	// Continue even if storage deletion fails, we still want to remove the
	// database record.
	if err := s.storage.Delete(ctx, image.StorageKey); err != nil {
		s.logger.Error("failed to delete original image from storage", "error", err, "key", image.StorageKey)
	}
	if err := s.storage.Delete(ctx, image.ThumbnailKey); err != nil {
		s.logger.Error("failed to delete thumbnail from storage", "error", err, "key", image.ThumbnailKey)
	}

	if err := s.queries.DeleteExampleImage(ctx, imageID); err != nil {
		return domain.Internal(err, op, "failed to delete image record")
	}

	s.logger.Info("example image deleted", "image_id", imageID, "task_id", image.TaskID)

	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// toDomain converts a repository ExampleImage to a domain ExampleImage.
func (s *exampleImageService) toDomain(dbImage repository.ExampleImage) *domain.ExampleImage {
	return &domain.ExampleImage{
		ID:               dbImage.ID,
		TaskID:           dbImage.TaskID,
		StorageKey:       dbImage.StorageKey,
		ThumbnailKey:     dbImage.ThumbnailKey,
		OriginalFilename: dbImage.OriginalFilename,
		ContentType:      dbImage.ContentType,
		SizeBytes:        dbImage.SizeBytes,
		Width:            dbImage.Width,
		Height:           dbImage.Height,
		Caption:          dbImage.Caption.String,
		Position:         dbImage.Position,
		CreatedAt:        dbImage.CreatedAt,
		UpdatedAt:        dbImage.UpdatedAt,
	}
}

// populateURLs fills in the computed URL fields. URL failures are logged and
// left empty rather than failing the whole listing.
func (s *exampleImageService) populateURLs(ctx context.Context, img *domain.ExampleImage) {
	thumbURL, err := s.storage.URL(ctx, img.ThumbnailKey, 1*time.Hour)
	if err != nil {
		s.logger.Error("failed to generate thumbnail URL", "error", err, "key", img.ThumbnailKey)
	} else {
		img.ThumbnailURL = thumbURL
	}

	origURL, err := s.storage.URL(ctx, img.StorageKey, 1*time.Hour)
	if err != nil {
		s.logger.Error("failed to generate original URL", "error", err, "key", img.StorageKey)
	} else {
		img.OriginalURL = origURL
	}
}
