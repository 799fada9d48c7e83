// Package domain contains core business types and interfaces.
//
// This file defines the ExampleImage domain type: the captioned reference
// images attached to a task to show labelers what they are looking for.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Example Image Constants
// =============================================================================

// SupportedExampleImageTypes maps MIME types to their human-readable names.
var SupportedExampleImageTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
	"image/webp": "WebP",
}

const (
	// MaxExampleImageSize is the maximum allowed size for uploaded example
	// images (10MB).
	MaxExampleImageSize = 10 * 1024 * 1024

	// MaxCaptionLength is the maximum length of an example-image caption.
	MaxCaptionLength = 500

	// ThumbnailMaxWidth is the maximum width for generated thumbnails.
	ThumbnailMaxWidth = 200

	// ThumbnailMaxHeight is the maximum height for generated thumbnails.
	ThumbnailMaxHeight = 200

	// ThumbnailJPEGQuality is the JPEG quality for thumbnail generation (0-100).
	ThumbnailJPEGQuality = 85
)

// =============================================================================
// Example Image Domain Type
// =============================================================================

// ExampleImage represents a captioned example image attached to a task.
//
// The caption is the autosave target of the image-management panel: edits
// are staged in the caption controller and committed here.
type ExampleImage struct {
	ID               uuid.UUID // Unique identifier
	TaskID           uuid.UUID // Parent task
	StorageKey       string    // Key/path in storage service for original image
	ThumbnailKey     string    // Key/path in storage service for thumbnail
	OriginalFilename string    // Original filename from upload
	ContentType      string    // MIME type (e.g., "image/jpeg")
	SizeBytes        int64     // File size in bytes
	Width            int32     // Image width in pixels
	Height           int32     // Image height in pixels
	Caption          string    // Canonical caption text
	Position         int32     // Display order within the task
	CreatedAt        time.Time // When image was uploaded
	UpdatedAt        time.Time // When image was last modified

	// Computed fields (not stored in database, populated by services)
	ThumbnailURL string // Presigned/public URL for thumbnail
	OriginalURL  string // Presigned/public URL for original image
}

// SizeMB returns the file size in megabytes.
func (i *ExampleImage) SizeMB() float64 {
	return float64(i.SizeBytes) / (1024 * 1024)
}

// AspectRatio returns the aspect ratio of the image (width/height).
func (i *ExampleImage) AspectRatio() float64 {
	if i.Height == 0 {
		return 0
	}
	return float64(i.Width) / float64(i.Height)
}

// =============================================================================
// Service Parameters
// =============================================================================

// UploadExampleImageParams contains validated parameters for attaching an
// example image to a task.
type UploadExampleImageParams struct {
	TaskID           uuid.UUID // Parent task
	OriginalFilename string    // Original filename
	ContentType      string    // MIME type
	Width            int32     // Image dimensions
	Height           int32     // Image dimensions
	StorageKey       string    // Storage key for original
	ThumbnailKey     string    // Storage key for thumbnail
	SizeBytes        int64     // File size
	Caption          string    // Initial caption (may be empty)
	Position         int32     // Display order within the task
}

// =============================================================================
// Validation Helpers
// =============================================================================

// IsValidExampleImageContentType checks if the content type is supported.
func IsValidExampleImageContentType(contentType string) bool {
	_, ok := SupportedExampleImageTypes[contentType]
	return ok
}

// ValidateExampleImageSize checks if the file size is within the given
// limit. A non-positive limit falls back to MaxExampleImageSize.
// Runs before any storage or network call.
func ValidateExampleImageSize(size, limit int64) error {
	if limit <= 0 {
		limit = MaxExampleImageSize
	}
	if size > limit {
		return Errorf(ETOOLARGE, "example_image.validate",
			"Image size %d bytes exceeds maximum of %d bytes (%.1fMB)",
			size, limit, float64(limit)/(1024*1024))
	}
	if size == 0 {
		return Invalid("example_image.validate", "Image file is empty")
	}
	return nil
}

// ValidateCaption checks a caption before it is committed.
func ValidateCaption(caption string) error {
	if len(caption) > MaxCaptionLength {
		return Invalid("example_image.caption",
			fmt.Sprintf("Caption cannot exceed %d characters", MaxCaptionLength))
	}
	return nil
}

// NormalizeCaption trims surrounding whitespace without collapsing interior
// formatting the admin typed deliberately.
func NormalizeCaption(caption string) string {
	return strings.TrimSpace(caption)
}
