// Package service contains business logic for the labeling admin service.
//
// This file implements thumbnail generation for uploaded example images.
package service

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/labelstack/labeladmin/internal/domain"

	// Register the WebP decoder. JPEG, PNG and GIF are registered by the
	// imaging library itself.
	_ "golang.org/x/image/webp"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ThumbnailProcessor handles thumbnail generation from images.
type ThumbnailProcessor interface {
	// GenerateThumbnail creates a thumbnail from the provided image data.
	// Returns the thumbnail bytes (as JPEG), original width, and original height.
	// The thumbnail will fit within maxWidth x maxHeight while preserving aspect ratio.
	GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error)
}

// =============================================================================
// Implementation
// =============================================================================

// imagingProcessor implements ThumbnailProcessor using the imaging library.
type imagingProcessor struct{}

// NewImagingProcessor creates a new thumbnail processor using the imaging library.
func NewImagingProcessor() ThumbnailProcessor {
	return &imagingProcessor{}
}

// GenerateThumbnail creates a thumbnail from the provided image data.
//
// The thumbnail is resized to fit within maxWidth x maxHeight while preserving
// the original aspect ratio. Animated GIFs are flattened to their first frame.
// The output is always JPEG format.
//
// Returns:
//   - thumbnail bytes (JPEG format)
//   - original image width
//   - original image height
//   - error if generation fails
func (p *imagingProcessor) GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error) {
	// Decode the image
	img, _, err := image.Decode(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	// Get original dimensions
	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	// Resize to fit within maxWidth x maxHeight while preserving aspect ratio
	thumbnail := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	// Encode thumbnail as JPEG
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG, imaging.JPEGQuality(domain.ThumbnailJPEGQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), originalWidth, originalHeight, nil
}
