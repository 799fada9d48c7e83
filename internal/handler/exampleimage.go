// Package handler contains HTTP handlers for the labeling admin service.
//
// This file implements the example image endpoints of the task wizard's
// image-management panel, including the caption autosave paths: keystroke
// edits stage into the debounced controller, blur flushes immediately, and
// delete discards the staged buffer so no commit can fire for a dead record.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/labelstack/labeladmin/internal/autosave"
	"github.com/labelstack/labeladmin/internal/domain"
	"github.com/labelstack/labeladmin/internal/metrics"
	"github.com/labelstack/labeladmin/internal/service"
)

// =============================================================================
// Caption Autosave Wiring
// =============================================================================

// NewCaptionController builds the autosave controller for example-image
// captions. Field ids are image UUIDs; commits go through the image service
// so caption validation and the deleted-record NotFound mapping apply to the
// debounced path exactly as they do to an explicit flush.
func NewCaptionController(images service.ExampleImageService, delay time.Duration, logger *slog.Logger) (*autosave.Controller, error) {
	return autosave.New(autosave.Config{
		Delay:  delay,
		Logger: logger,
		Commit: func(ctx context.Context, fieldID, value string) error {
			imageID, err := uuid.Parse(fieldID)
			if err != nil {
				return domain.Invalid("caption.commit", "Invalid image ID")
			}
			_, err = images.UpdateCaption(ctx, imageID, value)
			if err != nil {
				metrics.CaptionCommits.WithLabelValues("error").Inc()
				return err
			}
			metrics.CaptionCommits.WithLabelValues("success").Inc()
			return nil
		},
	})
}

// =============================================================================
// Request / Response Types
// =============================================================================

// captionRequest is the JSON payload of a caption edit.
type captionRequest struct {
	Caption string `json:"caption"`
}

// exampleImageResponse is the JSON shape of an example image in the gallery.
// Caption is the effective value: the staged local edit while one exists,
// otherwise the canonical stored caption.
type exampleImageResponse struct {
	ID               uuid.UUID `json:"id"`
	TaskID           uuid.UUID `json:"task_id"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	SizeBytes        int64     `json:"size_bytes"`
	Width            int32     `json:"width"`
	Height           int32     `json:"height"`
	Caption          string    `json:"caption"`
	CaptionDirty     bool      `json:"caption_dirty"`
	CaptionError     string    `json:"caption_error,omitempty"`
	Position         int32     `json:"position"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty"`
	OriginalURL      string    `json:"original_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// =============================================================================
// Handler Configuration
// =============================================================================

// ExampleImageHandler handles example image HTTP requests.
type ExampleImageHandler struct {
	images   service.ExampleImageService
	captions *autosave.Controller
	logger   *slog.Logger
}

// NewExampleImageHandler creates a new ExampleImageHandler.
func NewExampleImageHandler(
	images service.ExampleImageService,
	captions *autosave.Controller,
	logger *slog.Logger,
) *ExampleImageHandler {
	return &ExampleImageHandler{
		images:   images,
		captions: captions,
		logger:   logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all example image routes with the provided mux.
//
// Routes:
// - POST   /api/tasks/{id}/examples          -> Upload
// - GET    /api/tasks/{id}/examples          -> List
// - PATCH  /api/examples/{id}/caption        -> EditCaption (keystroke path)
// - POST   /api/examples/{id}/caption/flush  -> FlushCaption (blur path)
// - DELETE /api/examples/{id}                -> Delete
func (h *ExampleImageHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("POST /api/tasks/{id}/examples", requireUser(http.HandlerFunc(h.Upload)))
	mux.Handle("GET /api/tasks/{id}/examples", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("PATCH /api/examples/{id}/caption", requireUser(http.HandlerFunc(h.EditCaption)))
	mux.Handle("POST /api/examples/{id}/caption/flush", requireUser(http.HandlerFunc(h.FlushCaption)))
	mux.Handle("DELETE /api/examples/{id}", requireUser(http.HandlerFunc(h.Delete)))
}

// =============================================================================
// POST /api/tasks/{id}/examples - Upload Example Image
// =============================================================================

// Upload handles a multipart example image upload.
func (h *ExampleImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("example_image.upload", "Invalid task ID"))
		return
	}

	// Parse multipart form (32MB memory limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("example_image.upload", "Failed to parse multipart form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("example_image.upload", "No image file provided"))
		return
	}
	defer file.Close()

	caption := r.FormValue("caption")

	image, err := h.images.Upload(r.Context(), file, header, taskID, caption)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.ExampleImagesUploaded.Inc()

	writeJSON(w, http.StatusCreated, h.toResponse(image))
}

// =============================================================================
// GET /api/tasks/{id}/examples - List Gallery
// =============================================================================

// List returns the task's example images in display order. Captions reflect
// staged autosave edits so the gallery never shows a value the admin's edit
// has already superseded.
func (h *ExampleImageHandler) List(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("example_image.list", "Invalid task ID"))
		return
	}

	images, err := h.images.ListByTask(r.Context(), taskID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	responses := make([]exampleImageResponse, len(images))
	for i := range images {
		responses[i] = h.toResponse(&images[i])
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"images": responses,
	})
}

// =============================================================================
// PATCH /api/examples/{id}/caption - Stage Caption Edit
// =============================================================================

// EditCaption is the keystroke path: the new caption is staged in the
// autosave controller and the debounce timer restarts. Nothing is persisted
// here; the commit fires when the timer expires or the blur flush arrives.
func (h *ExampleImageHandler) EditCaption(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("caption.edit", "Invalid image ID"))
		return
	}

	var req captionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("caption.edit", "Invalid JSON body"))
		return
	}

	h.captions.Change(imageID.String(), req.Caption)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"caption": req.Caption,
		"dirty":   true,
	})
}

// =============================================================================
// POST /api/examples/{id}/caption/flush - Commit Caption Now
// =============================================================================

// FlushCaption is the blur path: the staged caption is committed immediately,
// beating any pending debounce timer. A failed commit keeps the staged value
// so the admin's text is not lost.
func (h *ExampleImageHandler) FlushCaption(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("caption.flush", "Invalid image ID"))
		return
	}

	if err := h.captions.Flush(r.Context(), imageID.String()); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dirty": h.captions.IsDirty(imageID.String()),
	})
}

// =============================================================================
// DELETE /api/examples/{id} - Delete Example Image
// =============================================================================

// Delete removes an example image. The staged caption buffer is discarded
// first so no autosave commit can fire against the deleted record.
func (h *ExampleImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("example_image.delete", "Invalid image ID"))
		return
	}

	h.captions.Discard(imageID.String())

	if err := h.images.Delete(r.Context(), imageID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helper Functions
// =============================================================================

// toResponse builds the gallery shape for one image, overlaying the staged
// caption state from the autosave controller.
func (h *ExampleImageHandler) toResponse(img *domain.ExampleImage) exampleImageResponse {
	fieldID := img.ID.String()

	resp := exampleImageResponse{
		ID:               img.ID,
		TaskID:           img.TaskID,
		OriginalFilename: img.OriginalFilename,
		ContentType:      img.ContentType,
		SizeBytes:        img.SizeBytes,
		Width:            img.Width,
		Height:           img.Height,
		Caption:          h.captions.DisplayValue(fieldID, img.Caption),
		CaptionDirty:     h.captions.IsDirty(fieldID),
		Position:         img.Position,
		ThumbnailURL:     img.ThumbnailURL,
		OriginalURL:      img.OriginalURL,
		CreatedAt:        img.CreatedAt,
	}
	if err := h.captions.Err(fieldID); err != nil {
		resp.CaptionError = domain.ErrorMessage(err)
	}
	return resp
}
