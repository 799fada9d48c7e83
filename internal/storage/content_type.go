package storage

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// =============================================================================
// Content Type Detection
// =============================================================================

// DetectContentType determines the MIME type of a file.
//
// Detection priority:
// 1. If providedType is non-empty, use it directly
// 2. Try to detect from file extension using mime.TypeByExtension
// 3. Sniff content from the first 512 bytes of data (if available)
// 4. Fall back to "application/octet-stream"
//
// Parameters:
//   - providedType: Explicitly provided content type (e.g., from HTTP header)
//   - filename: File name used to extract extension for MIME lookup
//   - data: Optional reader for content sniffing (only first 512 bytes are read)
//
// Returns the detected MIME type.
func DetectContentType(providedType, filename string, data io.Reader) string {
	// 1. Use provided type if available
	if providedType != "" {
		return providedType
	}

	// 2. Try extension-based detection
	ext := strings.ToLower(filepath.Ext(filename))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	// 3. Try content sniffing if data is available
	if data != nil {
		// Read up to 512 bytes for sniffing (http.DetectContentType requirement)
		buffer := make([]byte, 512)
		n, err := io.ReadFull(data, buffer)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			// If we can't read, fall through to default
		} else {
			// DetectContentType always returns a valid MIME type
			return http.DetectContentType(buffer[:n])
		}
	}

	// 4. Fall back to generic binary type
	return "application/octet-stream"
}

// =============================================================================
// Content Type Validation
// =============================================================================

// AllowedImageTypes defines the MIME types accepted for example image
// uploads.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true, // Some systems use this instead of image/jpeg
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsAllowedImageType checks if a content type is an allowed image format
// for example image uploads.
func IsAllowedImageType(contentType string) bool {
	// Normalize the content type (remove parameters like charset)
	baseType := strings.Split(contentType, ";")[0]
	baseType = strings.TrimSpace(strings.ToLower(baseType))
	return AllowedImageTypes[baseType]
}

// IsImage returns true if the content type is any image format.
func IsImage(contentType string) bool {
	baseType := strings.Split(contentType, ";")[0]
	baseType = strings.TrimSpace(strings.ToLower(baseType))
	return strings.HasPrefix(baseType, "image/")
}

// ExportContentType returns the MIME type for an export format ("csv" or
// "json"). Unknown formats get the generic binary type.
func ExportContentType(format string) string {
	switch strings.ToLower(format) {
	case "csv":
		return "text/csv"
	case "json":
		return "application/json"
	}
	return "application/octet-stream"
}

// =============================================================================
// File Extension Helpers
// =============================================================================

// ExtensionForContentType returns a common file extension for a MIME type.
// This is useful when generating filenames from content types.
func ExtensionForContentType(contentType string) string {
	baseType := strings.Split(contentType, ";")[0]
	baseType = strings.TrimSpace(strings.ToLower(baseType))

	// Common mappings
	extensions := map[string]string{
		"image/jpeg":       ".jpg",
		"image/jpg":        ".jpg",
		"image/png":        ".png",
		"image/gif":        ".gif",
		"image/webp":       ".webp",
		"text/csv":         ".csv",
		"application/json": ".json",
	}

	if ext, ok := extensions[baseType]; ok {
		return ext
	}

	// Fall back to using mime package's reverse lookup
	// Get all extensions for this type and return the first one
	exts, err := mime.ExtensionsByType(contentType)
	if err == nil && len(exts) > 0 {
		return exts[0]
	}

	return ".bin"
}
