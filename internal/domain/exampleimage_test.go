package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateExampleImageSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		limit    int64
		wantCode string
	}{
		{"small file", 1024, MaxExampleImageSize, ""},
		{"exactly at limit", MaxExampleImageSize, MaxExampleImageSize, ""},
		{"one byte over", MaxExampleImageSize + 1, MaxExampleImageSize, ETOOLARGE},
		{"custom limit", 2048, 1024, ETOOLARGE},
		{"zero limit uses default", 1024, 0, ""},
		{"empty file", 0, MaxExampleImageSize, EINVALID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExampleImageSize(tt.size, tt.limit)
			if tt.wantCode == "" {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantCode, ErrorCode(err))
			}
		})
	}
}

func TestIsValidExampleImageContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/gif", true},
		{"image/webp", true},
		{"image/tiff", false},
		{"application/pdf", false},
		{"video/mp4", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidExampleImageContentType(tt.contentType))
		})
	}
}

func TestValidateCaption(t *testing.T) {
	assert.NoError(t, ValidateCaption(""))
	assert.NoError(t, ValidateCaption(strings.Repeat("a", MaxCaptionLength)))

	err := ValidateCaption(strings.Repeat("a", MaxCaptionLength+1))
	assert.Equal(t, EINVALID, ErrorCode(err))
}

func TestNormalizeCaption(t *testing.T) {
	assert.Equal(t, "a worn bearing", NormalizeCaption("  a worn bearing \n"))
	assert.Equal(t, "line 1\nline 2", NormalizeCaption("line 1\nline 2"),
		"interior formatting is preserved")
}

func TestExampleImage_SizeMB(t *testing.T) {
	img := &ExampleImage{SizeBytes: 5 * 1024 * 1024}
	assert.InDelta(t, 5.0, img.SizeMB(), 0.001)
}
