package files

import (
	"mime"
	"strings"

	"artifact-store/core/storage"
)

// MaxUploadBytes is the largest accepted upload, inclusive.
const MaxUploadBytes int64 = 50 << 20

// MaxSignMinutes is the longest lifetime of a signed URL (seven days).
const MaxSignMinutes = 7 * 24 * 60

var allowedContentTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// normalizeContentType lowercases the media type and drops parameters.
func normalizeContentType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return strings.ToLower(contentType)
}

// IsAllowedContentType reports whether contentType is on the allow-list.
func IsAllowedContentType(contentType string) bool {
	_, ok := allowedContentTypes[normalizeContentType(contentType)]
	return ok
}

// ValidateUpload checks the size ceiling and, when a content type is given,
// the allow-list. An empty content type is accepted.
func ValidateUpload(contentType string, size int64) error {
	if size < 0 {
		return storage.Errorf(storage.CodeValidation, "size must not be negative")
	}
	if size > MaxUploadBytes {
		return storage.Errorf(storage.CodePayloadTooLarge, "file too large, max %d MB", MaxUploadBytes>>20)
	}
	if strings.TrimSpace(contentType) != "" && !IsAllowedContentType(contentType) {
		return storage.Errorf(storage.CodeUnsupportedMediaType, "unsupported MIME type: %s", contentType)
	}
	return nil
}

// ValidateMinutes checks a signed URL lifetime.
func ValidateMinutes(minutes int) error {
	if minutes < 1 || minutes > MaxSignMinutes {
		return storage.Errorf(storage.CodeValidation, "minutes must be between 1 and %d", MaxSignMinutes)
	}
	return nil
}
