package files

import (
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// Status annotates what an operation did to the object.
type Status string

const (
	StatusUploaded           Status = "uploaded"
	StatusExists             Status = "exists"
	StatusNotFound           Status = "not_found"
	StatusPublic             Status = "public"
	StatusSignedURLGenerated Status = "signed_url_generated"
	StatusUploadURLGenerated Status = "upload_url_generated"
	StatusDeleted            Status = "deleted"
)

// User metadata keys stored with every object.
const (
	metaOriginalFilename = "original_filename"
	metaCategory         = "category"
	metaUploadedAt       = "uploaded_at"

	userMetaHeaderPrefix = "x-amz-meta-"
)

// Fallbacks for objects written without user metadata.
const (
	unknownFilename      = "unknown"
	uncategorized        = "uncategorized"
	defaultContentType   = "application/octet-stream"
	uploadedAtTimeLayout = time.RFC3339
)

// Metadata describes a stored object.
type Metadata struct {
	Key              string `json:"key"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
	Category         string `json:"category"`
	UploadedAt       string `json:"uploaded_at"`
	PublicURL        string `json:"public_url,omitempty"`
	Status           Status `json:"status"`
}

// SignedURL is a time-boxed read grant for an existing object.
type SignedURL struct {
	Metadata
	SignedURL        string    `json:"signed_url"`
	Method           string    `json:"method"`
	ExpiresAt        time.Time `json:"expires_at"`
	ExpiresInMinutes int       `json:"expires_in_minutes"`
}

// UploadGrant is a time-boxed write grant for a key that does not exist yet.
// The uploader must send RequiredHeaders exactly; the signature covers them.
type UploadGrant struct {
	Key              string            `json:"key"`
	SignedURL        string            `json:"signed_url"`
	Method           string            `json:"method"`
	ContentType      string            `json:"content_type"`
	OriginalFilename string            `json:"original_filename"`
	Category         string            `json:"category"`
	UploadedAt       string            `json:"uploaded_at"`
	ExpiresAt        time.Time         `json:"expires_at"`
	ExpiresInMinutes int               `json:"expires_in_minutes"`
	RequiredHeaders  map[string]string `json:"required_headers"`
	Status           Status            `json:"status"`
}

// ExistsResult is the answer of the non-failing existence probe.
type ExistsResult struct {
	Key      string    `json:"key"`
	Exists   bool      `json:"exists"`
	Status   Status    `json:"status"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// userMeta looks a key up case-insensitively; backends canonicalize header
// names (Original_filename) on the way back.
func userMeta(meta minio.StringMap, name string) (string, bool) {
	if v, ok := meta[name]; ok {
		return v, true
	}
	for k, v := range meta {
		if strings.EqualFold(k, name) || strings.EqualFold(k, userMetaHeaderPrefix+name) {
			return v, true
		}
	}
	return "", false
}

// hasUserMeta reports whether the listing entry carries our metadata at all.
func hasUserMeta(meta minio.StringMap) bool {
	_, ok := userMeta(meta, metaCategory)
	return ok
}

// metadataFromInfo assembles Metadata from backend attributes, substituting
// "unknown" and "uncategorized" for missing fields and the last-modified
// time for a missing upload time.
func metadataFromInfo(info minio.ObjectInfo, status Status) *Metadata {
	m := &Metadata{
		Key:              info.Key,
		OriginalFilename: unknownFilename,
		ContentType:      info.ContentType,
		Size:             info.Size,
		Category:         uncategorized,
		Status:           status,
	}

	if v, ok := userMeta(info.UserMetadata, metaOriginalFilename); ok && v != "" {
		m.OriginalFilename = v
	}
	if v, ok := userMeta(info.UserMetadata, metaCategory); ok && v != "" {
		m.Category = v
	}
	if v, ok := userMeta(info.UserMetadata, metaUploadedAt); ok && v != "" {
		m.UploadedAt = v
	} else if !info.LastModified.IsZero() {
		m.UploadedAt = info.LastModified.UTC().Format(uploadedAtTimeLayout)
	}
	if m.ContentType == "" {
		if v, ok := userMeta(info.UserMetadata, "content-type"); ok && v != "" {
			m.ContentType = v
		} else {
			m.ContentType = defaultContentType
		}
	}
	return m
}
