package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"artifact-store/core/bucket"
	"artifact-store/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxResults is used by List when no positive limit is given.
const DefaultMaxResults = 1000

// Service implements the file operations on top of a bucket.Session.
type Service struct {
	logger        *zap.Logger
	publicBaseURL string
	now           func() time.Time

	// deleting holds keys with a delete in flight in this process.
	deleting sync.Map
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new files service. publicBaseURL prefixes public
// object URLs, see storage.Config.PublicBase.
func NewService(logger *zap.Logger, publicBaseURL string, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		logger:        logger,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublicURL returns the deterministic public address of key.
func (s *Service) PublicURL(bucketName, key string) string {
	return s.publicBaseURL + "/" + bucketName + "/" + key
}

// Upload stores the file at localPath under a freshly generated key.
// Every call creates a new object.
func (s *Service) Upload(ctx context.Context, sess bucket.Session, ownerID, category, localPath, originalFilename, contentType string) (*Metadata, error) {
	stat, err := os.Stat(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &storage.Error{Code: storage.CodeNotFound, Op: "upload", Key: localPath, Msg: "source file not found", Err: err}
		}
		return nil, &storage.Error{Code: storage.CodeInternal, Op: "upload", Key: localPath, Msg: "stat source file", Err: err}
	}
	if stat.IsDir() {
		return nil, storage.Errorf(storage.CodeValidation, "source path is a directory")
	}
	if err := ValidateUpload(contentType, stat.Size()); err != nil {
		return nil, err
	}

	now := s.now()
	key, err := generateKey(ownerID, category, originalFilename, now)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = defaultContentType
	}
	uploadedAt := now.UTC().Format(uploadedAtTimeLayout)

	opts := minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			metaOriginalFilename: originalFilename,
			metaCategory:         category,
			metaUploadedAt:       uploadedAt,
		},
	}
	info, err := bucket.Retry(ctx, sess, "upload", key, func(ctx context.Context) (minio.UploadInfo, error) {
		return sess.Client.FPutObject(ctx, sess.Bucket, key, localPath, opts)
	})
	if err != nil {
		return nil, err
	}

	size := stat.Size()
	if info.Size > 0 {
		size = info.Size
	}
	s.logger.Info("File uploaded",
		zap.String("key", key),
		zap.Int64("size", size),
		zap.String("content_type", contentType),
	)

	return &Metadata{
		Key:              key,
		OriginalFilename: originalFilename,
		ContentType:      contentType,
		Size:             size,
		Category:         category,
		UploadedAt:       uploadedAt,
		Status:           StatusUploaded,
	}, nil
}

// GetMetadata reloads the object's attributes. A missing key is NOT_FOUND.
func (s *Service) GetMetadata(ctx context.Context, sess bucket.Session, key string) (*Metadata, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	info, err := bucket.Retry(ctx, sess, "stat", key, func(ctx context.Context) (minio.ObjectInfo, error) {
		return sess.Client.StatObject(ctx, sess.Bucket, key, minio.StatObjectOptions{})
	})
	if err != nil {
		return nil, err
	}
	if info.Key == "" {
		info.Key = key
	}
	return metadataFromInfo(info, StatusExists), nil
}

// Download returns the object's metadata and its full content. Objects over
// MaxUploadBytes are PAYLOAD_TOO_LARGE; signed PUTs can store them.
func (s *Service) Download(ctx context.Context, sess bucket.Session, key string) (*Metadata, []byte, error) {
	meta, err := s.GetMetadata(ctx, sess, key)
	if err != nil {
		return nil, nil, err
	}
	if meta.Size > MaxUploadBytes {
		return nil, nil, tooLargeToDownload(key)
	}

	data, err := bucket.Retry(ctx, sess, "get", key, func(ctx context.Context) ([]byte, error) {
		obj, err := sess.Client.GetObject(ctx, sess.Bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return nil, err
		}
		defer obj.Close()
		data, err := io.ReadAll(io.LimitReader(obj, MaxUploadBytes+1))
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > MaxUploadBytes {
			return nil, tooLargeToDownload(key)
		}
		return data, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return meta, data, nil
}

// MakePublic grants public read on the single object and returns its
// metadata with the public URL. Buckets that refuse per-object ACLs answer
// BAD_REQUEST.
func (s *Service) MakePublic(ctx context.Context, sess bucket.Session, key string) (*Metadata, error) {
	meta, err := s.GetMetadata(ctx, sess, key)
	if err != nil {
		return nil, err
	}

	_, err = bucket.Retry(ctx, sess, "make_public", key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, sess.Client.SetObjectPublic(ctx, sess.Bucket, key)
	})
	if err != nil {
		return nil, err
	}

	meta.PublicURL = s.PublicURL(sess.Bucket, key)
	meta.Status = StatusPublic
	s.logger.Info("File made public", zap.String("key", key))
	return meta, nil
}

// SignGet mints a read URL valid for minutes.
func (s *Service) SignGet(ctx context.Context, sess bucket.Session, key string, minutes int) (*SignedURL, error) {
	if err := ValidateMinutes(minutes); err != nil {
		return nil, err
	}
	meta, err := s.GetMetadata(ctx, sess, key)
	if err != nil {
		return nil, err
	}

	expires := time.Duration(minutes) * time.Minute
	issued := s.now()
	u, err := bucket.Retry(ctx, sess, "sign_get", key, func(ctx context.Context) (*url.URL, error) {
		return sess.Client.PresignHeader(ctx, http.MethodGet, sess.Bucket, key, expires, nil, nil)
	})
	if err != nil {
		return nil, err
	}

	meta.Status = StatusSignedURLGenerated
	return &SignedURL{
		Metadata:         *meta,
		SignedURL:        u.String(),
		Method:           http.MethodGet,
		ExpiresAt:        issued.Add(expires).UTC(),
		ExpiresInMinutes: minutes,
	}, nil
}

// SignPut generates a destination key and mints a write URL for it. The
// signature covers Content-Type and the metadata headers, so the uploader
// has to send RequiredHeaders unchanged.
func (s *Service) SignPut(ctx context.Context, sess bucket.Session, ownerID, category, filename, contentType string, minutes int) (*UploadGrant, error) {
	if !IsAllowedContentType(contentType) {
		return nil, storage.Errorf(storage.CodeUnsupportedMediaType, "unsupported MIME type: %q", contentType)
	}
	if err := ValidateMinutes(minutes); err != nil {
		return nil, err
	}

	issued := s.now()
	key, err := generateKey(ownerID, category, filename, issued)
	if err != nil {
		return nil, err
	}
	uploadedAt := issued.UTC().Format(uploadedAtTimeLayout)

	required := map[string]string{
		"Content-Type":                              contentType,
		userMetaHeaderPrefix + metaOriginalFilename: filename,
		userMetaHeaderPrefix + metaCategory:         category,
		userMetaHeaderPrefix + metaUploadedAt:       uploadedAt,
	}
	headers := make(http.Header, len(required))
	for k, v := range required {
		headers.Set(k, v)
	}

	expires := time.Duration(minutes) * time.Minute
	u, err := bucket.Retry(ctx, sess, "sign_put", key, func(ctx context.Context) (*url.URL, error) {
		return sess.Client.PresignHeader(ctx, http.MethodPut, sess.Bucket, key, expires, nil, headers)
	})
	if err != nil {
		return nil, err
	}

	return &UploadGrant{
		Key:              key,
		SignedURL:        u.String(),
		Method:           http.MethodPut,
		ContentType:      contentType,
		OriginalFilename: filename,
		Category:         category,
		UploadedAt:       uploadedAt,
		ExpiresAt:        issued.Add(expires).UTC(),
		ExpiresInMinutes: minutes,
		RequiredHeaders:  required,
		Status:           StatusUploadURLGenerated,
	}, nil
}

// Delete removes the object and returns its metadata as it was before.
// A missing key is NOT_FOUND, including when another delete of the same key
// is already running in this process.
func (s *Service) Delete(ctx context.Context, sess bucket.Session, key string) (*Metadata, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if _, busy := s.deleting.LoadOrStore(key, struct{}{}); busy {
		return nil, &storage.Error{Code: storage.CodeNotFound, Op: "delete", Key: key, Msg: "delete already in progress"}
	}
	defer s.deleting.Delete(key)

	meta, err := s.GetMetadata(ctx, sess, key)
	if err != nil {
		return nil, err
	}

	_, err = bucket.Retry(ctx, sess, "delete", key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, sess.Client.RemoveObject(ctx, sess.Bucket, key, minio.RemoveObjectOptions{})
	})
	if err != nil {
		return nil, err
	}

	meta.Status = StatusDeleted
	s.logger.Info("File deleted", zap.String("key", key))
	return meta, nil
}

// Exists probes for key without failing when it is missing.
func (s *Service) Exists(ctx context.Context, sess bucket.Session, key string) (*ExistsResult, error) {
	meta, err := s.GetMetadata(ctx, sess, key)
	if errors.Is(err, storage.ErrNotFound) {
		return &ExistsResult{Key: key, Exists: false, Status: StatusNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ExistsResult{Key: key, Exists: true, Status: StatusExists, Metadata: meta}, nil
}

// List returns up to maxResults objects under the owner's prefix, optionally
// narrowed by category and date. There is no continuation token; callers
// that need more narrow the prefix.
func (s *Service) List(ctx context.Context, sess bucket.Session, ownerID, category, datePrefix string, maxResults int) ([]Metadata, error) {
	prefix, err := ListPrefix(ownerID, category, datePrefix)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	infos, err := bucket.Retry(ctx, sess, "list", prefix, func(ctx context.Context) ([]minio.ObjectInfo, error) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		opts := minio.ListObjectsOptions{
			Prefix:       prefix,
			Recursive:    true,
			WithMetadata: true,
			MaxKeys:      min(maxResults, DefaultMaxResults),
		}
		var out []minio.ObjectInfo
		for obj := range sess.Client.ListObjects(ctx, sess.Bucket, opts) {
			if obj.Err != nil {
				return nil, obj.Err
			}
			out = append(out, obj)
			if len(out) >= maxResults {
				break
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]Metadata, len(infos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sess.Concurrency())
	for i, info := range infos {
		if hasUserMeta(info.UserMetadata) {
			result[i] = *metadataFromInfo(info, StatusExists)
			continue
		}
		// Plain S3 listings carry no user metadata; reload it.
		g.Go(func() error {
			meta, err := s.GetMetadata(gctx, sess, info.Key)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				meta = metadataFromInfo(info, StatusExists)
			case err != nil:
				return err
			}
			result[i] = *meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func tooLargeToDownload(key string) error {
	return &storage.Error{
		Code: storage.CodePayloadTooLarge,
		Op:   "get",
		Key:  key,
		Msg:  fmt.Sprintf("object larger than %d MB", MaxUploadBytes>>20),
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return storage.Errorf(storage.CodeValidation, "key is required")
	}
	return nil
}
