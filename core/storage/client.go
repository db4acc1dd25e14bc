package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/minio/minio-go/v7"
)

// Client defines the backend capability set the access layer consumes.
// Implementations must be safe for concurrent use.
type Client interface {
	// BucketExists checks if a bucket exists.
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	// StatObject reloads an object's attributes and user metadata.
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	// FPutObject uploads the file at filePath.
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	// GetObject downloads an object.
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	// ListObjects lists objects in a bucket.
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	// RemoveObject deletes an object from a bucket.
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	// PresignHeader mints a signed URL whose signature also covers extraHeaders.
	PresignHeader(ctx context.Context, method, bucketName, objectName string, expires time.Duration, reqParams url.Values, extraHeaders http.Header) (*url.URL, error)
	// SetObjectPublic grants public-read on a single object.
	SetObjectPublic(ctx context.Context, bucketName, objectName string) error
}

// NewClient creates the backend client based on the configuration.
// Credentials are resolved according to cfg.CredentialMode.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	// Minio expects endpoint without scheme
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	transport := newTransport(cfg.Timeout())

	// Retries belong to bucket.Retry; one SDK call is one HTTP request.
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:      minioCredentials(cfg, transport),
		Secure:     cfg.UseSSL,
		Region:     cfg.Region,
		Transport:  transport,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	awsCfg, err := loadAWSConfig(ctx, cfg, newBuildableClient(cfg.Timeout()))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	aclClient := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Scheme() + "://" + endpoint)
		o.UsePathStyle = true
	})

	return &minioClientWrapper{Client: minioClient, acl: aclClient}, nil
}

// newTransport builds an HTTP transport with strict per-phase timeouts.
func newTransport(timeout time.Duration) *http.Transport {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	applyTransportTimeouts(tr, timeout)
	return tr
}

// newBuildableClient is the aws counterpart of newTransport. The SDK needs a
// BuildableClient to install a custom CA bundle (AWS_CA_BUNDLE).
func newBuildableClient(timeout time.Duration) *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = timeout
			d.KeepAlive = 30 * time.Second
		}).
		WithTransportOptions(func(tr *http.Transport) {
			applyTransportTimeouts(tr, timeout)
		})
}

func applyTransportTimeouts(tr *http.Transport, timeout time.Duration) {
	tr.ForceAttemptHTTP2 = true
	tr.MaxIdleConns = 100
	tr.IdleConnTimeout = 90 * time.Second
	tr.TLSHandshakeTimeout = timeout
	tr.ExpectContinueTimeout = 1 * time.Second
	tr.ResponseHeaderTimeout = timeout
}

// aclAPI is the slice of the aws s3 client used for object ACLs.
type aclAPI interface {
	PutObjectAcl(ctx context.Context, params *s3.PutObjectAclInput, optFns ...func(*s3.Options)) (*s3.PutObjectAclOutput, error)
}

type minioClientWrapper struct {
	*minio.Client
	acl aclAPI
}

func (c *minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucketName, objectName, opts)
}

func (c *minioClientWrapper) SetObjectPublic(ctx context.Context, bucketName, objectName string) error {
	_, err := c.acl.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectName),
		ACL:    s3types.ObjectCannedACLPublicRead,
	})
	return err
}
