package storage

import (
	"strings"
	"time"
)

// Config holds configuration for the storage provider.
type Config struct {
	// Endpoint is the URL of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	// Leave empty to use the environment or instance credential chain.
	AccessKey string `mapstructure:"access_key" default:""`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:""`
	// CredentialsFile is the path to a shared credentials keyfile.
	// When set it takes precedence over every other credential source.
	CredentialsFile string `mapstructure:"credentials_file" default:""`
	// CredentialsProfile is the profile read from CredentialsFile.
	CredentialsProfile string `mapstructure:"credentials_profile" default:"default"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket is the name of the bucket holding all artifacts.
	Bucket string `mapstructure:"bucket" default:"artifacts"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:"us-east-1"`
	// PublicBaseURL is the base used to build public object URLs.
	// Defaults to the endpoint with the configured scheme.
	PublicBaseURL string `mapstructure:"public_base_url" default:""`
	// TimeoutSeconds is the per-call timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Timeout returns the per-call timeout, falling back to 30 seconds.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Scheme returns the URL scheme matching UseSSL.
func (c Config) Scheme() string {
	if c.UseSSL {
		return "https"
	}
	return "http"
}

// PublicBase returns PublicBaseURL, or the endpoint with the configured scheme.
func (c Config) PublicBase() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	endpoint := strings.TrimPrefix(c.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return c.Scheme() + "://" + strings.TrimRight(endpoint, "/")
}
