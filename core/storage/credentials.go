package storage

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// CredentialMode names where backend credentials come from.
type CredentialMode string

const (
	// CredentialsKeyfile reads a shared credentials file (local development).
	CredentialsKeyfile CredentialMode = "keyfile"
	// CredentialsStatic uses the access/secret key pair from configuration.
	CredentialsStatic CredentialMode = "static"
	// CredentialsAmbient walks the environment and instance-metadata chain.
	CredentialsAmbient CredentialMode = "ambient"
)

// CredentialMode inspects the configuration and picks the credential source.
// A keyfile wins over static keys; with neither, ambient credentials are used.
func (c Config) CredentialMode() CredentialMode {
	switch {
	case c.CredentialsFile != "":
		return CredentialsKeyfile
	case c.AccessKey != "" && c.SecretKey != "":
		return CredentialsStatic
	default:
		return CredentialsAmbient
	}
}

func minioCredentials(cfg Config, transport http.RoundTripper) *credentials.Credentials {
	switch cfg.CredentialMode() {
	case CredentialsKeyfile:
		return credentials.NewFileAWSCredentials(cfg.CredentialsFile, cfg.CredentialsProfile)
	case CredentialsStatic:
		return credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	default:
		return credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{Client: &http.Client{Transport: transport}},
		})
	}
}

func loadAWSConfig(ctx context.Context, cfg Config, httpClient *awshttp.BuildableClient) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), 1)
		}),
	}

	switch cfg.CredentialMode() {
	case CredentialsKeyfile:
		opts = append(opts, awsconfig.WithSharedCredentialsFiles([]string{cfg.CredentialsFile}))
		if cfg.CredentialsProfile != "" && cfg.CredentialsProfile != "default" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.CredentialsProfile))
		}
	case CredentialsStatic:
		opts = append(opts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	return awsconfig.LoadDefaultConfig(ctx, opts...)
}
