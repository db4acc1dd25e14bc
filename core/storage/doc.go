// Package storage provides the backend abstraction for the artifact store.
//
// It wraps the MinIO Go client for the data plane (stat, upload, download, list,
// delete, presign) and an aws-sdk-go-v2 S3 client for per-object ACLs, behind a
// single Client interface. This supports AWS S3, self-hosted MinIO and any other
// S3-compatible service.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Credentials
//
// Config.CredentialMode picks one of:
//   - keyfile: a shared credentials file (STORAGE_CREDENTIALS_FILE)
//   - static: STORAGE_ACCESS_KEY / STORAGE_SECRET_KEY
//   - ambient: environment variables, then instance metadata
//
// # Errors
//
// Every backend failure is turned into a *Error by Classify. The Code of the
// error decides whether it is retried (CodeUnavailable) or surfaced as is.
//
//	if errors.Is(err, storage.ErrNotFound) {
//	    // object is gone
//	}
package storage
