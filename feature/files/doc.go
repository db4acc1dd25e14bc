// Package files implements the artifact operations: upload, metadata,
// download, make-public, signed GET and PUT URLs, delete, exists and list.
//
// # Keys
//
// Objects are stored under
//
//	users/{owner}/{category}/{DD-MM-YYYY}/{32 hex}{.ext}
//
// Keys are generated per upload and never reused, so they sort by day within
// a category and two uploads never collide.
//
// # Metadata
//
// original_filename, category and uploaded_at are stored as user metadata
// (x-amz-meta-*). Objects written without them read back as "unknown" and
// "uncategorized", with the last-modified time as upload time.
//
// # Errors
//
// Every operation returns either a complete result or one *storage.Error.
// Exists is the only probe that reports a missing key as a value.
package files
