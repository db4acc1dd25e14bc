package bucket

import (
	"time"

	"artifact-store/core/storage"
)

// Session bundles the shared client, the target bucket and the per-call
// timeout. It is a value: copy it freely, never mutate it.
type Session struct {
	Client  storage.Client
	Bucket  string
	Timeout time.Duration

	exec *Executor
}

// NewSession builds a session outside of an Engine, e.g. in tests.
func NewSession(client storage.Client, bucket string, timeout time.Duration, exec *Executor) Session {
	return Session{Client: client, Bucket: bucket, Timeout: timeout, exec: exec}
}

// Concurrency reports how many backend calls the session's pool runs at once.
func (s Session) Concurrency() int {
	if s.exec == nil {
		return 1
	}
	return s.exec.pool.Size()
}
