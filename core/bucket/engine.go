package bucket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"artifact-store/core/storage"

	"go.uber.org/zap"
)

// ErrEngineNotStarted is returned by Engine.Session before a successful Start.
var ErrEngineNotStarted = errors.New("bucket: engine not started")

// ClientFactory builds the backend client during Start.
type ClientFactory func(ctx context.Context, cfg storage.Config) (storage.Client, error)

// Option configures an Engine.
type Option func(*Engine)

// WithClientFactory replaces storage.NewClient.
func WithClientFactory(f ClientFactory) Option {
	return func(e *Engine) {
		e.newClient = f
	}
}

// Engine owns the backend client. It is initialized at most once; a failed
// Start leaves it uninitialized so a later call can try again.
type Engine struct {
	cfg       storage.Config
	exec      *Executor
	logger    *zap.Logger
	newClient ClientFactory

	mu      sync.Mutex
	started atomic.Bool
	client  storage.Client
}

// NewEngine creates an engine. Nothing touches the network until Start.
func NewEngine(cfg storage.Config, exec *Executor, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exec == nil {
		exec = NewExecutor(RetryConfig{}, logger, nil)
	}

	e := &Engine{
		cfg:       cfg,
		exec:      exec,
		logger:    logger,
		newClient: storage.NewClient,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start connects to the backend and probes the bucket once.
// It returns a CodeFatalInit error when the client cannot be built, the probe
// fails, or the bucket does not exist. The probe is not retried.
func (e *Engine) Start(ctx context.Context) error {
	if e.started.Load() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started.Load() {
		return nil
	}

	client, err := e.newClient(ctx, e.cfg)
	if err != nil {
		return &storage.Error{Code: storage.CodeFatalInit, Op: "start", Msg: "create client", Err: err}
	}

	sess := NewSession(client, e.cfg.Bucket, e.cfg.Timeout(), e.exec)
	exists, err := Blocking(ctx, sess, "bucket_exists", e.cfg.Bucket, func(ctx context.Context) (bool, error) {
		return client.BucketExists(ctx, e.cfg.Bucket)
	})
	if err != nil {
		return &storage.Error{Code: storage.CodeFatalInit, Op: "start", Key: e.cfg.Bucket, Msg: "probe bucket", Err: err}
	}
	if !exists {
		return &storage.Error{Code: storage.CodeFatalInit, Op: "start", Key: e.cfg.Bucket, Msg: "bucket does not exist"}
	}

	e.client = client
	e.started.Store(true)

	e.logger.Info("Storage engine started",
		zap.String("endpoint", e.cfg.Endpoint),
		zap.String("bucket", e.cfg.Bucket),
		zap.String("credentials", string(e.cfg.CredentialMode())),
	)
	return nil
}

// Started reports whether Start has completed successfully.
func (e *Engine) Started() bool {
	return e.started.Load()
}

// Session returns a session over the shared client.
func (e *Engine) Session() (Session, error) {
	if !e.started.Load() {
		return Session{}, ErrEngineNotStarted
	}
	return NewSession(e.client, e.cfg.Bucket, e.cfg.Timeout(), e.exec), nil
}

// Config returns the storage configuration the engine was built with.
func (e *Engine) Config() storage.Config {
	return e.cfg
}
