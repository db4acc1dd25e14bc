package bucket

import (
	"context"
	"errors"
	"time"

	"artifact-store/core/metrics"
	"artifact-store/core/storage"

	"go.uber.org/zap"
)

// errNoExecutor is returned for a zero Session.
var errNoExecutor = &storage.Error{Code: storage.CodeInternal, Msg: "session has no executor"}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor runs backend calls on a bounded pool with classification-aware retries.
type Executor struct {
	cfg     RetryConfig
	pool    *Pool
	logger  *zap.Logger
	metrics *metrics.Collector
	sleep   SleepFunc
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSleep replaces the timer-based backoff sleep.
func WithSleep(fn SleepFunc) ExecutorOption {
	return func(e *Executor) {
		e.sleep = fn
	}
}

// NewExecutor creates an executor. logger and collector may be nil.
func NewExecutor(cfg RetryConfig, logger *zap.Logger, collector *metrics.Collector, opts ...ExecutorOption) *Executor {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Executor{
		cfg:     cfg,
		pool:    NewPool(cfg.Workers),
		logger:  logger,
		metrics: collector,
		sleep:   sleepTimer,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective retry configuration.
func (e *Executor) Config() RetryConfig {
	return e.cfg
}

func sleepTimer(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry runs fn with the session timeout per attempt. Transient failures are
// retried up to MaxRetries times with a doubling, capped backoff; the last
// transient error is returned once the budget is spent. Expected failures
// (not found, permission denied, bad request, validation) return on first
// sight. Anything unclassified is logged at error level and returned as is.
func Retry[T any](ctx context.Context, sess Session, op, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	e := sess.exec
	if e == nil {
		return zero, errNoExecutor
	}

	backoff := e.cfg.InitialBackoff
	for attempt := 0; ; attempt++ {
		v, err := runAttempt(ctx, e, sess, op, key, fn)
		if err == nil {
			return v, nil
		}

		code := storage.CodeOf(err)
		if code.Expected() {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, abandoned(ctx, op, key, err)
		}
		if !code.Transient() {
			e.logger.Error("Unexpected backend error",
				zap.String("operation", op),
				zap.String("key", key),
				zap.Error(err),
			)
			return zero, err
		}

		if attempt >= e.cfg.MaxRetries {
			e.logger.Warn("Backend retries exhausted",
				zap.String("operation", op),
				zap.String("key", key),
				zap.Int("retries", attempt),
				zap.Error(err),
			)
			e.metrics.IncExhausted(op)
			return zero, err
		}

		e.logger.Warn("Transient backend error, retrying",
			zap.String("operation", op),
			zap.String("key", key),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		e.metrics.IncRetry(op)

		if sleepErr := e.sleep(ctx, backoff); sleepErr != nil {
			return zero, abandoned(ctx, op, key, err)
		}
		backoff = min(backoff*2, e.cfg.MaxBackoff)
	}
}

// Blocking runs a single call on the pool with the session timeout and
// classification but without retries.
func Blocking[T any](ctx context.Context, sess Session, op, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	e := sess.exec
	if e == nil {
		return zero, errNoExecutor
	}

	v, err := runAttempt(ctx, e, sess, op, key, fn)
	if err != nil && storage.CodeOf(err) == storage.CodeInternal && ctx.Err() == nil {
		e.logger.Error("Unexpected backend error",
			zap.String("operation", op),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return v, err
}

func runAttempt[T any](ctx context.Context, e *Executor, sess Session, op, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := Submit(ctx, e.pool, func() (T, error) {
		callCtx := ctx
		if sess.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, sess.Timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	err = storage.Classify(op, key, err)
	e.metrics.ObserveAttempt(op, outcome(err), time.Since(start))
	return v, err
}

// abandoned reports a call whose caller stopped waiting.
func abandoned(ctx context.Context, op, key string, last error) error {
	return &storage.Error{
		Code: storage.CodeUnavailable,
		Op:   op,
		Key:  key,
		Msg:  "caller gave up",
		Err:  errors.Join(ctx.Err(), last),
	}
}

func outcome(err error) string {
	code := storage.CodeOf(err)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case code.Transient():
		return metrics.OutcomeTransient
	case code.Expected():
		return metrics.OutcomeTerminal
	default:
		return metrics.OutcomeInternal
	}
}
