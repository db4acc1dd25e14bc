package bucket_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"artifact-store/core/bucket"
	"artifact-store/core/metrics"
	"artifact-store/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var unavailable = minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}

// sleepRecorder records requested backoffs instead of sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
	return ctx.Err()
}

func (s *sleepRecorder) total() time.Duration {
	var sum time.Duration
	for _, d := range s.slept {
		sum += d
	}
	return sum
}

func newTestSession(t *testing.T, cfg bucket.RetryConfig) (bucket.Session, *sleepRecorder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	rec := &sleepRecorder{}
	exec := bucket.NewExecutor(cfg, zap.New(core), nil, bucket.WithSleep(rec.sleep))
	return bucket.NewSession(nil, "artifacts", time.Second, exec), rec, logs
}

// failing returns a call that fails n times with err before succeeding.
func failing(n int, err error, calls *int32) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if int(atomic.AddInt32(calls, 1)) <= n {
			return "", err
		}
		return "ok", nil
	}
}

func TestRetry_FiveTransientFailuresThenSuccess(t *testing.T) {
	sess, rec, logs := newTestSession(t, bucket.RetryConfig{})

	var calls int32
	v, err := bucket.Retry(context.Background(), sess, "stat", "k", failing(5, unavailable, &calls))

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(6), calls)
	assert.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, rec.slept)
	assert.Equal(t, 31*time.Second, rec.total())
	assert.Equal(t, 5, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestRetry_SixTransientFailuresExhaustBudget(t *testing.T) {
	sess, rec, logs := newTestSession(t, bucket.RetryConfig{})

	var calls int32
	_, err := bucket.Retry(context.Background(), sess, "stat", "k", failing(6, unavailable, &calls))

	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Equal(t, int32(6), calls)
	assert.Len(t, rec.slept, 5)
	assert.Equal(t, 1, logs.FilterMessage("Backend retries exhausted").Len())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRetry_BackoffIsCapped(t *testing.T) {
	sess, rec, _ := newTestSession(t, bucket.RetryConfig{MaxRetries: 7})

	var calls int32
	_, err := bucket.Retry(context.Background(), sess, "stat", "k", failing(7, unavailable, &calls))

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 16 * time.Second, 16 * time.Second,
	}, rec.slept)
}

func TestRetry_TerminalErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"NotFound", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, storage.ErrNotFound},
		{"PermissionDenied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, storage.ErrPermissionDenied},
		{"BadRequest", minio.ErrorResponse{StatusCode: http.StatusBadRequest}, storage.ErrBadRequest},
		{"Validation", storage.Errorf(storage.CodeValidation, "bad"), storage.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, rec, logs := newTestSession(t, bucket.RetryConfig{})

			var calls int32
			_, err := bucket.Retry(context.Background(), sess, "stat", "k", failing(1, tt.err, &calls))

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int32(1), calls)
			assert.Empty(t, rec.slept)
			assert.Zero(t, logs.Len())
		})
	}
}

func TestRetry_UnexpectedErrorIsLoggedAndSurfaced(t *testing.T) {
	sess, rec, logs := newTestSession(t, bucket.RetryConfig{})

	var calls int32
	_, err := bucket.Retry(context.Background(), sess, "upload", "k", failing(1, errors.New("boom"), &calls))

	assert.ErrorIs(t, err, storage.ErrInternal)
	assert.Equal(t, int32(1), calls)
	assert.Empty(t, rec.slept)
	require.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Equal(t, "upload", logs.All()[0].ContextMap()["operation"])
}

func TestRetry_PanicBecomesInternal(t *testing.T) {
	sess, _, _ := newTestSession(t, bucket.RetryConfig{})

	_, err := bucket.Retry(context.Background(), sess, "stat", "k", func(ctx context.Context) (int, error) {
		panic("client exploded")
	})

	assert.ErrorIs(t, err, storage.ErrInternal)
	assert.Contains(t, err.Error(), "client exploded")
}

func TestRetry_AttemptTimeoutIsTransient(t *testing.T) {
	core, _ := observer.New(zapcore.WarnLevel)
	rec := &sleepRecorder{}
	exec := bucket.NewExecutor(bucket.RetryConfig{MaxRetries: 1}, zap.New(core), nil, bucket.WithSleep(rec.sleep))
	sess := bucket.NewSession(nil, "artifacts", 10*time.Millisecond, exec)

	var calls int32
	_, err := bucket.Retry(context.Background(), sess, "stat", "k", func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(2), calls)
	assert.Len(t, rec.slept, 1)
}

func TestRetry_CallerCancelStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, _ := observer.New(zapcore.WarnLevel)
	var sleeps int
	exec := bucket.NewExecutor(bucket.RetryConfig{}, zap.New(core), nil, bucket.WithSleep(func(ctx context.Context, d time.Duration) error {
		sleeps++
		cancel()
		return ctx.Err()
	}))
	sess := bucket.NewSession(nil, "artifacts", time.Second, exec)

	var calls int32
	_, err := bucket.Retry(ctx, sess, "stat", "k", failing(10, unavailable, &calls))

	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls)
	assert.Equal(t, 1, sleeps)
}

func TestRetry_ZeroSession(t *testing.T) {
	_, err := bucket.Retry(context.Background(), bucket.Session{}, "stat", "k", func(ctx context.Context) (int, error) {
		return 1, nil
	})
	assert.ErrorIs(t, err, storage.ErrInternal)
}

func TestRetry_RecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector(metrics.Config{Enabled: true, Namespace: "test"})
	rec := &sleepRecorder{}
	exec := bucket.NewExecutor(bucket.RetryConfig{}, zap.NewNop(), collector, bucket.WithSleep(rec.sleep))
	sess := bucket.NewSession(nil, "artifacts", time.Second, exec)

	var calls int32
	_, err := bucket.Retry(context.Background(), sess, "stat", "k", failing(2, unavailable, &calls))
	require.NoError(t, err)

	expected := `
# HELP test_backend_attempts_total Backend call attempts by operation and outcome.
# TYPE test_backend_attempts_total counter
test_backend_attempts_total{operation="stat",outcome="success"} 1
test_backend_attempts_total{operation="stat",outcome="transient"} 2
# HELP test_backend_retries_total Retries scheduled after a transient failure.
# TYPE test_backend_retries_total counter
test_backend_retries_total{operation="stat"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected),
		"test_backend_attempts_total", "test_backend_retries_total"))
}

func TestBlocking_DoesNotRetry(t *testing.T) {
	sess, rec, logs := newTestSession(t, bucket.RetryConfig{})

	var calls int32
	_, err := bucket.Blocking(context.Background(), sess, "bucket_exists", "artifacts", failing(1, unavailable, &calls))

	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Equal(t, int32(1), calls)
	assert.Empty(t, rec.slept)
	assert.Zero(t, logs.Len())

	v, err := bucket.Blocking(context.Background(), sess, "bucket_exists", "artifacts", failing(0, nil, &calls))
	assert.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestBlocking_LogsUnexpected(t *testing.T) {
	sess, _, logs := newTestSession(t, bucket.RetryConfig{})

	_, err := bucket.Blocking(context.Background(), sess, "stat", "k", func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})

	assert.ErrorIs(t, err, storage.ErrInternal)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}
