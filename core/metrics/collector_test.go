package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"artifact-store/core/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	c := metrics.NewCollector(metrics.Config{Enabled: true, Namespace: "test"})
	require.NotNil(t, c)

	c.ObserveAttempt("stat", metrics.OutcomeTransient, 10*time.Millisecond)
	c.ObserveAttempt("stat", metrics.OutcomeSuccess, 5*time.Millisecond)
	c.IncRetry("stat")
	c.IncExhausted("upload")

	expected := `
# HELP test_backend_retries_total Retries scheduled after a transient failure.
# TYPE test_backend_retries_total counter
test_backend_retries_total{operation="stat"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "test_backend_retries_total"))

	count, err := testutil.GatherAndCount(c.Registry(), "test_backend_attempts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCollector_Handler(t *testing.T) {
	c := metrics.NewCollector(metrics.Config{Enabled: true, Namespace: "test"})
	c.IncRetry("delete")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_backend_retries_total{operation="delete"} 1`)
}

func TestCollector_Disabled(t *testing.T) {
	c := metrics.NewCollector(metrics.Config{Enabled: false})
	assert.Nil(t, c)

	// nil collector is a no-op
	c.ObserveAttempt("stat", metrics.OutcomeSuccess, time.Second)
	c.IncRetry("stat")
	c.IncExhausted("stat")
	assert.Nil(t, c.Registry())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
