package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for a single backend attempt.
const (
	OutcomeSuccess   = "success"
	OutcomeTransient = "transient"
	OutcomeTerminal  = "terminal"
	OutcomeInternal  = "internal"
)

// Collector records backend call metrics on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	attempts  *prometheus.CounterVec
	retries   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	exhausted *prometheus.CounterVec
}

// NewCollector creates a collector. It returns nil when metrics are disabled.
func NewCollector(cfg Config) *Collector {
	if !cfg.Enabled {
		return nil
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "backend_attempts_total",
			Help:      "Backend call attempts by operation and outcome.",
		}, []string{"operation", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "backend_retries_total",
			Help:      "Retries scheduled after a transient failure.",
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "backend_attempt_duration_seconds",
			Help:      "Latency of a single backend attempt.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		exhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "backend_retries_exhausted_total",
			Help:      "Calls that ran out of retry budget.",
		}, []string{"operation"}),
	}

	c.registry.MustRegister(c.attempts, c.retries, c.duration, c.exhausted)
	return c
}

// ObserveAttempt records one attempt and its latency.
func (c *Collector) ObserveAttempt(op, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.attempts.WithLabelValues(op, outcome).Inc()
	c.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// IncRetry records a scheduled retry.
func (c *Collector) IncRetry(op string) {
	if c == nil {
		return
	}
	c.retries.WithLabelValues(op).Inc()
}

// IncExhausted records a call that gave up after the last retry.
func (c *Collector) IncExhausted(op string) {
	if c == nil {
		return
	}
	c.exhausted.WithLabelValues(op).Inc()
}

// Registry exposes the private registry, mostly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
