// Package metrics exposes Prometheus counters and histograms for backend calls.
//
// The collector owns a private registry so tests and multiple engines never
// collide on the global one. Methods are safe on a nil receiver, which is what
// NewCollector returns when metrics are disabled.
package metrics
