// Package metrics defines the Prometheus metrics exposed on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// registerOnce ensures Register() is idempotent.
var registerOnce sync.Once

var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beatdrop_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency in seconds.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beatdrop_http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// StreamedBytes counts media bytes delivered by the audio endpoint,
	// split by backend so local/remote traffic can be told apart.
	StreamedBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beatdrop_streamed_bytes_total",
			Help: "Audio bytes streamed to clients",
		},
		[]string{"backend"},
	)

	// UploadsTotal counts persisted track uploads by outcome.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beatdrop_uploads_total",
			Help: "Track upload attempts",
		},
		[]string{"outcome"},
	)
)

// Register installs all metrics into the default registry.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			StreamedBytes,
			UploadsTotal,
		)
	})
}
