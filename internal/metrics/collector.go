package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reader metrics
	LinesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxylens_lines_read_total",
			Help: "Raw log lines returned by the bounded reader",
		},
		[]string{"mode"},
	)
	ReadTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proxylens_read_timeouts_total",
			Help: "Reads abandoned because they exceeded the read timeout",
		},
	)
	SandboxRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proxylens_sandbox_rejections_total",
			Help: "Paths rejected because they resolve outside the log directory",
		},
	)

	// Parser metrics
	LinesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxylens_lines_dropped_total",
			Help: "Lines that did not match the parser grammar",
		},
		[]string{"parser"},
	)

	// Operation metrics
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proxylens_operation_duration_seconds",
			Help:    "Latency of log query and analytics operations",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"operation"},
	)
	OperationPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxylens_operation_panics_total",
			Help: "Operations that recovered from an unexpected panic and returned an empty result",
		},
		[]string{"operation"},
	)
)

var (
	// HTTP API metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxylens_http_requests_total",
			Help: "HTTP API requests by status code and method",
		},
		[]string{"code", "method"},
	)
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proxylens_http_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"code", "method"},
	)
)

// ObserveSince records the elapsed time of op. Use as `defer metrics.ObserveSince("trend", time.Now())`.
// ObserveSince 记录操作耗时。
func ObserveSince(op string, start time.Time) {
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
