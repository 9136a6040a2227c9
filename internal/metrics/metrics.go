// Package metrics exports Prometheus collectors for the response cache, the
// upstream fetch client and the HTTP API, and adapts the first two to the
// observability hooks.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/pkgexplorer/pkg/observability"
)

var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgexplorer_cache_hits_total",
			Help: "Fresh cache entries served, by key namespace",
		},
		[]string{"namespace"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgexplorer_cache_misses_total",
			Help: "Absent, stale or unreadable cache entries, by key namespace",
		},
		[]string{"namespace"},
	)

	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgexplorer_cache_writes_total",
			Help: "Cache entries written, by key namespace",
		},
		[]string{"namespace"},
	)

	CacheWriteBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgexplorer_cache_write_bytes_total",
			Help: "Bytes written to the cache, by key namespace",
		},
		[]string{"namespace"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgexplorer_cache_errors_total",
			Help: "Swallowed store failures, by namespace and operation",
		},
		[]string{"namespace", "op"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgexplorer_upstream_requests_total",
			Help: "Upstream HTTP attempts, by host and status (or \"error\")",
		},
		[]string{"host", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pkgexplorer_upstream_request_duration_seconds",
			Help:    "Upstream HTTP attempt latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgexplorer_upstream_retries_total",
			Help: "Upstream retries scheduled, by host",
		},
		[]string{"host"},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgexplorer_api_requests_total",
			Help: "API requests served, by route and status",
		},
		[]string{"route", "status"},
	)

	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pkgexplorer_api_request_duration_seconds",
			Help:    "API request latency, by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// CacheHooks records cache events.
type CacheHooks struct{}

var _ observability.CacheHooks = CacheHooks{}

func (CacheHooks) OnCacheHit(_ context.Context, namespace string) {
	CacheHits.WithLabelValues(namespace).Inc()
}

func (CacheHooks) OnCacheMiss(_ context.Context, namespace string) {
	CacheMisses.WithLabelValues(namespace).Inc()
}

func (CacheHooks) OnCacheSet(_ context.Context, namespace string, size int) {
	CacheWrites.WithLabelValues(namespace).Inc()
	CacheWriteBytes.WithLabelValues(namespace).Add(float64(size))
}

func (CacheHooks) OnCacheError(_ context.Context, namespace, op string, _ error) {
	CacheErrors.WithLabelValues(namespace, op).Inc()
}

// HTTPHooks records upstream fetch events.
type HTTPHooks struct{}

var _ observability.HTTPHooks = HTTPHooks{}

func (HTTPHooks) OnRequest(context.Context, string, string, string) {}

func (HTTPHooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	UpstreamRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	UpstreamDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (HTTPHooks) OnError(_ context.Context, _, host, _ string, err error) {
	status := "error"
	if errors.Is(err, context.Canceled) {
		status = "canceled"
	}
	UpstreamRequests.WithLabelValues(host, status).Inc()
}

func (HTTPHooks) OnRetry(_ context.Context, host string, _ int, _ time.Duration, _ error) {
	UpstreamRetries.WithLabelValues(host).Inc()
}

// Register installs the Prometheus hooks globally.
func Register() {
	observability.SetCacheHooks(CacheHooks{})
	observability.SetHTTPHooks(HTTPHooks{})
}

// ObserveAPI records one served API request.
func ObserveAPI(route string, status int, d time.Duration) {
	APIRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	APIDuration.WithLabelValues(route).Observe(d.Seconds())
}
