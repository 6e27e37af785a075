// Package metrics provides Prometheus instrumentation for the betlog services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LookupFailures counts failed source lookups during a dashboard refresh, by lookup.
	LookupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betlog_lookup_failures_total",
		Help: "Source lookups that failed and were replaced by defaults",
	}, []string{"lookup"})

	// RefreshDuration tracks how long a full dashboard refresh takes.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "betlog_refresh_duration_seconds",
		Help:    "Dashboard refresh latency in seconds",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	// FilterConflicts counts refreshes whose filters did not overlap.
	FilterConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betlog_filter_conflicts_total",
		Help: "Refreshes published in the conflict state",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betlog_cache_hits_total",
		Help: "Redis cache hits by entry kind",
	}, []string{"kind"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betlog_cache_misses_total",
		Help: "Redis cache misses by entry kind",
	}, []string{"kind"})

	// SyncRequests counts sync requests by source (manual, schedule) and outcome.
	SyncRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betlog_sync_requests_total",
		Help: "Sync requests by source and outcome",
	}, []string{"source", "outcome"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betlog_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "betlog_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
