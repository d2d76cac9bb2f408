package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

// Sync row outcomes.
const (
	SyncOutcomeImported = "imported"
	SyncOutcomeSkipped  = "skipped"
	SyncOutcomeFailed   = "failed"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	assignmentAttempts *prometheus.CounterVec
	syncRuns           *prometheus.CounterVec
	syncRows           *prometheus.CounterVec
	syncDuration       prometheus.Observer

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	assignedCount        uint64
	unassignedCount      uint64
	syncRunCount         uint64
	syncImportedCount    uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	assignmentAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_attempts_total",
		Help: "Teacher assignment attempts by method and result",
	}, []string{"method", "result"})

	syncRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sheet_sync_runs_total",
		Help: "Spreadsheet inbox sync runs by result",
	}, []string{"result"})

	syncRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sheet_sync_rows_total",
		Help: "Spreadsheet rows processed by outcome",
	}, []string{"outcome"})

	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sheet_sync_duration_seconds",
		Help:    "Duration of spreadsheet inbox sync runs",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 240},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		assignmentAttempts, syncRuns, syncRows, syncDuration, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		assignmentAttempts: assignmentAttempts,
		syncRuns:           syncRuns,
		syncRows:           syncRows,
		syncDuration:       syncDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordAssignment counts one assignment attempt.
func (m *MetricsService) RecordAssignment(method string, assigned bool) {
	if m == nil {
		return
	}
	result := "assigned"
	if assigned {
		atomic.AddUint64(&m.assignedCount, 1)
	} else {
		result = "unassigned"
		atomic.AddUint64(&m.unassignedCount, 1)
	}
	m.assignmentAttempts.WithLabelValues(method, result).Inc()
}

// RecordSyncRun records the outcome of one sync run.
func (m *MetricsService) RecordSyncRun(result *models.SyncResult) {
	if m == nil || result == nil {
		return
	}
	label := "success"
	if !result.Success {
		label = "failure"
	}
	m.syncRuns.WithLabelValues(label).Inc()
	m.syncRows.WithLabelValues(SyncOutcomeImported).Add(float64(result.Imported))
	m.syncRows.WithLabelValues(SyncOutcomeSkipped).Add(float64(result.Skipped))
	m.syncRows.WithLabelValues(SyncOutcomeFailed).Add(float64(result.Failed))
	if !result.FinishedAt.IsZero() && !result.StartedAt.IsZero() {
		m.syncDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	}
	atomic.AddUint64(&m.syncRunCount, 1)
	atomic.AddUint64(&m.syncImportedCount, uint64(result.Imported))
}

// Snapshot returns aggregated metrics for the JSON summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		AssignmentsMade:          atomic.LoadUint64(&m.assignedCount),
		AssignmentsFailed:        atomic.LoadUint64(&m.unassignedCount),
		SyncRuns:                 atomic.LoadUint64(&m.syncRunCount),
		SyncRowsImported:         atomic.LoadUint64(&m.syncImportedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
