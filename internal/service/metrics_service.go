package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
)

// Placement modes used as metric labels.
const (
	PlacementManual = "manual"
	PlacementAuto   = "auto"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	placements      *prometheus.CounterVec
	conflicts       *prometheus.CounterVec
	assignments     prometheus.Counter
	unplaced        prometheus.Counter
	autoDuration    prometheus.Histogram
	autoAttempts    prometheus.Histogram

	cacheHitCount  uint64
	cacheMissCount uint64
	requestCount   uint64
	placedCount    uint64
	conflictCount  uint64
	unplacedCount  uint64
}

// NewMetricsService registers the HTTP, cache and scheduling collectors.
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
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_placements_total",
		Help: "Scheduled subject blocks committed, by placement mode",
	}, []string{"mode"})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_conflicts_total",
		Help: "Rejected placements or assignments, by conflicting resource",
	}, []string{"dimension"})

	assignments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "instructor_assignments_total",
		Help: "Instructor assignments committed",
	})

	unplaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auto_schedule_unplaced_total",
		Help: "Subjects left under-scheduled by auto-schedule runs",
	})

	autoDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auto_schedule_duration_seconds",
		Help:    "Wall time of auto-schedule runs",
		Buckets: prometheus.DefBuckets,
	})

	autoAttempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auto_schedule_attempts",
		Help:    "Placement attempts per auto-schedule run",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		placements, conflicts, assignments, unplaced, autoDuration, autoAttempts, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		placements:      placements,
		conflicts:       conflicts,
		assignments:     assignments,
		unplaced:        unplaced,
		autoDuration:    autoDuration,
		autoAttempts:    autoAttempts,
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordPlacements counts committed blocks for a placement mode.
func (m *MetricsService) RecordPlacements(mode string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.placements.WithLabelValues(mode).Add(float64(count))
	atomic.AddUint64(&m.placedCount, uint64(count))
}

// RecordConflict counts a rejection on the given resource.
func (m *MetricsService) RecordConflict(dimension models.ConflictDimension) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(string(dimension)).Inc()
	atomic.AddUint64(&m.conflictCount, 1)
}

// RecordAssignment counts a committed instructor assignment.
func (m *MetricsService) RecordAssignment() {
	if m == nil {
		return
	}
	m.assignments.Inc()
}

// ObserveAutoSchedule records one auto-schedule run.
func (m *MetricsService) ObserveAutoSchedule(duration time.Duration, attempts, unplaced int) {
	if m == nil {
		return
	}
	m.autoDuration.Observe(duration.Seconds())
	m.autoAttempts.Observe(float64(attempts))
	if unplaced > 0 {
		m.unplaced.Add(float64(unplaced))
		atomic.AddUint64(&m.unplacedCount, uint64(unplaced))
	}
}

// Snapshot returns aggregated counters for the summary endpoint.
func (m *MetricsService) Snapshot() dto.MetricsSummary {
	if m == nil {
		return dto.MetricsSummary{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	return dto.MetricsSummary{
		RequestsTotal:    atomic.LoadUint64(&m.requestCount),
		CacheHits:        hits,
		CacheMisses:      misses,
		CacheHitRatio:    ratio,
		PlacementsTotal:  atomic.LoadUint64(&m.placedCount),
		ConflictsTotal:   atomic.LoadUint64(&m.conflictCount),
		UnplacedSubjects: atomic.LoadUint64(&m.unplacedCount),
		Goroutines:       runtime.NumGoroutine(),
		GeneratedAt:      time.Now().UTC(),
	}
}
