package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
)

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for the ops endpoint.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	generationDuration *prometheus.HistogramVec
	generationTotal    *prometheus.CounterVec
	lessonsPlaced      prometheus.Counter
	lessonConflicts    prometheus.Counter

	cacheHitCount           uint64
	cacheMissCount          uint64
	requestCount            uint64
	requestDurationTotal    uint64
	generationCount         uint64
	generationDurationTotal uint64
	lessonsPlacedCount      uint64
	conflictCount           uint64
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

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of timetable generation runs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"outcome"})

	generationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generations_total",
		Help: "Total timetable generation runs by outcome",
	}, []string{"outcome"})

	lessonsPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_lessons_placed_total",
		Help: "Total lessons placed across generation runs",
	})

	lessonConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_conflicts_total",
		Help: "Total unplaceable lessons reported across generation runs",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHitRatio, cacheHits, cacheMisses, generationDuration, generationTotal, lessonsPlaced, lessonConflicts, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		generationDuration: generationDuration,
		generationTotal:    generationTotal,
		lessonsPlaced:      lessonsPlaced,
		lessonConflicts:    lessonConflicts,
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
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordGeneration records one solver run.
func (m *MetricsService) RecordGeneration(outcome string, duration time.Duration, placed, conflicts int) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.generationTotal.WithLabelValues(outcome).Inc()
	m.lessonsPlaced.Add(float64(placed))
	m.lessonConflicts.Add(float64(conflicts))
	atomic.AddUint64(&m.generationCount, 1)
	atomic.AddUint64(&m.generationDurationTotal, uint64(duration.Nanoseconds()))
	atomic.AddUint64(&m.lessonsPlacedCount, uint64(placed))
	atomic.AddUint64(&m.conflictCount, uint64(conflicts))
}

// Snapshot returns aggregated metrics for the ops endpoint.
func (m *MetricsService) Snapshot() dto.SystemMetrics {
	if m == nil {
		return dto.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	generations := atomic.LoadUint64(&m.generationCount)
	genDuration := atomic.LoadUint64(&m.generationDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	var avgGenerationMs float64
	if generations > 0 {
		avgGenerationMs = float64(genDuration) / float64(generations) / float64(time.Millisecond)
	}

	return dto.SystemMetrics{
		RequestCount:       requests,
		AvgRequestMs:       avgRequestMs,
		CacheHitRatio:      cacheRatio,
		GenerationCount:    generations,
		AvgGenerationMs:    avgGenerationMs,
		LessonsPlacedTotal: atomic.LoadUint64(&m.lessonsPlacedCount),
		ConflictsTotal:     atomic.LoadUint64(&m.conflictCount),
		Goroutines:         runtime.NumGoroutine(),
	}
}
