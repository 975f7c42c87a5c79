package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// optimization engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	schedulesTotal  *prometheus.CounterVec
	optimizeLatency prometheus.Observer
	recommendTotal  prometheus.Counter
	retrainTotal    prometheus.Counter
}

// NewMetricsService registers the core Prometheus collectors.
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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	schedulesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedules_generated_total",
		Help: "Total schedules generated, labelled by feasibility",
	}, []string{"feasible"})

	optimizeLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_optimization_seconds",
		Help:    "Duration of schedule optimization runs",
		Buckets: prometheus.DefBuckets,
	})

	recommendTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommendations_served_total",
		Help: "Total recommendation queries served",
	})

	retrainTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommender_retrains_total",
		Help: "Total recommendation model rebuilds",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses,
		schedulesTotal, optimizeLatency, recommendTotal, retrainTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		schedulesTotal:  schedulesTotal,
		optimizeLatency: optimizeLatency,
		recommendTotal:  recommendTotal,
		retrainTotal:    retrainTotal,
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

// ObserveHTTPRequest records per-route request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation counts cache lookups.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveScheduleGeneration records one optimizer run.
func (m *MetricsService) ObserveScheduleGeneration(feasible bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.schedulesTotal.WithLabelValues(fmt.Sprintf("%t", feasible)).Inc()
	m.optimizeLatency.Observe(duration.Seconds())
}

// RecordRecommendation counts recommendation queries served.
func (m *MetricsService) RecordRecommendation() {
	if m == nil {
		return
	}
	m.recommendTotal.Inc()
}

// RecordRetrain counts recommendation model rebuilds.
func (m *MetricsService) RecordRetrain() {
	if m == nil {
		return
	}
	m.retrainTotal.Inc()
}
