package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	lockAcquired    prometheus.Counter
	lockContention  prometheus.Counter
	exportJobs      *prometheus.CounterVec
}

// NewMetricsService registers the service collectors on a fresh registry.
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

	lockAcquired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "record_locks_acquired_total",
		Help: "Total record locks granted",
	})

	lockContention := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "record_lock_contention_total",
		Help: "Total lock requests rejected because another user held the lock",
	})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "export_jobs_total",
		Help: "Total export jobs by terminal status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, lockAcquired, lockContention, exportJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		lockAcquired:    lockAcquired,
		lockContention:  lockContention,
		exportJobs:      exportJobs,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveRequest records one completed HTTP request.
func (s *MetricsService) ObserveRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// LockAcquired counts a granted record lock.
func (s *MetricsService) LockAcquired() {
	s.lockAcquired.Inc()
}

// LockContended counts a lock request that hit a foreign holder.
func (s *MetricsService) LockContended() {
	s.lockContention.Inc()
}

// ExportJobFinished counts a job reaching a terminal status.
func (s *MetricsService) ExportJobFinished(status string) {
	s.exportJobs.WithLabelValues(status).Inc()
}
