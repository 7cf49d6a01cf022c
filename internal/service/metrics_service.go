package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-academic-core/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and academic workloads.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	groupsCreated     prometheus.Counter
	assignments       *prometheus.CounterVec
	allocationRetries prometheus.Counter
	sessionsGenerated prometheus.Counter
	sessionsSkipped   prometheus.Counter
	sessionsPurged    prometheus.Counter
	jobDuration       *prometheus.HistogramVec
}

// NewMetricsService registers the collectors on a private registry.
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

	groupsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "class_groups_created_total",
		Help: "Class groups created by the allocator",
	})

	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "class_assignments_total",
		Help: "Student class-group assignments by outcome",
	}, []string{"status"})

	allocationRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_retries_total",
		Help: "Allocations retried after a unique constraint conflict",
	})

	sessionsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "class_sessions_generated_total",
		Help: "Class sessions created or overwritten by generation runs",
	})

	sessionsSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "class_sessions_skipped_total",
		Help: "Existing class sessions left untouched by generation runs",
	})

	sessionsPurged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "class_sessions_purged_total",
		Help: "Class sessions removed by retention",
	})

	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobs_duration_seconds",
		Help:    "Duration of background jobs",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, groupsCreated, assignments, allocationRetries,
		sessionsGenerated, sessionsSkipped, sessionsPurged, jobDuration, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		groupsCreated:     groupsCreated,
		assignments:       assignments,
		allocationRetries: allocationRetries,
		sessionsGenerated: sessionsGenerated,
		sessionsSkipped:   sessionsSkipped,
		sessionsPurged:    sessionsPurged,
		jobDuration:       jobDuration,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordGroupCreated counts an allocator-created class group.
func (m *MetricsService) RecordGroupCreated() {
	if m == nil {
		return
	}
	m.groupsCreated.Inc()
}

// RecordAssignment counts an assignment outcome.
func (m *MetricsService) RecordAssignment(status models.AssignmentStatus) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(string(status)).Inc()
}

// RecordAllocationRetry counts a retried allocation.
func (m *MetricsService) RecordAllocationRetry() {
	if m == nil {
		return
	}
	m.allocationRetries.Inc()
}

// RecordGeneration adds the counts of a committed generation run.
func (m *MetricsService) RecordGeneration(generated, skipped int) {
	if m == nil {
		return
	}
	m.sessionsGenerated.Add(float64(generated))
	m.sessionsSkipped.Add(float64(skipped))
}

// RecordPurge adds the number of sessions removed by retention.
func (m *MetricsService) RecordPurge(deleted int64) {
	if m == nil {
		return
	}
	m.sessionsPurged.Add(float64(deleted))
}

// ObserveJob records the duration of a background job.
func (m *MetricsService) ObserveJob(kind string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.jobDuration.WithLabelValues(kind, outcome).Observe(duration.Seconds())
}
