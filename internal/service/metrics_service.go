package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// scheduled-publish worker.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	tickDuration     prometheus.Histogram
	lessonsDue       prometheus.Counter
	lessonsPublished prometheus.Counter
	lessonsSkipped   prometheus.Counter
	tickFailures     prometheus.Counter
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

	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "publish_tick_duration_seconds",
		Help:    "Duration of scheduled-publish coordinator ticks",
		Buckets: prometheus.DefBuckets,
	})

	lessonsDue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "publish_lessons_due_total",
		Help: "Lessons claimed as due across all ticks",
	})

	lessonsPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "publish_lessons_published_total",
		Help: "Lessons published by the coordinator",
	})

	lessonsSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "publish_lessons_skipped_total",
		Help: "Due lessons deferred for unmet preconditions",
	})

	tickFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "publish_tick_failures_total",
		Help: "Coordinator ticks aborted by errors",
	})

	registry.MustRegister(requestDuration, requestTotal, tickDuration, lessonsDue, lessonsPublished, lessonsSkipped, tickFailures)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		tickDuration:     tickDuration,
		lessonsDue:       lessonsDue,
		lessonsPublished: lessonsPublished,
		lessonsSkipped:   lessonsSkipped,
		tickFailures:     tickFailures,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one request sample.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveTick records the outcome of one coordinator tick.
func (s *MetricsService) ObserveTick(duration time.Duration, due, published, skipped int) {
	s.tickDuration.Observe(duration.Seconds())
	s.lessonsDue.Add(float64(due))
	s.lessonsPublished.Add(float64(published))
	s.lessonsSkipped.Add(float64(skipped))
}

// ObserveTickFailure counts an aborted tick.
func (s *MetricsService) ObserveTickFailure() {
	s.tickFailures.Inc()
}
