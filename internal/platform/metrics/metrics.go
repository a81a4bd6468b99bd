// Package metrics exposes Prometheus collectors for reviews, background
// tasks and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vocabweave"

// Metrics holds every collector the application records to.
type Metrics struct {
	registry *prometheus.Registry

	reviews        *prometheus.CounterVec
	stabilityAfter prometheus.Histogram
	tasks          *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	generatedItems prometheus.Counter
}

var _ task.Observer = (*Metrics)(nil)

// New creates a Metrics with its own registry. Go runtime and process
// collectors are registered alongside the application's.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Graded reviews by grade.",
		}, []string{"grade"}),
		stabilityAfter: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "review_stability_days",
			Help:      "Item stability after a review, in days.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64, 128, 365, 1825},
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Finished background tasks by type and status.",
		}, []string{"type", "status"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Background task execution time.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		generatedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_items_total",
			Help:      "Vocabulary items stored from generation requests.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reviews,
		m.stabilityAfter,
		m.tasks,
		m.taskDuration,
		m.httpRequests,
		m.httpDuration,
		m.generatedItems,
	)

	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ReviewRecorded counts a graded review.
func (m *Metrics) ReviewRecorded(grade domain.Grade, stability float64) {
	m.reviews.WithLabelValues(grade.String()).Inc()
	m.stabilityAfter.Observe(stability)
}

// ItemsGenerated counts items stored by a generation task.
func (m *Metrics) ItemsGenerated(n int) {
	m.generatedItems.Add(float64(n))
}

// TaskFinished implements task.Observer.
func (m *Metrics) TaskFinished(taskType string, status task.TaskStatus, d time.Duration) {
	m.tasks.WithLabelValues(taskType, string(status)).Inc()
	m.taskDuration.WithLabelValues(taskType).Observe(d.Seconds())
}

// Middleware records request count and latency. Routes are labelled with
// the chi route pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
