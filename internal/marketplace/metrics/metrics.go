// Package metrics exposes Prometheus collectors for the marketplace.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thewillhuang/middleman/internal/models"
)

// Manager owns the marketplace collectors and the registry they live in.
type Manager struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	transitions         *prometheus.CounterVec
	reviews             *prometheus.CounterVec
}

// NewManager registers every collector on a fresh registry, together with the
// Go runtime and process collectors.
func NewManager(namespace string) *Manager {
	if namespace == "" {
		namespace = "middleman"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(reg)

	return &Manager{
		registry: reg,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		transitions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "transitions_total",
			Help:      "Task status transition attempts by origin, target and outcome.",
		}, []string{"from", "to", "outcome"}),
		reviews: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reviews",
			Name:      "submissions_total",
			Help:      "Review submissions by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Manager) Transition(from, to models.TaskStatus, outcome string) {
	m.transitions.WithLabelValues(string(from), string(to), outcome).Inc()
}

func (m *Manager) Review(kind models.ReviewKind, outcome string) {
	m.reviews.WithLabelValues(string(kind), outcome).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Manager) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, mainly for tests.
func (m *Manager) Gatherer() prometheus.Gatherer {
	return m.registry
}
