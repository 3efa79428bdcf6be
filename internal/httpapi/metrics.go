package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the HTTP surface and the task
// sync core behind it.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	latency       prometheus.Histogram
	tasksAdded    prometheus.Counter
	tasksDeleted  prometheus.Counter
	subscriptions prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_http_requests_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "journal_http_request_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		tasksAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_tasks_added_total",
			Help: "Task entries created.",
		}),
		tasksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_tasks_deleted_total",
			Help: "Task entries deleted.",
		}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journal_open_subscriptions",
			Help: "Live task subscriptions currently open.",
		}),
	}

	m.registry.MustRegister(m.requests, m.latency, m.tasksAdded, m.tasksDeleted, m.subscriptions)
	return m
}

func (m *Metrics) RecordRequest(statusCode int, duration time.Duration) {
	m.requests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	m.latency.Observe(duration.Seconds())
}

func (m *Metrics) RecordTasksAdded(n int)   { m.tasksAdded.Add(float64(n)) }
func (m *Metrics) RecordTasksDeleted(n int) { m.tasksDeleted.Add(float64(n)) }
func (m *Metrics) SubscriptionOpened()      { m.subscriptions.Inc() }
func (m *Metrics) SubscriptionClosed()      { m.subscriptions.Dec() }

// Handler serves the scrape endpoint for this collector's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
