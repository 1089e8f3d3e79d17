package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the agent.
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    prometheus.Counter
	segmentOpsTotal  prometheus.Counter
	trimCommitsTotal prometheus.Counter
	seeksTotal       prometheus.Counter
	submissionsTotal prometheus.Counter
	activeSessions   prometheus.Gauge
	errorsTotal      prometheus.Counter
}

// New creates and registers Prometheus metrics for the agent.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stepcut_requests_total",
		Help: "Total number of HTTP requests received",
	})
	segmentOpsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stepcut_segment_ops_total",
		Help: "Total number of segment mutations (add, delete, mark, navigate, reset)",
	})
	trimCommitsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stepcut_trim_commits_total",
		Help: "Total number of committed trim operations",
	})
	seeksTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stepcut_seeks_total",
		Help: "Total number of seeks issued through the seek queue",
	})
	submissionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stepcut_submissions_total",
		Help: "Total number of drafts submitted to the cloud",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stepcut_active_sessions",
		Help: "Number of open editor sessions",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stepcut_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		segmentOpsTotal,
		trimCommitsTotal,
		seeksTotal,
		submissionsTotal,
		activeSessions,
		errorsTotal,
	)

	return &Metrics{
		registry:         registry,
		requestsTotal:    requestsTotal,
		segmentOpsTotal:  segmentOpsTotal,
		trimCommitsTotal: trimCommitsTotal,
		seeksTotal:       seeksTotal,
		submissionsTotal: submissionsTotal,
		activeSessions:   activeSessions,
		errorsTotal:      errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncSegmentOps increments the segment mutation counter.
func (m *Metrics) IncSegmentOps() {
	m.segmentOpsTotal.Inc()
}

// IncTrimCommits increments the committed trim counter.
func (m *Metrics) IncTrimCommits() {
	m.trimCommitsTotal.Inc()
}

// AddSeeks adds to the seek counter from the queue's running total.
func (m *Metrics) AddSeeks(n int64) {
	m.seeksTotal.Add(float64(n))
}

// IncSubmissions increments the cloud submission counter.
func (m *Metrics) IncSubmissions() {
	m.submissionsTotal.Inc()
}

// SetActiveSessions sets the open session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// RequestMiddleware counts requests and error responses.
func (m *Metrics) RequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.IncRequests()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		if sw.status >= 400 {
			m.IncErrors()
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
