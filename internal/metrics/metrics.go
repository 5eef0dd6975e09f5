// Package metrics provides Prometheus metrics for the tutor service
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the tutor.
// Record methods are no-ops on a nil *Metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Chat metrics
	ChatRequestsTotal *prometheus.CounterVec
	ChatDuration      prometheus.Histogram

	// Ingestion metrics
	IngestTotal       *prometheus.CounterVec
	IngestChunksTotal prometheus.Counter
	IngestDuration    prometheus.Histogram

	// Retrieval and collaborators
	RetrievalsTotal         prometheus.Counter
	CollaboratorErrorsTotal *prometheus.CounterVec
	SessionsActive          prometheus.Gauge
}

// New creates the metrics and registers them on reg.
// A nil registerer falls back to the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.ChatRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_chat_requests_total",
			Help: "Total number of chat turns by answering source",
		},
		[]string{"source"},
	)

	m.ChatDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tutor_chat_duration_seconds",
			Help:    "Duration of chat turns in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	m.IngestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_ingest_total",
			Help: "Total number of ingestions by status",
		},
		[]string{"status"},
	)

	m.IngestChunksTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "tutor_ingest_chunks_total",
			Help: "Total number of chunks written to the index",
		},
	)

	m.IngestDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tutor_ingest_duration_seconds",
			Help:    "Duration of ingestions in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	m.RetrievalsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "tutor_retrievals_total",
			Help: "Total number of document index queries",
		},
	)

	m.CollaboratorErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_collaborator_errors_total",
			Help: "Total number of failed collaborator calls",
		},
		[]string{"collaborator"},
	)

	m.SessionsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "tutor_sessions_active",
			Help: "Number of sessions held in memory",
		},
	)

	return m
}

// SetSessions updates the active session gauge
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// RecordRetrieval counts a document index query
func (m *Metrics) RecordRetrieval() {
	if m == nil {
		return
	}
	m.RetrievalsTotal.Inc()
}

// RecordHTTPRequest records an HTTP request with its status code
func (m *Metrics) RecordHTTPRequest(route, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordChat records a chat turn
func (m *Metrics) RecordChat(source string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ChatRequestsTotal.WithLabelValues(source).Inc()
	m.ChatDuration.Observe(duration.Seconds())
}

// RecordIngest records an ingestion
func (m *Metrics) RecordIngest(success bool, chunks int, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.IngestTotal.WithLabelValues(status).Inc()
	m.IngestChunksTotal.Add(float64(chunks))
	m.IngestDuration.Observe(duration.Seconds())
}

// RecordCollaboratorError counts a failed call to an external collaborator
func (m *Metrics) RecordCollaboratorError(collaborator string) {
	if m == nil {
		return
	}
	m.CollaboratorErrorsTotal.WithLabelValues(collaborator).Inc()
}
