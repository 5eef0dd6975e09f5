package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordChatAndIngest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordChat("document", 120*time.Millisecond)
	m.RecordChat("document", 80*time.Millisecond)
	m.RecordChat("error", time.Second)
	m.RecordIngest(true, 12, 2*time.Second)
	m.RecordIngest(false, 0, time.Second)
	m.RecordCollaboratorError("llm")
	m.RecordRetrieval()
	m.SetSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("document")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues("error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.IngestChunksTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CollaboratorErrorsTotal.WithLabelValues("llm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetrievalsTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsActive))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordChat("general", time.Millisecond)
		m.RecordIngest(true, 1, time.Millisecond)
		m.RecordHTTPRequest("/chat", "200", time.Millisecond)
		m.RecordCollaboratorError("search")
		m.RecordRetrieval()
		m.SetSessions(1)
	})
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
