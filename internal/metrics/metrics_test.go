package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valueOf(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	switch {
	case pb.Counter != nil:
		return pb.Counter.GetValue()
	case pb.Gauge != nil:
		return pb.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestRecorders(t *testing.T) {
	m := New()
	m.RecordProviderCall("sealink", "search", "ok", 120*time.Millisecond)
	m.RecordCache("sealink", true)
	m.RecordCache("sealink", false)
	m.RecordCache("sealink", false)
	m.RecordHealth("makruzz", "error")
	m.RecordBooking("greenocean", "confirmed")

	assert.Equal(t, 1.0, valueOf(t, m.ProviderCalls.WithLabelValues("sealink", "search", "ok")))
	assert.Equal(t, 2.0, valueOf(t, m.CacheLookups.WithLabelValues("sealink", "miss")))
	assert.Equal(t, -1.0, valueOf(t, m.ProviderHealth.WithLabelValues("makruzz")))
	assert.Equal(t, 1.0, valueOf(t, m.Bookings.WithLabelValues("greenocean", "confirmed")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordProviderCall("x", "search", "ok", time.Second)
		m.RecordCache("x", true)
		m.RecordSearch(time.Second)
		m.RecordEvent("t", "ok")
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RecordRetry("sealink.search")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ferryhub_provider_retries_total")
}
