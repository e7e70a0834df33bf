package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ferryhub"

// Metrics holds the service collectors. All record methods are nil-safe so
// components can run without metrics in tests.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	ProviderRetries  *prometheus.CounterVec
	ProviderHealth   *prometheus.GaugeVec

	CacheLookups   *prometheus.CounterVec
	SearchDuration prometheus.Histogram

	Bookings        *prometheus.CounterVec
	TicketArtifacts *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
	}, []string{"method", "path"})

	m.ProviderCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_calls_total",
		Help:      "Outbound provider calls by operation and outcome",
	}, []string{"provider", "op", "outcome"})

	m.ProviderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_call_duration_seconds",
		Help:      "Outbound provider call duration in seconds",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8, 12},
	}, []string{"provider", "op"})

	m.ProviderRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_retries_total",
		Help:      "Retried provider calls",
	}, []string{"label"})

	m.ProviderHealth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "provider_health",
		Help:      "Last probe result: 1 online, 0 offline, -1 error",
	}, []string{"provider"})

	m.CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Result cache lookups by provider and result",
	}, []string{"provider", "result"})

	m.SearchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Aggregated search duration in seconds",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8, 12, 15},
	})

	m.Bookings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_total",
		Help:      "Booking attempts by provider and outcome",
	}, []string{"provider", "outcome"})

	m.TicketArtifacts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticket_artifacts_total",
		Help:      "Ticket artifact handling by provider, source and outcome",
	}, []string{"provider", "source", "outcome"})

	m.EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Booking events published by topic and status",
	}, []string{"topic", "status"})

	registry.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.ProviderCalls, m.ProviderDuration, m.ProviderRetries, m.ProviderHealth,
		m.CacheLookups, m.SearchDuration,
		m.Bookings, m.TicketArtifacts, m.EventsPublished,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) RecordProviderCall(provider, op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(provider, op, outcome).Inc()
	m.ProviderDuration.WithLabelValues(provider, op).Observe(d.Seconds())
}

func (m *Metrics) RecordRetry(label string) {
	if m == nil {
		return
	}
	m.ProviderRetries.WithLabelValues(label).Inc()
}

func (m *Metrics) RecordCache(provider string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) RecordSearch(d time.Duration) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordHealth(provider, status string) {
	if m == nil {
		return
	}
	v := -1.0
	switch status {
	case "online":
		v = 1
	case "offline":
		v = 0
	}
	m.ProviderHealth.WithLabelValues(provider).Set(v)
}

func (m *Metrics) RecordBooking(provider, outcome string) {
	if m == nil {
		return
	}
	m.Bookings.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RecordArtifact(provider, source, outcome string) {
	if m == nil {
		return
	}
	m.TicketArtifacts.WithLabelValues(provider, source, outcome).Inc()
}

func (m *Metrics) RecordEvent(topic, status string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(topic, status).Inc()
}
