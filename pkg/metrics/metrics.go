// Package metrics provides Prometheus metrics for the compliance service
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ComplianceChecksTotal *prometheus.CounterVec
	ResolutionsTotal      *prometheus.CounterVec

	EmbeddingCallsTotal *prometheus.CounterVec
	CompletionCalls     *prometheus.CounterVec

	RegenerationsTotal   *prometheus.CounterVec
	RegenerationDuration prometheus.Histogram

	RegistryCodes   prometheus.Gauge
	IndexedPassages prometheus.Gauge
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hs_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hs_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.ComplianceChecksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hs_compliance_checks_total",
			Help: "Compliance decisions by tier and outcome",
		},
		[]string{"tier", "allowed"},
	)

	m.ResolutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hs_resolutions_total",
			Help: "Item name resolutions by matching tier",
		},
		[]string{"tier"},
	)

	m.EmbeddingCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hs_embedding_calls_total",
			Help: "Embedding collaborator calls by status",
		},
		[]string{"status"},
	)

	m.CompletionCalls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hs_completion_calls_total",
			Help: "Text completion calls by purpose and status",
		},
		[]string{"purpose", "status"},
	)

	m.RegenerationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hs_regenerations_total",
			Help: "Knowledge rebuilds by trigger and status",
		},
		[]string{"trigger", "status"},
	)

	m.RegenerationDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hs_regeneration_duration_seconds",
			Help:    "Duration of knowledge rebuilds in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	m.RegistryCodes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "hs_registry_codes",
			Help: "Number of codes in the active registry",
		},
	)

	m.IndexedPassages = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "hs_indexed_passages",
			Help: "Number of embedded passages in the active index",
		},
	)

	return m
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) RecordCheck(tier string, allowed bool) {
	if m == nil {
		return
	}
	m.ComplianceChecksTotal.WithLabelValues(tier, strconv.FormatBool(allowed)).Inc()
}

func (m *Metrics) RecordResolution(tier string) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(tier).Inc()
}

func (m *Metrics) RecordEmbedding(err error) {
	if m == nil {
		return
	}
	m.EmbeddingCallsTotal.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) RecordCompletion(purpose string, err error) {
	if m == nil {
		return
	}
	m.CompletionCalls.WithLabelValues(purpose, status(err)).Inc()
}

func (m *Metrics) RecordRegeneration(trigger string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.RegenerationsTotal.WithLabelValues(trigger, status(err)).Inc()
	m.RegenerationDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetSnapshotSize(codes, passages int) {
	if m == nil {
		return
	}
	m.RegistryCodes.Set(float64(codes))
	m.IndexedPassages.Set(float64(passages))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
