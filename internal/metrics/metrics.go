// Package metrics provides Prometheus instrumentation for the dashboard.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether metrics are enabled.
package metrics

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lineowners"

// Metrics holds the Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	events         *prometheus.CounterVec
	filterDuration *prometheus.HistogramVec
	filteredRows   prometheus.Histogram
	exports        *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter
	sessionsExpire prometheus.Counter
	datasetRows    prometheus.Gauge
}

// New registers every collector on a fresh registry. If enabled is false,
// it returns nil (no-op metrics).
func New(enabled bool) *Metrics {
	if !enabled {
		return nil
	}

	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_events_total",
			Help:      "Filter engine events by event name and published update kind.",
		}, []string{"event", "update"}),
		filterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_event_duration_seconds",
			Help:      "Time to apply one engine event, including any filter pass.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"filtered"}),
		filteredRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_rows",
			Help:      "Rows left after each filter pass.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Spreadsheet exports by format and result.",
		}, []string{"format", "result"}),
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Time to serialize an export.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Live filter sessions.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Filter sessions created.",
		}),
		sessionsExpire: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Filter sessions removed after the idle TTL.",
		}),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the loaded dataset.",
		}),
	}

	reg.MustRegister(
		m.events,
		m.filterDuration,
		m.filteredRows,
		m.exports,
		m.exportDuration,
		m.sessionsActive,
		m.sessionsTotal,
		m.sessionsExpire,
		m.datasetRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe implements core.Observer.
func (m *Metrics) Observe(st core.EventStats) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(st.Event, st.Kind.String()).Inc()
	filtered := "false"
	if st.Filtered {
		filtered = "true"
		m.filteredRows.Observe(float64(st.Rows))
	}
	m.filterDuration.WithLabelValues(filtered).Observe(st.Duration.Seconds())
}

// RecordExport counts one export attempt.
func (m *Metrics) RecordExport(format string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.exports.WithLabelValues(format, result).Inc()
	m.exportDuration.WithLabelValues(format).Observe(d.Seconds())
}

// SetDatasetRows records the loaded dataset size.
func (m *Metrics) SetDatasetRows(n int) {
	if m == nil {
		return
	}
	m.datasetRows.Set(float64(n))
}

// SessionCreated implements session.Recorder.
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsTotal.Inc()
}

// SessionsExpired implements session.Recorder.
func (m *Metrics) SessionsExpired(n int) {
	if m == nil {
		return
	}
	m.sessionsExpire.Add(float64(n))
}

// SetActiveSessions implements session.Recorder.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format. A nil Metrics
// serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
