package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. Each instance owns its
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	MeasurementsTotal *prometheus.CounterVec
	CacheLookupsTotal *prometheus.CounterVec
	ScanDuration      prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		MeasurementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imghead_measurements_total",
				Help: "Header probes by detected format and outcome",
			},
			[]string{"format", "result"},
		),

		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imghead_cache_lookups_total",
				Help: "Measurement cache lookups",
			},
			[]string{"result"},
		),

		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "imghead_scan_duration_seconds",
				Help:    "Library scan duration",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
			},
		),
	}

	m.registry.MustRegister(
		m.MeasurementsTotal,
		m.CacheLookupsTotal,
		m.ScanDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordMeasurement counts one probe. result is a short reason label such
// as "ok" or "short_read".
func (m *Metrics) RecordMeasurement(format, result string) {
	if m == nil {
		return
	}
	m.MeasurementsTotal.WithLabelValues(format, result).Inc()
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveScan(seconds float64) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(seconds)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
