package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_reading"

// Metrics holds the Prometheus collectors for the publish path.
type Metrics struct {
	ObservationsReceived prometheus.Counter
	ReportsPublished     prometheus.Counter
	ObservationsRejected *prometheus.CounterVec // labels: reason={invalid_measurement,malformed,unknown}
	LoadFailures         prometheus.Counter
	SinkReady            prometheus.Gauge

	BatchSize       prometheus.Histogram
	PublishDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ObservationsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_received_total",
			Help:      "Total observations submitted for publishing.",
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Total reports written to the sink.",
		}),
		ObservationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_rejected_total",
			Help:      "Observations that did not produce a report, by reason.",
		}, []string{"reason"}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Sink write attempts that failed.",
		}),
		SinkReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sink_ready",
			Help:      "1 when the last sink write succeeded, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of reports per sink write.",
			Buckets:   []float64{1, 5, 10, 20, 50, 100, 250, 500, 1000},
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Duration of a complete parse-build-load cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ObservationsReceived,
		m.ReportsPublished,
		m.ObservationsRejected,
		m.LoadFailures,
		m.SinkReady,
		m.BatchSize,
		m.PublishDuration,
	}
}
