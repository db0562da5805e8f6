package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// enrichment pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Location resolution metrics.
	ResolveOutcomes      *prometheus.CounterVec // label: method
	GazetteerEntries     *prometheus.GaugeVec   // label: table
	GazetteerRowsSkipped *prometheus.GaugeVec   // label: table

	// Event store metrics.
	EventsStored prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crisis_etl",
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crisis_etl",
			Name:      "messages_produced_total",
			Help:      "Total messages written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crisis_etl",
			Name:      "transform_errors_total",
			Help:      "Total transformation failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crisis_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crisis_etl",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crisis_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ResolveOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crisis_etl",
			Name:      "resolve_outcomes_total",
			Help:      "Location resolutions by method tier.",
		}, []string{"method"}),
		GazetteerEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "crisis_etl",
			Name:      "gazetteer_entries",
			Help:      "Reference entries loaded per gazetteer table at startup.",
		}, []string{"table"}),
		GazetteerRowsSkipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "crisis_etl",
			Name:      "gazetteer_rows_skipped",
			Help:      "Malformed reference rows skipped per gazetteer table at startup.",
		}, []string{"table"}),
		EventsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crisis_etl",
			Name:      "events_stored_total",
			Help:      "Enriched events upserted into the local event store.",
		}),
	}
}

// NewMetrics creates all pipeline metrics and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ResolveOutcomes,
		m.GazetteerEntries,
		m.GazetteerRowsSkipped,
		m.EventsStored,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
