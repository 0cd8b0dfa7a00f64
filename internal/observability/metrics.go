package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "accident_weather"

// Metrics holds the Prometheus counters, histograms, and gauges for analysis runs.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: kind={events,conditions,monthly}
	RunErrors       *prometheus.CounterVec // labels: kind
	AccidentsLoaded prometheus.Counter
	EventsLoaded    prometheus.Counter

	// Join metrics.
	Matches        prometheus.Counter
	SkippedRecords *prometheus.CounterVec // labels: record={accident,event}, reason
	JoinDuration   prometheus.Histogram
	IndexBuilds    *prometheus.CounterVec // labels: strategy={linear,vptree}

	// Report sinks.
	ReportsWritten *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all analysis metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunErrors,
		m.AccidentsLoaded,
		m.EventsLoaded,
		m.Matches,
		m.SkippedRecords,
		m.JoinDuration,
		m.IndexBuilds,
		m.ReportsWritten,
	)
	return m
}

// NewDiscardMetrics returns collectors registered with no registry. Components
// built without a Metrics count into it and nothing is exported.
func NewDiscardMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Analysis runs by report kind.",
		}, []string{"kind"}),
		RunErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_errors_total",
			Help:      "Analysis runs that failed, by report kind.",
		}, []string{"kind"}),
		AccidentsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accidents_loaded_total",
			Help:      "Total accident records read from the accident source.",
		}),
		EventsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_loaded_total",
			Help:      "Total weather events read from the event source.",
		}),
		Matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Total accidents matched to a weather event.",
		}),
		SkippedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_records_total",
			Help:      "Records excluded from a join by record kind and reason.",
		}, []string{"record", "reason"}),
		JoinDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "join_duration_seconds",
			Help:      "Duration of a complete accident to weather-event join.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		IndexBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Spatial index builds by strategy.",
		}, []string{"strategy"}),
		ReportsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_written_total",
			Help:      "Reports delivered by sink.",
		}, []string{"sink"}),
	}
}
