package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by the
// API server and the CSV load job.
type Metrics struct {
	// API metrics.
	HTTPRequests    *prometheus.CounterVec   // labels: route, status
	RequestDuration *prometheus.HistogramVec // labels: route
	QueryErrors     prometheus.Counter

	// Load job metrics.
	RowsLoaded            *prometheus.CounterVec // labels: table={stations,observations}
	RowsSkipped           prometheus.Counter
	LoadBatchSize         prometheus.Histogram
	LoadBatchDuration     prometheus.Histogram
	LoaderRunning         prometheus.Gauge
	ObservationsPublished prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.HTTPRequests,
		m.RequestDuration,
		m.QueryErrors,
		m.RowsLoaded,
		m.RowsSkipped,
		m.LoadBatchSize,
		m.LoadBatchDuration,
		m.LoaderRunning,
		m.ObservationsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hawaii_climate",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hawaii_climate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request handling duration by route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"route"}),
		QueryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hawaii_climate",
			Name:      "query_errors_total",
			Help:      "Total store query failures surfaced to API clients.",
		}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hawaii_climate",
			Name:      "rows_loaded_total",
			Help:      "Rows inserted into the store, by table.",
		}, []string{"table"}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hawaii_climate",
			Name:      "rows_skipped_total",
			Help:      "CSV rows skipped because they failed to parse.",
		}),
		LoadBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hawaii_climate",
			Name:      "load_batch_size",
			Help:      "Number of CSV rows per batch extracted by the loader.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		LoadBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hawaii_climate",
			Name:      "load_batch_duration_seconds",
			Help:      "Duration of a complete batch extract-parse-insert cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		LoaderRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hawaii_climate",
			Name:      "loader_running",
			Help:      "1 while the load job is active, 0 otherwise.",
		}),
		ObservationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hawaii_climate",
			Name:      "observations_published_total",
			Help:      "Observations published to the Kafka sink topic.",
		}),
	}
}
