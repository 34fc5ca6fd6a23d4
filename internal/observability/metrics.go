// Package observability defines the Prometheus metrics for the extraction
// pipeline and HTTP server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters and histograms recorded during extraction.
type Metrics struct {
	PointsProcessed   prometheus.Counter
	BandsSampled      prometheus.Counter
	NullCells         *prometheus.CounterVec // labels: reason={out_of_bounds,decode}
	DateParseFailures prometheus.Counter
	MatchMisses       prometheus.Counter

	RunDuration     prometheus.Histogram
	RequestDuration *prometheus.HistogramVec // labels: route
}

// New creates the metric set against the given registerer. Pass
// prometheus.DefaultRegisterer outside of tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PointsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era_extract",
			Name:      "points_processed_total",
			Help:      "Observation points carried through the pipeline.",
		}),
		BandsSampled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era_extract",
			Name:      "bands_sampled_total",
			Help:      "Raster bands read during sampling.",
		}),
		NullCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "era_extract",
			Name:      "null_cells_total",
			Help:      "Time-series entries recorded as null, by reason.",
		}, []string{"reason"}),
		DateParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era_extract",
			Name:      "date_parse_failures_total",
			Help:      "Observation dates that did not match the configured format.",
		}),
		MatchMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era_extract",
			Name:      "match_misses_total",
			Help:      "Points whose observation month falls outside the sampled range.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "era_extract",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extraction run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "era_extract",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.PointsProcessed,
		m.BandsSampled,
		m.NullCells,
		m.DateParseFailures,
		m.MatchMisses,
		m.RunDuration,
		m.RequestDuration,
	)
	return m
}
