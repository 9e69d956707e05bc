package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses that returned a result.
	OutcomeSuccess = "success"
	// OutcomeError labels analyses that failed.
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gosurv",
			Name:      "analyses_total",
			Help:      "Total number of survival analyses run, partitioned by analysis and outcome.",
		},
		[]string{"analysis", "outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gosurv",
			Name:      "analysis_seconds",
			Help:      "Analysis latency in seconds, including plotting.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"analysis"},
	)

	datasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gosurv",
			Name:      "dataset_rows",
			Help:      "Number of rows in the served dataset.",
		},
	)
)

// Register attaches gosurv collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		datasetRows,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and its outcome.
func ObserveAnalysis(analysis string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	analysesTotal.WithLabelValues(analysis, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.WithLabelValues(analysis).Observe(duration.Seconds())
}

// SetDatasetRows records the size of the loaded dataset.
func SetDatasetRows(n int) {
	datasetRows.Set(float64(n))
}
