package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ingest module.
type Metrics struct {
	// Finished batches by outcome: "completed" or "aborted"
	Batches *prometheus.CounterVec

	// Rows by classification: new, updated, duplicate, errored
	Rows *prometheus.CounterVec

	// Full batch duration
	BatchDuration prometheus.Histogram
}

// New creates a Metrics instance with all ingest metrics registered.
func New() *Metrics {
	return &Metrics{
		Batches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimtrail_ingest_batches_total",
			Help: "Total batch imports by outcome",
		}, []string{"outcome"}),

		Rows: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimtrail_ingest_rows_total",
			Help: "Total import rows by classification",
		}, []string{"classification"}),

		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimtrail_ingest_batch_duration_seconds",
			Help:    "Duration of full batch imports including external lookups",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// IncrementBatch records a finished or aborted batch.
func (m *Metrics) IncrementBatch(outcome string) {
	if m != nil {
		m.Batches.WithLabelValues(outcome).Inc()
	}
}

// IncrementRows records row classifications.
func (m *Metrics) IncrementRows(classification string, n int) {
	if m != nil && n > 0 {
		m.Rows.WithLabelValues(classification).Add(float64(n))
	}
}

// ObserveBatchDuration records a batch duration.
func (m *Metrics) ObserveBatchDuration(d time.Duration) {
	if m != nil {
		m.BatchDuration.Observe(d.Seconds())
	}
}
