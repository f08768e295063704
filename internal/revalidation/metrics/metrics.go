package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the revalidation module.
type Metrics struct {
	// Finished cycles by outcome: "completed" or "aborted"
	Cycles *prometheus.CounterVec

	// Claims re-checked by result: newly_approved, still_rejected,
	// still_not_found, cost_changed, errored
	Claims *prometheus.CounterVec

	// Full cycle duration
	CycleDuration prometheus.Histogram
}

// New creates a Metrics instance with all revalidation metrics registered.
func New() *Metrics {
	return &Metrics{
		Cycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimtrail_revalidation_cycles_total",
			Help: "Total revalidation cycles by outcome",
		}, []string{"outcome"}),

		Claims: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimtrail_revalidation_claims_total",
			Help: "Total claims re-checked by result",
		}, []string{"result"}),

		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimtrail_revalidation_cycle_duration_seconds",
			Help:    "Duration of full revalidation cycles including external lookups",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// IncrementCycle records a finished or aborted cycle.
func (m *Metrics) IncrementCycle(outcome string) {
	if m != nil {
		m.Cycles.WithLabelValues(outcome).Inc()
	}
}

// IncrementClaims records re-check results.
func (m *Metrics) IncrementClaims(result string, n int) {
	if m != nil && n > 0 {
		m.Claims.WithLabelValues(result).Add(float64(n))
	}
}

// ObserveCycleDuration records a cycle duration.
func (m *Metrics) ObserveCycleDuration(d time.Duration) {
	if m != nil {
		m.CycleDuration.Observe(d.Seconds())
	}
}
