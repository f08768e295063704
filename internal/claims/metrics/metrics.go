package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for claim aggregates.
type Metrics struct {
	// Versions appended by operation kind
	VersionsAppended *prometheus.CounterVec

	// Current gradings reached, by grading
	GradingsReached *prometheus.CounterVec
}

// New creates a Metrics instance with all claim metrics registered.
func New() *Metrics {
	return &Metrics{
		VersionsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimtrail_claim_versions_appended_total",
			Help: "Total claim versions appended, by operation kind",
		}, []string{"operation"}),

		GradingsReached: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimtrail_claim_gradings_total",
			Help: "Total grading outcomes applied to claims",
		}, []string{"grading"}),
	}
}

// IncrementVersions records an appended version.
func (m *Metrics) IncrementVersions(operation string) {
	if m != nil {
		m.VersionsAppended.WithLabelValues(operation).Inc()
	}
}

// IncrementGrading records a grading applied to a claim.
func (m *Metrics) IncrementGrading(grading string) {
	if m != nil {
		m.GradingsReached.WithLabelValues(grading).Inc()
	}
}
