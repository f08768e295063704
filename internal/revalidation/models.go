// Package revalidation implements the periodic re-check of non-terminal
// claims against the external system.
package revalidation

import (
	"time"

	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
)

// CycleRecord is the immutable audit record of one finished periodic run.
//
// Invariants, enforced at construction:
//   - NewlyApproved + StillRejected + StillNotFound <= Processed
//   - FinishedAt >= StartedAt
type CycleRecord struct {
	ID     domain.CycleID
	Tenant *domain.Tenant // nil = global run

	Processed     int
	NewlyApproved int
	StillRejected int
	StillNotFound int
	CostChanges   int

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewCycleRecord validates the tallies and builds the record.
func NewCycleRecord(tenant *domain.Tenant, processed, newlyApproved, stillRejected,
	stillNotFound, costChanges int, startedAt, finishedAt time.Time) (*CycleRecord, error) {
	if newlyApproved+stillRejected+stillNotFound > processed {
		return nil, dErrors.Newf(dErrors.CodeInconsistentStats,
			"cycle outcome counts %d exceed processed %d",
			newlyApproved+stillRejected+stillNotFound, processed)
	}
	if finishedAt.Before(startedAt) {
		return nil, dErrors.New(dErrors.CodeInconsistentStats, "cycle finished before it started")
	}
	return &CycleRecord{
		ID:            domain.NewCycleID(),
		Tenant:        tenant,
		Processed:     processed,
		NewlyApproved: newlyApproved,
		StillRejected: stillRejected,
		StillNotFound: stillNotFound,
		CostChanges:   costChanges,
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
	}, nil
}

// Duration derives the cycle length.
func (r *CycleRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ShouldNotify is the policy signal for the notification collaborator:
// anything newly released or any cost movement is worth telling a human
// about.
func (r *CycleRecord) ShouldNotify() bool {
	return r.NewlyApproved > 0 || r.CostChanges > 0
}
