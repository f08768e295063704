// Package ingest implements batch reconciliation: one bulk import of raw
// (claim number, declared cost) rows for a tenant, reconciled against the
// stored claims and the external system.
package ingest

import (
	"time"

	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
)

// RowInput is one raw import row as received from the transport. Values
// are unparsed on purpose: normalization happens inside the service so the
// whole batch shares one validation policy.
type RowInput struct {
	Number string
	Cost   string
}

// Classification buckets a surviving row's effect on the claim set.
type Classification string

const (
	ClassificationNew       Classification = "new"
	ClassificationUpdated   Classification = "updated"
	ClassificationDuplicate Classification = "duplicate"
	ClassificationErrored   Classification = "errored"
)

// Stats are the tallies of one finished import run.
type Stats struct {
	Total     int
	New       int
	Updated   int
	Unchanged int
	Errored   int

	Approved int
	Pending  int
	Rejected int
	NotFound int
}

// BatchRecord is the immutable audit record of one finished import run
// ("carga"). It is constructed once, after the run, and persisted exactly
// once.
//
// Invariants, enforced at construction:
//   - New + Updated + Unchanged + Errored == Total
//   - Approved + Pending + Rejected + NotFound == Total - Errored
type BatchRecord struct {
	ID        domain.BatchID
	Tenant    domain.Tenant
	Source    string
	Stats     Stats
	Baseline  bool
	Actor     string
	CreatedAt time.Time
}

// NewBatchRecord validates the tallies and builds the record. A violated
// invariant is fatal: the record must not be persisted.
func NewBatchRecord(tenant domain.Tenant, source string, stats Stats,
	baseline bool, actor string, createdAt time.Time) (*BatchRecord, error) {
	if got := stats.New + stats.Updated + stats.Unchanged + stats.Errored; got != stats.Total {
		return nil, dErrors.Newf(dErrors.CodeInconsistentStats,
			"batch classifications sum to %d, expected total %d", got, stats.Total)
	}
	if got := stats.Approved + stats.Pending + stats.Rejected + stats.NotFound; got != stats.Total-stats.Errored {
		return nil, dErrors.Newf(dErrors.CodeInconsistentStats,
			"batch gradings sum to %d, expected %d", got, stats.Total-stats.Errored)
	}
	return &BatchRecord{
		ID:        domain.NewBatchID(),
		Tenant:    tenant,
		Source:    source,
		Stats:     stats,
		Baseline:  baseline,
		Actor:     actor,
		CreatedAt: createdAt,
	}, nil
}
