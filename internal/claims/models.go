// Package claims holds the claim aggregate: the current reconciliation
// state of one expediente plus its append-only version trail.
package claims

import (
	"time"

	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
)

// OperationKind tags what a version records.
type OperationKind string

const (
	OperationCreation     OperationKind = "creation"
	OperationCostUpdate   OperationKind = "cost_update"
	OperationReevaluation OperationKind = "periodic_reevaluation"
)

// ActorKind tags which process produced a version.
type ActorKind string

const (
	ActorBatchImport ActorKind = "batch_import"
	ActorPeriodicJob ActorKind = "periodic_job"
)

// Version is one immutable entry in a claim's trail. Versions are created
// only by the aggregate commands, never mutated, never deleted, and never
// referenced outside their parent claim.
type Version struct {
	ID          domain.VersionID
	Seq         int
	PrevCost    *domain.Money // nil on creation
	NewCost     domain.Money
	PrevGrading *domain.Grading // nil on creation
	NewGrading  domain.Grading
	Reason      string
	Operation   OperationKind
	Actor       ActorKind
	CreatedAt   time.Time
}

// Claim is the aggregate root. Identity is (Tenant, Number); that pair is
// unique among live claims.
//
// Invariants:
//   - The version trail is append-only and at least one long after creation.
//   - CurrentCost/CurrentGrading/CurrentReason always equal those of the
//     last version.
//   - All mutation goes through NewClaim, UpdateCost, and Reevaluate;
//     the versions slice is unexported so no caller can edit the trail.
//   - An approved claim is closed to the periodic path: Reevaluate refuses
//     it. Only a fresh batch declaration, through UpdateCost, may change it
//     again.
type Claim struct {
	ID             domain.ClaimID
	Tenant         domain.Tenant
	Number         domain.ClaimNumber
	CurrentCost    domain.Money
	CurrentGrading domain.Grading
	CurrentReason  string
	FirstSeen      time.Time
	LastUpdated    time.Time

	versions []Version
}

// NewClaim builds a claim on first sighting of a number for a tenant,
// with exactly one creation version. The batch import path is the only
// creator of claims.
func NewClaim(tenant domain.Tenant, number domain.ClaimNumber, cost domain.Money,
	grading domain.Grading, reason string, now time.Time) *Claim {
	c := &Claim{
		ID:             domain.NewClaimID(),
		Tenant:         tenant,
		Number:         number,
		CurrentCost:    cost,
		CurrentGrading: grading,
		CurrentReason:  reason,
		FirstSeen:      now,
		LastUpdated:    now,
	}
	c.versions = append(c.versions, Version{
		ID:         domain.NewVersionID(),
		Seq:        1,
		NewCost:    cost,
		NewGrading: grading,
		Reason:     reason,
		Operation:  OperationCreation,
		Actor:      ActorBatchImport,
		CreatedAt:  now,
	})
	return c
}

// Rehydrate rebuilds an aggregate from persisted state. Stores own the
// ordering guarantee: versions must arrive sorted by Seq.
func Rehydrate(id domain.ClaimID, tenant domain.Tenant, number domain.ClaimNumber,
	cost domain.Money, grading domain.Grading, reason string,
	firstSeen, lastUpdated time.Time, versions []Version) *Claim {
	return &Claim{
		ID:             id,
		Tenant:         tenant,
		Number:         number,
		CurrentCost:    cost,
		CurrentGrading: grading,
		CurrentReason:  reason,
		FirstSeen:      firstSeen,
		LastUpdated:    lastUpdated,
		versions:       versions,
	}
}

// UpdateCost applies a new cost figure with its computed grading. It is the
// only path allowed to change a claim's cost.
//
// Returns CodeNoChange when both cost and grading match the current state;
// callers treat that as a no-op, not a failure. Otherwise it appends a
// version (cost_update when the cost moved, periodic_reevaluation when only
// the grading did) and updates the current fields atomically.
func (c *Claim) UpdateCost(newCost domain.Money, newGrading domain.Grading,
	reason string, actor ActorKind, now time.Time) error {
	costChanged := !c.CurrentCost.Equals(newCost)
	gradingChanged := c.CurrentGrading != newGrading
	if !costChanged && !gradingChanged {
		return dErrors.New(dErrors.CodeNoChange, "cost and grading are unchanged")
	}

	operation := OperationReevaluation
	if costChanged {
		operation = OperationCostUpdate
	}
	c.append(newCost, newGrading, reason, operation, actor, now)
	return nil
}

// Reevaluate applies a periodic re-check outcome. Cost is never touched by
// this command. It reports whether a change occurred; an unchanged grading
// is a silent no-op.
//
// Fails with CodeTerminalState on an approved claim: once released, a claim
// is closed.
func (c *Claim) Reevaluate(newGrading domain.Grading, reason string,
	actor ActorKind, now time.Time) (bool, error) {
	if c.CurrentGrading.IsTerminal() {
		return false, dErrors.Newf(dErrors.CodeTerminalState,
			"claim %s is approved and cannot be reevaluated", c.Number)
	}
	if c.CurrentGrading == newGrading {
		return false, nil
	}
	c.append(c.CurrentCost, newGrading, reason, OperationReevaluation, actor, now)
	return true, nil
}

// CanBeReevaluated reports whether the periodic job may touch this claim.
func (c *Claim) CanBeReevaluated() bool {
	return !c.CurrentGrading.IsTerminal()
}

func (c *Claim) append(newCost domain.Money, newGrading domain.Grading,
	reason string, operation OperationKind, actor ActorKind, now time.Time) {
	prevCost := c.CurrentCost
	prevGrading := c.CurrentGrading
	c.versions = append(c.versions, Version{
		ID:          domain.NewVersionID(),
		Seq:         len(c.versions) + 1,
		PrevCost:    &prevCost,
		NewCost:     newCost,
		PrevGrading: &prevGrading,
		NewGrading:  newGrading,
		Reason:      reason,
		Operation:   operation,
		Actor:       actor,
		CreatedAt:   now,
	})
	c.CurrentCost = newCost
	c.CurrentGrading = newGrading
	c.CurrentReason = reason
	c.LastUpdated = now
}

// Versions returns a copy of the trail in append order.
func (c *Claim) Versions() []Version {
	return append([]Version{}, c.versions...)
}

// VersionCount returns the trail length.
func (c *Claim) VersionCount() int { return len(c.versions) }

// LatestVersion returns the last entry of the trail. The trail is never
// empty after construction.
func (c *Claim) LatestVersion() Version {
	return c.versions[len(c.versions)-1]
}
