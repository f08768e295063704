package claims

import (
	"context"

	"claimtrail/pkg/domain"
)

// Store persists claim aggregates with their version trails.
//
// Contract notes:
//   - FindByNumber returns sentinel.ErrNotFound (wrapped or not) when the
//     pair (tenant, number) has no live claim.
//   - SaveAll upserts current state and appends any versions not yet
//     persisted. Each claim's trail has a single writer at a time; the
//     caller serializes writers per (tenant, number).
//   - FindEligible returns claims whose current grading is in gradings,
//     optionally scoped to one tenant (nil = global), ordered by last
//     update ascending so the longest-stale claims are revalidated first.
type Store interface {
	FindByNumber(ctx context.Context, tenant domain.Tenant, number domain.ClaimNumber) (*Claim, error)
	SaveAll(ctx context.Context, claims []*Claim) error
	FindEligible(ctx context.Context, tenant *domain.Tenant, gradings []domain.Grading) ([]*Claim, error)
}
