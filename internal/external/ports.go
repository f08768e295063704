// Package external adapts the authoritative cost system the engine
// reconciles against. The engine only depends on the System port; the HTTP
// adapter, the cache decorator, and the test stub all satisfy it.
package external

import (
	"context"

	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
)

// System is the collaborator contract the engine consumes.
//
// Lookup answers whether the external system knows the claim and at what
// cost. Release asks it to release an approved claim; it is best-effort by
// contract - implementations report failure through the bool, never through
// a panic, and the caller only logs it.
type System interface {
	Lookup(ctx context.Context, number domain.ClaimNumber, declared domain.Money) (rules.LookupResult, error)
	Release(ctx context.Context, number domain.ClaimNumber, cost domain.Money) bool
}
