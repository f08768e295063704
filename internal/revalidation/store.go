package revalidation

import (
	"context"

	"claimtrail/pkg/domain"
)

const defaultListLimit = 50

// Store persists finished cycle records.
type Store interface {
	Save(ctx context.Context, record *CycleRecord) error
	ListForTenant(ctx context.Context, tenant *domain.Tenant, limit int) ([]*CycleRecord, error)
}
