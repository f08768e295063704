package ingest

import (
	"context"

	"claimtrail/pkg/domain"
)

// Store persists batch import records.
type Store interface {
	Save(ctx context.Context, record *BatchRecord) error
	// CountForTenant reports how many batches a tenant has run; zero means
	// the next import is the tenant's baseline.
	CountForTenant(ctx context.Context, tenant domain.Tenant) (int, error)
	// ListForTenant returns records newest first, capped at limit.
	ListForTenant(ctx context.Context, tenant domain.Tenant, limit int) ([]*BatchRecord, error)
}
