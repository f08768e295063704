package ingest

import (
	"context"
	"slices"
	"sync"

	"claimtrail/pkg/domain"
)

// InMemoryStore keeps batch records for tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*BatchRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, record *BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *record
	s.records = append(s.records, &stored)
	return nil
}

func (s *InMemoryStore) CountForTenant(_ context.Context, tenant domain.Tenant) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, r := range s.records {
		if r.Tenant == tenant {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) ListForTenant(_ context.Context, tenant domain.Tenant, limit int) ([]*BatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*BatchRecord
	for _, r := range s.records {
		if r.Tenant == tenant {
			stored := *r
			out = append(out, &stored)
		}
	}
	slices.SortFunc(out, func(a, b *BatchRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
