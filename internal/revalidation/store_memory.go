package revalidation

import (
	"context"
	"sync"

	"claimtrail/pkg/domain"
)

// InMemoryStore keeps cycle records in insertion order.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*CycleRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, record *CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records = append(s.records, &cp)
	return nil
}

// ListForTenant returns records newest first. A nil tenant matches every
// record, including global runs.
func (s *InMemoryStore) ListForTenant(_ context.Context, tenant *domain.Tenant, limit int) ([]*CycleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = defaultListLimit
	}
	out := make([]*CycleRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		r := s.records[i]
		if tenant != nil && (r.Tenant == nil || *r.Tenant != *tenant) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}
