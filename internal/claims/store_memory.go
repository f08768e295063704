package claims

import (
	"context"
	"slices"
	"sync"

	"claimtrail/pkg/domain"
	"claimtrail/pkg/platform/sentinel"
)

// InMemoryStore keeps claims in a map for tests and local development.
// It stores snapshots: callers can keep mutating an aggregate after SaveAll
// without affecting what the store holds.
type InMemoryStore struct {
	mu     sync.RWMutex
	claims map[memoryKey]*Claim
}

type memoryKey struct {
	tenant string
	number string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{claims: make(map[memoryKey]*Claim)}
}

func (s *InMemoryStore) FindByNumber(_ context.Context, tenant domain.Tenant, number domain.ClaimNumber) (*Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[memoryKey{tenant: tenant.String(), number: number.String()}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneClaim(claim), nil
}

func (s *InMemoryStore) SaveAll(_ context.Context, claims []*Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, claim := range claims {
		key := memoryKey{tenant: claim.Tenant.String(), number: claim.Number.String()}
		s.claims[key] = cloneClaim(claim)
	}
	return nil
}

func (s *InMemoryStore) FindEligible(_ context.Context, tenant *domain.Tenant, gradings []domain.Grading) ([]*Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Claim
	for _, claim := range s.claims {
		if tenant != nil && claim.Tenant != *tenant {
			continue
		}
		if !slices.Contains(gradings, claim.CurrentGrading) {
			continue
		}
		out = append(out, cloneClaim(claim))
	}
	slices.SortFunc(out, func(a, b *Claim) int {
		return a.LastUpdated.Compare(b.LastUpdated)
	})
	return out, nil
}

// Len reports how many claims the store holds. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims)
}

func cloneClaim(c *Claim) *Claim {
	clone := *c
	clone.versions = append([]Version{}, c.versions...)
	return &clone
}
