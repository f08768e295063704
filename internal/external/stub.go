package external

import (
	"context"
	"sync"

	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
)

// StubSystem is a deterministic in-memory System for tests and local
// development. Costs are seeded per claim number; unknown numbers report
// not found.
type StubSystem struct {
	mu       sync.RWMutex
	costs    map[string]domain.Money
	released map[string]bool

	// FailLookups lists numbers whose lookup returns an error, to exercise
	// per-row failure isolation.
	FailLookups map[string]error

	// RefuseRelease makes Release report false without recording.
	RefuseRelease bool
}

func NewStubSystem() *StubSystem {
	return &StubSystem{
		costs:       make(map[string]domain.Money),
		released:    make(map[string]bool),
		FailLookups: make(map[string]error),
	}
}

// Seed registers the system cost for a claim number.
func (s *StubSystem) Seed(number string, cost domain.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs[number] = cost
}

func (s *StubSystem) Lookup(_ context.Context, number domain.ClaimNumber, _ domain.Money) (rules.LookupResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.FailLookups[number.String()]; ok {
		return rules.LookupResult{}, err
	}
	cost, ok := s.costs[number.String()]
	if !ok {
		return rules.LookupResult{}, nil
	}
	return rules.LookupResult{Found: true, SystemCost: cost}, nil
}

func (s *StubSystem) Release(_ context.Context, number domain.ClaimNumber, _ domain.Money) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RefuseRelease {
		return false
	}
	s.released[number.String()] = true
	return true
}

// Reset clears any recorded release for the number.
func (s *StubSystem) Reset(number string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.released, number)
}

// Released reports whether a release was recorded for the number.
func (s *StubSystem) Released(number string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.released[number]
}
