package claims

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"claimtrail/pkg/domain"
	"claimtrail/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newClaim(tenant, number string, grading domain.Grading) *Claim {
	tn, err := domain.ParseTenant(tenant)
	s.Require().NoError(err)
	num, err := domain.ParseClaimNumber(number)
	s.Require().NoError(err)
	cost, err := domain.ParseMoney("99.00")
	s.Require().NoError(err)
	return NewClaim(tn, num, cost, grading, "initial", time.Now())
}

func (s *MemoryStoreSuite) TestSaveAndFind() {
	claim := s.newClaim("tenant-a", "EXP-100", domain.GradingPending)
	s.Require().NoError(s.store.SaveAll(s.ctx, []*Claim{claim}))

	found, err := s.store.FindByNumber(s.ctx, claim.Tenant, claim.Number)
	s.Require().NoError(err)
	s.Equal(claim.ID, found.ID)
	s.Equal(1, found.VersionCount())

	s.Run("unknown number returns ErrNotFound", func() {
		other := s.newClaim("tenant-a", "EXP-404", domain.GradingPending)
		_, err := s.store.FindByNumber(s.ctx, other.Tenant, other.Number)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("same number under another tenant is a different claim", func() {
		other := s.newClaim("tenant-b", "EXP-100", domain.GradingPending)
		_, err := s.store.FindByNumber(s.ctx, other.Tenant, claim.Number)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestSaveStoresSnapshot() {
	claim := s.newClaim("tenant-a", "EXP-100", domain.GradingNotFound)
	s.Require().NoError(s.store.SaveAll(s.ctx, []*Claim{claim}))

	// mutate after save; the store must not observe it
	cost, err := domain.ParseMoney("250.00")
	s.Require().NoError(err)
	require.NoError(s.T(), claim.UpdateCost(cost, domain.GradingApproved, "later", ActorBatchImport, time.Now()))

	found, err := s.store.FindByNumber(s.ctx, claim.Tenant, claim.Number)
	s.Require().NoError(err)
	s.Equal(domain.GradingNotFound, found.CurrentGrading)
	s.Equal(1, found.VersionCount())
}

func (s *MemoryStoreSuite) TestFindEligible() {
	notFound := s.newClaim("tenant-a", "EXP-001", domain.GradingNotFound)
	pending := s.newClaim("tenant-a", "EXP-002", domain.GradingPending)
	approved := s.newClaim("tenant-a", "EXP-003", domain.GradingApproved)
	otherTenant := s.newClaim("tenant-b", "EXP-004", domain.GradingNotFound)
	s.Require().NoError(s.store.SaveAll(s.ctx, []*Claim{notFound, pending, approved, otherTenant}))

	s.Run("filters by grading globally", func() {
		eligible, err := s.store.FindEligible(s.ctx, nil, []domain.Grading{domain.GradingNotFound})
		s.Require().NoError(err)
		s.Len(eligible, 2)
	})

	s.Run("tenant scope narrows selection", func() {
		tenant := notFound.Tenant
		eligible, err := s.store.FindEligible(s.ctx, &tenant, []domain.Grading{domain.GradingNotFound})
		s.Require().NoError(err)
		s.Require().Len(eligible, 1)
		s.Equal(notFound.ID, eligible[0].ID)
	})

	s.Run("multiple gradings widen selection", func() {
		tenant := notFound.Tenant
		eligible, err := s.store.FindEligible(s.ctx, &tenant,
			[]domain.Grading{domain.GradingNotFound, domain.GradingPending})
		s.Require().NoError(err)
		s.Len(eligible, 2)
	})
}
