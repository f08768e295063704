package revalidation

//go:generate mockgen -source=../claims/store.go -destination=../claims/mocks/store.go -package=mocks Store

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"claimtrail/internal/claims"
	claimMocks "claimtrail/internal/claims/mocks"
	"claimtrail/internal/external"
	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
	"claimtrail/pkg/requestcontext"
)

var testTime = time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)

// =============================================================================
// Revalidation Service Test Suite
// =============================================================================
// The cycle's selection scope, idempotence, and tallying rules are the
// parts worth pinning: a cycle over not-found claims must never touch
// anything else, and an unchanged answer must never grow a trail.

type RevalidationSuite struct {
	suite.Suite
	claimStore *claims.InMemoryStore
	cycleStore *InMemoryStore
	system     *external.StubSystem
	publisher  *stubPublisher
	service    *Service
	tenant     domain.Tenant
	ctx        context.Context
}

func TestRevalidationSuite(t *testing.T) {
	suite.Run(t, new(RevalidationSuite))
}

func (s *RevalidationSuite) SetupTest() {
	s.claimStore = claims.NewInMemoryStore()
	s.cycleStore = NewInMemoryStore()
	s.system = external.NewStubSystem()
	s.publisher = &stubPublisher{}
	s.service = New(s.claimStore, s.cycleStore, s.system, s.publisher,
		slog.New(slog.DiscardHandler), nil)

	var err error
	s.tenant, err = domain.ParseTenant("acme")
	s.Require().NoError(err)
	s.ctx = requestcontext.WithTime(context.Background(), testTime)
}

func (s *RevalidationSuite) mustMoney(raw string) domain.Money {
	m, err := domain.ParseMoney(raw)
	s.Require().NoError(err)
	return m
}

// seedClaim stores a claim with the given grading and declared cost.
func (s *RevalidationSuite) seedClaim(number, cost string, grading domain.Grading) *claims.Claim {
	n, err := domain.ParseClaimNumber(number)
	s.Require().NoError(err)
	claim := claims.NewClaim(s.tenant, n, s.mustMoney(cost), grading, "seeded", testTime)
	s.Require().NoError(s.claimStore.SaveAll(s.ctx, []*claims.Claim{claim}))
	return claim
}

func (s *RevalidationSuite) reload(number string) *claims.Claim {
	n, err := domain.ParseClaimNumber(number)
	s.Require().NoError(err)
	claim, err := s.claimStore.FindByNumber(s.ctx, s.tenant, n)
	s.Require().NoError(err)
	return claim
}

func (s *RevalidationSuite) run(params Params) *CycleRecord {
	record, err := s.service.RunCycle(s.ctx, params)
	s.Require().NoError(err)
	return record
}

// =============================================================================
// Selection Scope Tests
// =============================================================================

func (s *RevalidationSuite) TestRunCycle_DefaultScope() {
	s.seedClaim("EXP-100", "50.00", domain.GradingNotFound)
	s.seedClaim("EXP-101", "50.00", domain.GradingPending)
	s.seedClaim("EXP-102", "50.00", domain.GradingRejected)
	s.seedClaim("EXP-103", "50.00", domain.GradingApproved)
	s.system.Seed("EXP-100", s.mustMoney("50.00"))
	s.system.Seed("EXP-101", s.mustMoney("50.00"))

	record := s.run(Params{Config: rules.DefaultConfig()})

	s.Equal(1, record.Processed)
	s.Equal(1, record.NewlyApproved)
	s.Equal(domain.GradingApproved, s.reload("EXP-100").CurrentGrading)
	// Out-of-scope claims are untouched, whatever the portal now says.
	s.Equal(domain.GradingPending, s.reload("EXP-101").CurrentGrading)
	s.Equal(1, s.reload("EXP-101").VersionCount())
}

func (s *RevalidationSuite) TestRunCycle_ExplicitScope() {
	s.seedClaim("EXP-110", "50.00", domain.GradingRejected)
	s.seedClaim("EXP-111", "50.00", domain.GradingNotFound)

	record := s.run(Params{
		EligibleGradings: []domain.Grading{domain.GradingRejected},
		Config:           rules.DefaultConfig(),
	})

	s.Equal(1, record.Processed)
	s.Equal(1, record.StillRejected)
	s.Equal(0, record.StillNotFound)
}

func (s *RevalidationSuite) TestRunCycle_Cap() {
	for _, n := range []string{"EXP-120", "EXP-121", "EXP-122"} {
		s.seedClaim(n, "50.00", domain.GradingNotFound)
	}

	record := s.run(Params{MaxClaims: 2, Config: rules.DefaultConfig()})

	s.Equal(2, record.Processed)
}

// =============================================================================
// Outcome & Idempotence Tests
// =============================================================================

func (s *RevalidationSuite) TestRunCycle_Outcomes() {
	s.Run("still missing claim stays not-found with no new version", func() {
		s.seedClaim("EXP-130", "50.00", domain.GradingNotFound)

		record := s.run(Params{Config: rules.DefaultConfig()})

		s.Equal(1, record.StillNotFound)
		s.Equal(0, record.NewlyApproved)
		s.False(record.ShouldNotify())
		s.Equal(1, s.reload("EXP-130").VersionCount())
	})

	s.Run("claim that appeared in the portal is approved and released", func() {
		s.seedClaim("EXP-131", "80.00", domain.GradingNotFound)
		s.system.Seed("EXP-131", s.mustMoney("80.00"))

		record := s.run(Params{Config: rules.DefaultConfig()})

		s.Equal(1, record.NewlyApproved)
		s.True(record.ShouldNotify())
		s.True(s.system.Released("EXP-131"))

		claim := s.reload("EXP-131")
		s.Equal(domain.GradingApproved, claim.CurrentGrading)
		s.Equal(2, claim.VersionCount())
		s.Equal(claims.OperationReevaluation, claim.LatestVersion().Operation)
		s.Equal(claims.ActorPeriodicJob, claim.LatestVersion().Actor)
	})

	s.Run("moved external cost records a cost update", func() {
		s.seedClaim("EXP-132", "80.00", domain.GradingNotFound)
		s.system.Seed("EXP-132", s.mustMoney("84.00")) // 5% off, margin rule

		record := s.run(Params{Config: rules.DefaultConfig()})

		s.Equal(1, record.CostChanges)
		s.Equal(1, record.NewlyApproved)

		claim := s.reload("EXP-132")
		s.True(claim.CurrentCost.Equals(s.mustMoney("84.00")))
		s.Equal(claims.OperationCostUpdate, claim.LatestVersion().Operation)
	})

	s.Run("a second identical cycle appends nothing", func() {
		s.seedClaim("EXP-133", "80.00", domain.GradingRejected)

		params := Params{
			EligibleGradings: []domain.Grading{domain.GradingRejected},
			Config:           rules.DefaultConfig(),
		}
		s.run(params)
		record := s.run(params)

		s.Equal(1, record.StillRejected)
		s.Equal(1, s.reload("EXP-133").VersionCount())
	})
}

// =============================================================================
// Failure Handling Tests
// =============================================================================

func (s *RevalidationSuite) TestRunCycle_Failures() {
	s.Run("a failing lookup is skipped without counting", func() {
		s.seedClaim("EXP-140", "50.00", domain.GradingNotFound)
		s.seedClaim("EXP-141", "50.00", domain.GradingNotFound)
		s.system.FailLookups["EXP-140"] = errors.New("portal timeout")

		record := s.run(Params{Config: rules.DefaultConfig()})

		s.Equal(1, record.Processed)
		s.Equal(1, record.StillNotFound)
	})

	s.Run("selection returning an approved claim aborts the cycle", func() {
		ctrl := gomock.NewController(s.T())
		store := claimMocks.NewMockStore(ctrl)
		service := New(store, s.cycleStore, s.system, nil, slog.New(slog.DiscardHandler), nil)

		n, err := domain.ParseClaimNumber("EXP-142")
		s.Require().NoError(err)
		approved := claims.NewClaim(s.tenant, n, s.mustMoney("10.00"),
			domain.GradingApproved, "exact match", testTime)
		store.EXPECT().FindEligible(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]*claims.Claim{approved}, nil)

		_, err = service.RunCycle(s.ctx, Params{Config: rules.DefaultConfig()})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTerminalState))
	})

	s.Run("selection failure aborts before any lookup", func() {
		ctrl := gomock.NewController(s.T())
		store := claimMocks.NewMockStore(ctrl)
		service := New(store, s.cycleStore, s.system, nil, slog.New(slog.DiscardHandler), nil)

		store.EXPECT().FindEligible(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection reset"))

		_, err := service.RunCycle(s.ctx, Params{Config: rules.DefaultConfig()})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// Notification Tests
// =============================================================================

func (s *RevalidationSuite) TestRunCycle_Notification() {
	s.Run("quiet cycle publishes nothing", func() {
		s.seedClaim("EXP-150", "50.00", domain.GradingNotFound)

		s.run(Params{Config: rules.DefaultConfig()})

		s.Equal(0, s.publisher.cycles)
	})

	s.Run("cycle with approvals publishes once", func() {
		s.seedClaim("EXP-151", "50.00", domain.GradingNotFound)
		s.system.Seed("EXP-151", s.mustMoney("50.00"))

		s.run(Params{Config: rules.DefaultConfig()})

		s.Equal(1, s.publisher.cycles)
	})
}

// =============================================================================
// Test Doubles
// =============================================================================

type stubPublisher struct {
	cycles int
}

func (p *stubPublisher) CycleCompleted(context.Context, *CycleRecord) {
	p.cycles++
}
