//go:build integration

package external_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"claimtrail/internal/external"
	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
	"claimtrail/pkg/testutil/containers"
)

// countingSystem wraps the stub so tests can assert how often the portal
// was actually hit.
type countingSystem struct {
	*external.StubSystem
	lookups atomic.Int32
}

func (c *countingSystem) Lookup(ctx context.Context, number domain.ClaimNumber, declared domain.Money) (rules.LookupResult, error) {
	c.lookups.Add(1)
	return c.StubSystem.Lookup(ctx, number, declared)
}

type CachedSystemSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	inner  *countingSystem
	system *external.CachedSystem
}

func TestCachedSystemSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedSystemSuite))
}

func (s *CachedSystemSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *CachedSystemSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.inner = &countingSystem{StubSystem: external.NewStubSystem()}
	s.system = external.NewCachedSystem(s.inner, s.redis.Client, time.Minute,
		slog.New(slog.DiscardHandler))
}

func (s *CachedSystemSuite) mustNumber(raw string) domain.ClaimNumber {
	n, err := domain.ParseClaimNumber(raw)
	s.Require().NoError(err)
	return n
}

func (s *CachedSystemSuite) mustMoney(raw string) domain.Money {
	m, err := domain.ParseMoney(raw)
	s.Require().NoError(err)
	return m
}

func (s *CachedSystemSuite) TestLookup_SecondHitServedFromCache() {
	ctx := context.Background()
	s.inner.Seed("EXP-001", s.mustMoney("120.00"))
	number := s.mustNumber("exp-001")
	declared := s.mustMoney("118.00")

	first, err := s.system.Lookup(ctx, number, declared)
	s.Require().NoError(err)
	s.True(first.Found)
	s.True(first.SystemCost.Equals(s.mustMoney("120.00")))

	second, err := s.system.Lookup(ctx, number, declared)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(int32(1), s.inner.lookups.Load())
}

func (s *CachedSystemSuite) TestLookup_NotFoundIsCachedToo() {
	ctx := context.Background()
	number := s.mustNumber("exp-404")
	declared := s.mustMoney("50.00")

	result, err := s.system.Lookup(ctx, number, declared)
	s.Require().NoError(err)
	s.False(result.Found)

	_, err = s.system.Lookup(ctx, number, declared)
	s.Require().NoError(err)
	s.Equal(int32(1), s.inner.lookups.Load())
}

func (s *CachedSystemSuite) TestRelease_InvalidatesCachedLookup() {
	ctx := context.Background()
	s.inner.Seed("EXP-002", s.mustMoney("80.00"))
	number := s.mustNumber("exp-002")
	declared := s.mustMoney("80.00")

	_, err := s.system.Lookup(ctx, number, declared)
	s.Require().NoError(err)

	s.True(s.system.Release(ctx, number, declared))
	s.True(s.inner.Released("EXP-002"))

	// The portal moved after release; the next lookup must see it.
	s.inner.Seed("EXP-002", s.mustMoney("85.00"))
	result, err := s.system.Lookup(ctx, number, declared)
	s.Require().NoError(err)
	s.True(result.SystemCost.Equals(s.mustMoney("85.00")))
	s.Equal(int32(2), s.inner.lookups.Load())
}

func (s *CachedSystemSuite) TestRelease_RefusedKeepsCache() {
	ctx := context.Background()
	s.inner.Seed("EXP-003", s.mustMoney("70.00"))
	number := s.mustNumber("exp-003")
	declared := s.mustMoney("70.00")

	_, err := s.system.Lookup(ctx, number, declared)
	s.Require().NoError(err)

	s.inner.RefuseRelease = true
	s.False(s.system.Release(ctx, number, declared))

	_, err = s.system.Lookup(ctx, number, declared)
	s.Require().NoError(err)
	s.Equal(int32(1), s.inner.lookups.Load())
}
