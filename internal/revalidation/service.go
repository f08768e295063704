package revalidation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"claimtrail/internal/claims"
	"claimtrail/internal/external"
	"claimtrail/internal/revalidation/metrics"
	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
	"claimtrail/pkg/requestcontext"
)

// DefaultMaxClaimsPerCycle bounds one cycle's external call volume. The
// remainder is picked up next run because selection is oldest-first.
const DefaultMaxClaimsPerCycle = 500

// Publisher announces finished cycles downstream. Best-effort.
type Publisher interface {
	CycleCompleted(ctx context.Context, record *CycleRecord)
}

// Params configures one revalidation run.
type Params struct {
	// Tenant scopes the run; nil re-checks every tenant.
	Tenant *domain.Tenant

	// EligibleGradings selects which non-terminal gradings are re-checked.
	// Empty defaults to {not_found}: rejections are considered settled
	// unless a run explicitly opts them in.
	EligibleGradings []domain.Grading

	// MaxClaims caps the run; zero means DefaultMaxClaimsPerCycle.
	MaxClaims int

	Config rules.Config
}

// Service runs the periodic re-check of non-terminal claims against the
// external system.
type Service struct {
	claims    claims.Store
	cycles    Store
	system    external.System
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// New constructs the revalidation service. publisher may be nil when the
// deployment runs without Kafka.
func New(claimStore claims.Store, cycleStore Store, system external.System,
	publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		claims:    claimStore,
		cycles:    cycleStore,
		system:    system,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("claimtrail/revalidation"),
	}
}

// RunCycle re-checks eligible claims and returns the persisted cycle
// record. Per-claim lookup failures are logged and skipped without
// incrementing any tally; they stay eligible for the next run.
func (s *Service) RunCycle(ctx context.Context, params Params) (*CycleRecord, error) {
	start := time.Now()
	startedAt := requestcontext.Now(ctx)

	eligible := params.EligibleGradings
	if len(eligible) == 0 {
		eligible = []domain.Grading{domain.GradingNotFound}
	}
	maxClaims := params.MaxClaims
	if maxClaims <= 0 {
		maxClaims = DefaultMaxClaimsPerCycle
	}

	ctx, span := s.tracer.Start(ctx, "revalidation.RunCycle",
		trace.WithAttributes(attribute.Int("max_claims", maxClaims)))
	defer span.End()

	candidates, err := s.claims.FindEligible(ctx, params.Tenant, eligible)
	if err != nil {
		s.metrics.IncrementCycle("aborted")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to select eligible claims")
	}
	if len(candidates) > maxClaims {
		s.logger.InfoContext(ctx, "cycle capped, remainder deferred to next run",
			"eligible", len(candidates),
			"cap", maxClaims,
		)
		candidates = candidates[:maxClaims]
	}

	var processed, newlyApproved, stillRejected, stillNotFound, costChanges, errored int
	touched := make([]*claims.Claim, 0, len(candidates))

	for _, claim := range candidates {
		// Selection only yields non-terminal gradings; an approved claim
		// here means the store contract is broken, so stop the run.
		if !claim.CanBeReevaluated() {
			s.metrics.IncrementCycle("aborted")
			return nil, dErrors.Newf(dErrors.CodeTerminalState,
				"eligible selection returned approved claim %s", claim.Number)
		}

		changed, costChanged, err := s.recheck(ctx, claim, params.Config)
		if err != nil {
			errored++
			s.logger.WarnContext(ctx, "claim recheck failed",
				"tenant", claim.Tenant.String(),
				"claim_number", claim.Number.String(),
				"error", err,
			)
			continue
		}

		processed++
		if changed {
			touched = append(touched, claim)
		}
		if costChanged {
			costChanges++
		}
		switch claim.CurrentGrading {
		case domain.GradingApproved:
			newlyApproved++
			if !s.system.Release(ctx, claim.Number, claim.CurrentCost) {
				s.logger.WarnContext(ctx, "external release refused",
					"tenant", claim.Tenant.String(),
					"claim_number", claim.Number.String(),
				)
			}
		case domain.GradingRejected:
			stillRejected++
		case domain.GradingNotFound:
			stillNotFound++
		}
	}

	if err := s.claims.SaveAll(ctx, touched); err != nil {
		s.metrics.IncrementCycle("aborted")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist rechecked claims")
	}

	record, err := NewCycleRecord(params.Tenant, processed, newlyApproved,
		stillRejected, stillNotFound, costChanges, startedAt, requestcontext.Now(ctx))
	if err != nil {
		s.metrics.IncrementCycle("aborted")
		return nil, err
	}
	if err := s.cycles.Save(ctx, record); err != nil {
		s.metrics.IncrementCycle("aborted")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist cycle record")
	}

	if s.publisher != nil && record.ShouldNotify() {
		s.publisher.CycleCompleted(ctx, record)
	}

	s.metrics.IncrementCycle("completed")
	s.metrics.IncrementClaims("newly_approved", newlyApproved)
	s.metrics.IncrementClaims("still_rejected", stillRejected)
	s.metrics.IncrementClaims("still_not_found", stillNotFound)
	s.metrics.IncrementClaims("cost_changed", costChanges)
	s.metrics.IncrementClaims("errored", errored)
	s.metrics.ObserveCycleDuration(time.Since(start))

	s.logger.InfoContext(ctx, "revalidation cycle finished",
		"processed", processed,
		"newly_approved", newlyApproved,
		"still_rejected", stillRejected,
		"still_not_found", stillNotFound,
		"cost_changes", costChanges,
		"errored", errored,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return record, nil
}

// recheck looks one claim up and applies the outcome. When the external
// system now reports a different cost, the stored cost follows it; a pure
// grading move goes through the reevaluation command so the trail records
// which kind of change happened.
func (s *Service) recheck(ctx context.Context, claim *claims.Claim,
	cfg rules.Config) (changed, costChanged bool, err error) {
	now := requestcontext.Now(ctx)

	lookup, err := s.system.Lookup(ctx, claim.Number, claim.CurrentCost)
	if err != nil {
		return false, false, err
	}

	outcome := rules.Evaluate(claim.CurrentCost, lookup, cfg)

	if lookup.Found && !(cfg.TreatZeroAsMissing && lookup.SystemCost.IsZero()) &&
		!lookup.SystemCost.Equals(claim.CurrentCost) {
		err := claim.UpdateCost(lookup.SystemCost, outcome.Grading, outcome.Reason,
			claims.ActorPeriodicJob, now)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNoChange) {
				return false, false, nil
			}
			return false, false, err
		}
		return true, true, nil
	}

	changed, err = claim.Reevaluate(outcome.Grading, outcome.Reason, claims.ActorPeriodicJob, now)
	if err != nil {
		return false, false, err
	}
	return changed, false, nil
}
