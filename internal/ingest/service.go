package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"claimtrail/internal/claims"
	"claimtrail/internal/external"
	"claimtrail/internal/ingest/metrics"
	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
	"claimtrail/pkg/platform/sentinel"
	"claimtrail/pkg/requestcontext"
)

// TenantLocker serializes imports per tenant. The engine's correctness
// depends on a single writer per (tenant, number); the lock enforces it at
// the service boundary.
type TenantLocker interface {
	Lock(ctx context.Context, tenant domain.Tenant) (release func(), err error)
}

// Publisher announces finished batches downstream. Best-effort: a publish
// failure is logged, never surfaced.
type Publisher interface {
	BatchCompleted(ctx context.Context, record *BatchRecord)
}

// Service runs batch reconciliation. Rows are processed sequentially; each
// may perform a blocking external lookup. Per-row failures after
// normalization are isolated into the errored tally, while normalization
// failures abort the whole batch before any row is processed.
type Service struct {
	claims    claims.Store
	batches   Store
	system    external.System
	locker    TenantLocker
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// New constructs the ingest service. locker and publisher may be nil when
// the deployment runs without Redis or Kafka.
func New(claimStore claims.Store, batchStore Store, system external.System,
	locker TenantLocker, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		claims:    claimStore,
		batches:   batchStore,
		system:    system,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("claimtrail/ingest"),
	}
}

// normalizedRow is a surviving row after parse and dedup.
type normalizedRow struct {
	number domain.ClaimNumber
	cost   domain.Money
}

// ImportBatch reconciles one raw import for a tenant and returns the
// persisted batch record.
func (s *Service) ImportBatch(ctx context.Context, tenant domain.Tenant, source string,
	rows []RowInput, cfg rules.Config, actor string) (*BatchRecord, error) {
	start := time.Now()
	now := requestcontext.Now(ctx)

	ctx, span := s.tracer.Start(ctx, "ingest.ImportBatch",
		trace.WithAttributes(
			attribute.String("tenant", tenant.String()),
			attribute.Int("rows", len(rows)),
		))
	defer span.End()

	if s.locker != nil {
		release, err := s.locker.Lock(ctx, tenant)
		if err != nil {
			if errors.Is(err, sentinel.ErrLocked) {
				return nil, dErrors.Wrap(err, dErrors.CodeConflict, "another import is running for this tenant")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire tenant import lock")
		}
		defer release()
	}

	surviving, err := normalizeAndDedup(rows)
	if err != nil {
		s.metrics.IncrementBatch("aborted")
		return nil, err
	}

	priorBatches, err := s.batches.CountForTenant(ctx, tenant)
	if err != nil {
		s.metrics.IncrementBatch("aborted")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count prior batches")
	}
	baseline := priorBatches == 0

	stats := Stats{Total: len(surviving)}
	touched := make([]*claims.Claim, 0, len(surviving))

	for _, row := range surviving {
		classification, outcome, claim, rowErr := s.reconcileRow(ctx, tenant, row, cfg, now)
		if rowErr != nil {
			// Per-row failure isolation: count it, keep going.
			stats.Errored++
			s.logger.WarnContext(ctx, "import row failed",
				"tenant", tenant.String(),
				"claim_number", row.number.String(),
				"error", rowErr,
			)
			continue
		}

		switch classification {
		case ClassificationNew:
			stats.New++
			touched = append(touched, claim)
		case ClassificationUpdated:
			stats.Updated++
			touched = append(touched, claim)
		case ClassificationDuplicate:
			stats.Unchanged++
		}

		switch outcome.Grading {
		case domain.GradingApproved:
			stats.Approved++
		case domain.GradingPending:
			stats.Pending++
		case domain.GradingRejected:
			stats.Rejected++
		case domain.GradingNotFound:
			stats.NotFound++
		}

		if outcome.ShouldRelease && classification != ClassificationDuplicate {
			if !s.system.Release(ctx, row.number, row.cost) {
				s.logger.WarnContext(ctx, "external release refused",
					"tenant", tenant.String(),
					"claim_number", row.number.String(),
				)
			}
		}
	}

	if err := s.claims.SaveAll(ctx, touched); err != nil {
		s.metrics.IncrementBatch("aborted")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist touched claims")
	}

	record, err := NewBatchRecord(tenant, source, stats, baseline, actor, now)
	if err != nil {
		s.metrics.IncrementBatch("aborted")
		return nil, err
	}
	if err := s.batches.Save(ctx, record); err != nil {
		s.metrics.IncrementBatch("aborted")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist batch record")
	}

	if s.publisher != nil {
		s.publisher.BatchCompleted(ctx, record)
	}

	s.metrics.IncrementBatch("completed")
	s.metrics.IncrementRows(string(ClassificationNew), stats.New)
	s.metrics.IncrementRows(string(ClassificationUpdated), stats.Updated)
	s.metrics.IncrementRows(string(ClassificationDuplicate), stats.Unchanged)
	s.metrics.IncrementRows(string(ClassificationErrored), stats.Errored)
	s.metrics.ObserveBatchDuration(time.Since(start))

	s.logger.InfoContext(ctx, "batch import finished",
		"tenant", tenant.String(),
		"source", source,
		"baseline", baseline,
		"total", stats.Total,
		"new", stats.New,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"errored", stats.Errored,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return record, nil
}

// normalizeAndDedup parses every raw row and collapses repeated numbers,
// later occurrence wins. Any parse failure aborts the whole batch: a
// malformed identifier must not silently corrupt the deduplicated set the
// record invariants are computed over.
func normalizeAndDedup(rows []RowInput) ([]normalizedRow, error) {
	costs := make(map[domain.ClaimNumber]domain.Money, len(rows))
	order := make([]domain.ClaimNumber, 0, len(rows))

	for i, raw := range rows {
		number, err := domain.ParseClaimNumber(raw.Number)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInputRow,
				fmt.Sprintf("row %d has an invalid claim number", i+1))
		}
		cost, err := domain.ParseMoney(raw.Cost)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInputRow,
				fmt.Sprintf("row %d has an invalid cost", i+1))
		}
		if _, seen := costs[number]; !seen {
			order = append(order, number)
		}
		costs[number] = cost
	}

	out := make([]normalizedRow, 0, len(order))
	for _, number := range order {
		out = append(out, normalizedRow{number: number, cost: costs[number]})
	}
	return out, nil
}

// reconcileRow looks up, grades, and classifies one surviving row. The
// returned claim is non-nil only for new/updated classifications.
func (s *Service) reconcileRow(ctx context.Context, tenant domain.Tenant, row normalizedRow,
	cfg rules.Config, now time.Time) (Classification, rules.Outcome, *claims.Claim, error) {
	existing, err := s.claims.FindByNumber(ctx, tenant, row.number)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return ClassificationErrored, rules.Outcome{}, nil, err
	}

	lookup, err := s.system.Lookup(ctx, row.number, row.cost)
	if err != nil {
		return ClassificationErrored, rules.Outcome{}, nil, err
	}

	outcome := rules.Evaluate(row.cost, lookup, cfg)

	if existing == nil {
		claim := claims.NewClaim(tenant, row.number, row.cost, outcome.Grading, outcome.Reason, now)
		return ClassificationNew, outcome, claim, nil
	}

	// A fresh batch declaration is the one thing allowed to touch an
	// approved claim; unchanged rows fall out as duplicates below.
	err = existing.UpdateCost(row.cost, outcome.Grading, outcome.Reason, claims.ActorBatchImport, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNoChange) {
			return ClassificationDuplicate, outcome, nil, nil
		}
		return ClassificationErrored, rules.Outcome{}, nil, err
	}
	return ClassificationUpdated, outcome, existing, nil
}
