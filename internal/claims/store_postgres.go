package claims

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"claimtrail/internal/claims/metrics"
	"claimtrail/pkg/domain"
	"claimtrail/pkg/platform/sentinel"
)

// saveConcurrency bounds the SaveAll fan-out. One goroutine per claim, so
// each claim's version rows keep a single writer.
const saveConcurrency = 4

// PostgresStore persists claims and their version trails in PostgreSQL.
type PostgresStore struct {
	db      *sql.DB
	metrics *metrics.Metrics
}

// NewPostgres constructs a PostgreSQL-backed claim store. metrics may be
// nil.
func NewPostgres(db *sql.DB, m *metrics.Metrics) *PostgresStore {
	return &PostgresStore{db: db, metrics: m}
}

func (s *PostgresStore) FindByNumber(ctx context.Context, tenant domain.Tenant, number domain.ClaimNumber) (*Claim, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant, number, current_cost, current_grading, current_reason,
		       first_seen, last_updated
		FROM claims
		WHERE tenant = $1 AND number = $2
	`, tenant.String(), number.String())

	claim, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find claim: %w", err)
	}

	versionsByClaim, err := s.loadVersions(ctx, []domain.ClaimID{claim.ID})
	if err != nil {
		return nil, err
	}
	claim.versions = versionsByClaim[claim.ID]
	return claim, nil
}

func (s *PostgresStore) SaveAll(ctx context.Context, toSave []*Claim) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(saveConcurrency)
	for _, claim := range toSave {
		g.Go(func() error {
			return s.saveOne(ctx, claim)
		})
	}
	return g.Wait()
}

func (s *PostgresStore) saveOne(ctx context.Context, claim *Claim) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save claim: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO claims (id, tenant, number, current_cost, current_grading,
		                    current_reason, first_seen, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant, number) DO UPDATE SET
			current_cost    = EXCLUDED.current_cost,
			current_grading = EXCLUDED.current_grading,
			current_reason  = EXCLUDED.current_reason,
			last_updated    = EXCLUDED.last_updated
	`, uuid.UUID(claim.ID), claim.Tenant.String(), claim.Number.String(),
		claim.CurrentCost.String(), claim.CurrentGrading.String(),
		claim.CurrentReason, claim.FirstSeen, claim.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert claim %s: %w", claim.Number, err)
	}

	// Versions are append-only; re-inserting an already persisted seq is a
	// no-op, which makes SaveAll safe to retry.
	var appended []Version
	for _, v := range claim.versions {
		var prevCost any
		if v.PrevCost != nil {
			prevCost = v.PrevCost.String()
		}
		var prevGrading any
		if v.PrevGrading != nil {
			prevGrading = v.PrevGrading.String()
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO claim_versions (id, claim_id, seq, prev_cost, new_cost,
			                            prev_grading, new_grading, reason,
			                            operation, actor, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (claim_id, seq) DO NOTHING
		`, uuid.UUID(v.ID), uuid.UUID(claim.ID), v.Seq, prevCost, v.NewCost.String(),
			prevGrading, v.NewGrading.String(), v.Reason,
			string(v.Operation), string(v.Actor), v.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert claim version %s/%d: %w", claim.Number, v.Seq, err)
		}
		if rows, err := res.RowsAffected(); err == nil && rows > 0 {
			appended = append(appended, v)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save claim %s: %w", claim.Number, err)
	}
	for _, v := range appended {
		s.metrics.IncrementVersions(string(v.Operation))
		s.metrics.IncrementGrading(v.NewGrading.String())
	}
	return nil
}

func (s *PostgresStore) FindEligible(ctx context.Context, tenant *domain.Tenant, gradings []domain.Grading) ([]*Claim, error) {
	gradingStrs := make([]string, len(gradings))
	for i, g := range gradings {
		gradingStrs[i] = g.String()
	}

	query := `
		SELECT id, tenant, number, current_cost, current_grading, current_reason,
		       first_seen, last_updated
		FROM claims
		WHERE current_grading = ANY($1)
	`
	args := []any{pq.Array(gradingStrs)}
	if tenant != nil {
		query += ` AND tenant = $2`
		args = append(args, tenant.String())
	}
	query += ` ORDER BY last_updated ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find eligible claims: %w", err)
	}
	defer rows.Close()

	var found []*Claim
	var ids []domain.ClaimID
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan eligible claim: %w", err)
		}
		found = append(found, claim)
		ids = append(ids, claim.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eligible claims: %w", err)
	}

	versionsByClaim, err := s.loadVersions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, claim := range found {
		claim.versions = versionsByClaim[claim.ID]
	}
	return found, nil
}

func (s *PostgresStore) loadVersions(ctx context.Context, ids []domain.ClaimID) (map[domain.ClaimID][]Version, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rawIDs := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		rawIDs[i] = uuid.UUID(id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_id, seq, prev_cost, new_cost, prev_grading, new_grading,
		       reason, operation, actor, created_at
		FROM claim_versions
		WHERE claim_id = ANY($1)
		ORDER BY claim_id, seq ASC
	`, pq.Array(rawIDs))
	if err != nil {
		return nil, fmt.Errorf("load claim versions: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.ClaimID][]Version, len(ids))
	for rows.Next() {
		var (
			id, claimID             uuid.UUID
			seq                     int
			prevCost, prevGrading   sql.NullString
			newCost, newGradingRaw  string
			reason, operation, act  string
			createdAt               time.Time
		)
		if err := rows.Scan(&id, &claimID, &seq, &prevCost, &newCost, &prevGrading,
			&newGradingRaw, &reason, &operation, &act, &createdAt); err != nil {
			return nil, fmt.Errorf("scan claim version: %w", err)
		}

		version := Version{
			ID:        domain.VersionID(id),
			Seq:       seq,
			Reason:    reason,
			Operation: OperationKind(operation),
			Actor:     ActorKind(act),
			CreatedAt: createdAt,
		}
		if version.NewCost, err = domain.ParseMoney(newCost); err != nil {
			return nil, fmt.Errorf("parse stored cost: %w", err)
		}
		if version.NewGrading, err = domain.ParseGrading(newGradingRaw); err != nil {
			return nil, fmt.Errorf("parse stored grading: %w", err)
		}
		if prevCost.Valid {
			cost, err := domain.ParseMoney(prevCost.String)
			if err != nil {
				return nil, fmt.Errorf("parse stored previous cost: %w", err)
			}
			version.PrevCost = &cost
		}
		if prevGrading.Valid {
			grading, err := domain.ParseGrading(prevGrading.String)
			if err != nil {
				return nil, fmt.Errorf("parse stored previous grading: %w", err)
			}
			version.PrevGrading = &grading
		}
		key := domain.ClaimID(claimID)
		out[key] = append(out[key], version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claim versions: %w", err)
	}
	return out, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*Claim, error) {
	var (
		id                     uuid.UUID
		tenantRaw, numberRaw   string
		costRaw, gradingRaw    string
		reason                 string
		firstSeen, lastUpdated time.Time
	)
	if err := row.Scan(&id, &tenantRaw, &numberRaw, &costRaw, &gradingRaw,
		&reason, &firstSeen, &lastUpdated); err != nil {
		return nil, err
	}

	tenant, err := domain.ParseTenant(tenantRaw)
	if err != nil {
		return nil, fmt.Errorf("parse stored tenant: %w", err)
	}
	number, err := domain.ParseClaimNumber(numberRaw)
	if err != nil {
		return nil, fmt.Errorf("parse stored claim number: %w", err)
	}
	cost, err := domain.ParseMoney(costRaw)
	if err != nil {
		return nil, fmt.Errorf("parse stored cost: %w", err)
	}
	grading, err := domain.ParseGrading(gradingRaw)
	if err != nil {
		return nil, fmt.Errorf("parse stored grading: %w", err)
	}

	return &Claim{
		ID:             domain.ClaimID(id),
		Tenant:         tenant,
		Number:         number,
		CurrentCost:    cost,
		CurrentGrading: grading,
		CurrentReason:  reason,
		FirstSeen:      firstSeen,
		LastUpdated:    lastUpdated,
	}, nil
}
