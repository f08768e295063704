package revalidation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"claimtrail/pkg/domain"
)

// PostgresStore persists cycle records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed cycle record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record *CycleRecord) error {
	if record == nil {
		return fmt.Errorf("cycle record is required")
	}
	var tenant sql.NullString
	if record.Tenant != nil {
		tenant = sql.NullString{String: record.Tenant.String(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycle_records (id, tenant, processed, newly_approved_count,
		                           still_rejected_count, still_not_found_count,
		                           cost_change_count, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.UUID(record.ID), tenant, record.Processed, record.NewlyApproved,
		record.StillRejected, record.StillNotFound, record.CostChanges,
		record.StartedAt, record.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert cycle record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListForTenant(ctx context.Context, tenant *domain.Tenant, limit int) ([]*CycleRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `
		SELECT id, tenant, processed, newly_approved_count, still_rejected_count,
		       still_not_found_count, cost_change_count, started_at, finished_at
		FROM cycle_records
	`
	args := []any{limit}
	if tenant != nil {
		query += ` WHERE tenant = $2`
		args = append(args, tenant.String())
	}
	query += ` ORDER BY finished_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cycle records: %w", err)
	}
	defer rows.Close()

	var out []*CycleRecord
	for rows.Next() {
		var (
			id        uuid.UUID
			tenantRaw sql.NullString
			record    CycleRecord
			started   time.Time
			finished  time.Time
		)
		if err := rows.Scan(&id, &tenantRaw, &record.Processed, &record.NewlyApproved,
			&record.StillRejected, &record.StillNotFound, &record.CostChanges,
			&started, &finished); err != nil {
			return nil, fmt.Errorf("scan cycle record: %w", err)
		}
		record.ID = domain.CycleID(id)
		record.StartedAt = started
		record.FinishedAt = finished
		if tenantRaw.Valid {
			parsed, err := domain.ParseTenant(tenantRaw.String)
			if err != nil {
				return nil, fmt.Errorf("parse stored tenant: %w", err)
			}
			record.Tenant = &parsed
		}
		out = append(out, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycle records: %w", err)
	}
	return out, nil
}
