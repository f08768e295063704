package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"claimtrail/pkg/domain"
)

// PostgresStore persists batch records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed batch record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record *BatchRecord) error {
	if record == nil {
		return fmt.Errorf("batch record is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_records (id, tenant, source, total, new_count, updated_count,
		                           unchanged_count, errored_count, approved_count,
		                           pending_count, rejected_count, not_found_count,
		                           baseline, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, uuid.UUID(record.ID), record.Tenant.String(), record.Source,
		record.Stats.Total, record.Stats.New, record.Stats.Updated,
		record.Stats.Unchanged, record.Stats.Errored, record.Stats.Approved,
		record.Stats.Pending, record.Stats.Rejected, record.Stats.NotFound,
		record.Baseline, record.Actor, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert batch record: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountForTenant(ctx context.Context, tenant domain.Tenant) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM batch_records WHERE tenant = $1`, tenant.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count batch records: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListForTenant(ctx context.Context, tenant domain.Tenant, limit int) ([]*BatchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant, source, total, new_count, updated_count, unchanged_count,
		       errored_count, approved_count, pending_count, rejected_count,
		       not_found_count, baseline, actor, created_at
		FROM batch_records
		WHERE tenant = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenant.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list batch records: %w", err)
	}
	defer rows.Close()

	var out []*BatchRecord
	for rows.Next() {
		var (
			id        uuid.UUID
			tenantRaw string
			record    BatchRecord
			createdAt time.Time
		)
		if err := rows.Scan(&id, &tenantRaw, &record.Source, &record.Stats.Total,
			&record.Stats.New, &record.Stats.Updated, &record.Stats.Unchanged,
			&record.Stats.Errored, &record.Stats.Approved, &record.Stats.Pending,
			&record.Stats.Rejected, &record.Stats.NotFound, &record.Baseline,
			&record.Actor, &createdAt); err != nil {
			return nil, fmt.Errorf("scan batch record: %w", err)
		}
		record.ID = domain.BatchID(id)
		record.CreatedAt = createdAt
		if record.Tenant, err = domain.ParseTenant(tenantRaw); err != nil {
			return nil, fmt.Errorf("parse stored tenant: %w", err)
		}
		out = append(out, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch records: %w", err)
	}
	return out, nil
}
