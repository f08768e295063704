package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
)

func TestNewBatchRecord(t *testing.T) {
	tenant, err := domain.ParseTenant("acme")
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("valid stats build a record", func(t *testing.T) {
		stats := Stats{
			Total: 10, New: 4, Updated: 3, Unchanged: 2, Errored: 1,
			Approved: 5, Pending: 2, Rejected: 1, NotFound: 1,
		}
		record, err := NewBatchRecord(tenant, "spreadsheet", stats, true, "importer", now)
		require.NoError(t, err)
		assert.False(t, record.ID.IsZero())
		assert.Equal(t, tenant, record.Tenant)
		assert.Equal(t, stats, record.Stats)
		assert.True(t, record.Baseline)
		assert.Equal(t, now, record.CreatedAt)
	})

	t.Run("classification counts must sum to total", func(t *testing.T) {
		stats := Stats{Total: 10, New: 4, Updated: 3, Unchanged: 2, Errored: 0}
		_, err := NewBatchRecord(tenant, "spreadsheet", stats, false, "importer", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInconsistentStats))
	})

	t.Run("grading counts must sum to total minus errored", func(t *testing.T) {
		stats := Stats{
			Total: 10, New: 5, Updated: 3, Unchanged: 1, Errored: 1,
			Approved: 5, Pending: 2, Rejected: 1, NotFound: 2,
		}
		_, err := NewBatchRecord(tenant, "spreadsheet", stats, false, "importer", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInconsistentStats))
	})

	t.Run("errored rows are excluded from grading tallies", func(t *testing.T) {
		stats := Stats{Total: 3, Errored: 3}
		record, err := NewBatchRecord(tenant, "spreadsheet", stats, false, "importer", now)
		require.NoError(t, err)
		assert.Equal(t, 3, record.Stats.Errored)
	})
}
