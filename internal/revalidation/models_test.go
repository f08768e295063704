package revalidation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
)

func TestNewCycleRecord(t *testing.T) {
	tenant, err := domain.ParseTenant("acme")
	require.NoError(t, err)
	start := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Minute)

	t.Run("valid tallies build a record", func(t *testing.T) {
		record, err := NewCycleRecord(&tenant, 10, 3, 2, 4, 1, start, end)
		require.NoError(t, err)
		assert.False(t, record.ID.IsZero())
		assert.Equal(t, &tenant, record.Tenant)
		assert.Equal(t, 2*time.Minute, record.Duration())
	})

	t.Run("global run has no tenant", func(t *testing.T) {
		record, err := NewCycleRecord(nil, 0, 0, 0, 0, 0, start, end)
		require.NoError(t, err)
		assert.Nil(t, record.Tenant)
	})

	t.Run("outcome counts cannot exceed processed", func(t *testing.T) {
		_, err := NewCycleRecord(nil, 5, 3, 2, 1, 0, start, end)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInconsistentStats))
	})

	t.Run("cycle cannot finish before it started", func(t *testing.T) {
		_, err := NewCycleRecord(nil, 0, 0, 0, 0, 0, end, start)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInconsistentStats))
	})
}

func TestCycleRecord_ShouldNotify(t *testing.T) {
	start := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)

	cases := []struct {
		name          string
		newlyApproved int
		costChanges   int
		want          bool
	}{
		{"nothing moved", 0, 0, false},
		{"approvals only", 1, 0, true},
		{"cost changes only", 0, 1, true},
		{"both", 2, 3, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := NewCycleRecord(nil, 10, tc.newlyApproved, 0, 0, tc.costChanges, start, start)
			require.NoError(t, err)
			assert.Equal(t, tc.want, record.ShouldNotify())
		})
	}
}
