package revalidation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimtrail/pkg/domain"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)

	acme, err := domain.ParseTenant("acme")
	require.NoError(t, err)
	globex, err := domain.ParseTenant("globex")
	require.NoError(t, err)

	save := func(t *testing.T, s *InMemoryStore, tenant *domain.Tenant, processed int) {
		t.Helper()
		record, err := NewCycleRecord(tenant, processed, 0, 0, 0, 0, start, start)
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, record))
	}

	t.Run("lists newest first", func(t *testing.T) {
		s := NewInMemoryStore()
		save(t, s, &acme, 1)
		save(t, s, &acme, 2)

		records, err := s.ListForTenant(ctx, &acme, 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 2, records[0].Processed)
		assert.Equal(t, 1, records[1].Processed)
	})

	t.Run("tenant filter excludes other tenants and global runs", func(t *testing.T) {
		s := NewInMemoryStore()
		save(t, s, &acme, 1)
		save(t, s, &globex, 2)
		save(t, s, nil, 3)

		records, err := s.ListForTenant(ctx, &acme, 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 1, records[0].Processed)
	})

	t.Run("nil tenant lists everything", func(t *testing.T) {
		s := NewInMemoryStore()
		save(t, s, &acme, 1)
		save(t, s, nil, 2)

		records, err := s.ListForTenant(ctx, nil, 10)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("limit truncates", func(t *testing.T) {
		s := NewInMemoryStore()
		for i := 0; i < 5; i++ {
			save(t, s, &acme, i)
		}

		records, err := s.ListForTenant(ctx, &acme, 3)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})
}
