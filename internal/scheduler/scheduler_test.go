package scheduler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimtrail/internal/claims"
	"claimtrail/internal/external"
	"claimtrail/internal/revalidation"
	"claimtrail/internal/rules"
)

func TestRunner_StopsWithContext(t *testing.T) {
	service := revalidation.New(claims.NewInMemoryStore(), revalidation.NewInMemoryStore(),
		external.NewStubSystem(), nil, slog.New(slog.DiscardHandler), nil)
	runner := NewRunner(service, revalidation.Params{Config: rules.DefaultConfig()},
		time.Hour, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on context cancellation")
	}
}

func TestRunner_TicksRunCycles(t *testing.T) {
	claimStore := claims.NewInMemoryStore()
	cycleStore := revalidation.NewInMemoryStore()
	service := revalidation.New(claimStore, cycleStore,
		external.NewStubSystem(), nil, slog.New(slog.DiscardHandler), nil)
	runner := NewRunner(service, revalidation.Params{Config: rules.DefaultConfig()},
		5*time.Millisecond, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = runner.Run(ctx)

	records, err := cycleStore.ListForTenant(context.Background(), nil, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, records, "at least one cycle should have run")
}
