// Package scheduler runs revalidation cycles on a wall-clock cadence.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"claimtrail/internal/revalidation"
)

// Runner drives one revalidation configuration on a fixed interval. A
// failed cycle is logged and the next tick retries; the loop only stops
// when the context does.
type Runner struct {
	service  *revalidation.Service
	params   revalidation.Params
	interval time.Duration
	logger   *slog.Logger
}

func NewRunner(service *revalidation.Service, params revalidation.Params,
	interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		service:  service,
		params:   params,
		interval: interval,
		logger:   logger,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			record, err := r.service.RunCycle(ctx, r.params)
			if err != nil {
				r.logger.ErrorContext(ctx, "scheduled revalidation cycle failed", "error", err)
				continue
			}
			r.logger.InfoContext(ctx, "scheduled revalidation cycle finished",
				"cycle_id", record.ID.String(),
				"processed", record.Processed,
				"newly_approved", record.NewlyApproved,
			)
		}
	}
}
