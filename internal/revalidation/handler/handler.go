package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"claimtrail/internal/revalidation"
	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
	"claimtrail/pkg/platform/httputil"
	"claimtrail/pkg/requestcontext"
)

// Service defines the interface for revalidation operations.
type Service interface {
	RunCycle(ctx context.Context, params revalidation.Params) (*revalidation.CycleRecord, error)
}

// Store lists past cycle records for the read side.
type Store interface {
	ListForTenant(ctx context.Context, tenant *domain.Tenant, limit int) ([]*revalidation.CycleRecord, error)
}

// Handler wires revalidation endpoints to the service.
type Handler struct {
	service Service
	store   Store
	rules   rules.Config
	logger  *slog.Logger
}

// New constructs a revalidation handler with its dependencies.
func New(service Service, store Store, rulesCfg rules.Config, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		store:   store,
		rules:   rulesCfg,
		logger:  logger,
	}
}

// Register mounts revalidation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/revalidations", h.HandleRun)
	r.Get("/v1/revalidations", h.HandleList)
}

// HandleRun handles POST /v1/revalidations requests: one on-demand cycle,
// outside the scheduler's cadence.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	if requestcontext.Actor(ctx) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RunRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.RunCycle(ctx, revalidation.Params{
		Tenant:           req.ParsedTenant(),
		EligibleGradings: req.ParsedGradings(),
		MaxClaims:        req.MaxClaims,
		Config:           h.rules,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "on-demand revalidation failed",
			"request_id", requestID,
			"tenant", req.Tenant,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "on-demand revalidation finished",
		"request_id", requestID,
		"cycle_id", record.ID.String(),
		"processed", record.Processed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromRecord(record))
}

// HandleList handles GET /v1/revalidations requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var tenant *domain.Tenant
	if raw := strings.TrimSpace(r.URL.Query().Get("tenant")); raw != "" {
		parsed, err := domain.ParseTenant(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		tenant = &parsed
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.store.ListForTenant(ctx, tenant, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "cycle list failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cycles"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}
