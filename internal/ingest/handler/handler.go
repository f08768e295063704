package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"claimtrail/internal/ingest"
	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
	"claimtrail/pkg/platform/httputil"
	"claimtrail/pkg/requestcontext"
)

// Service defines the interface for import operations.
type Service interface {
	ImportBatch(ctx context.Context, tenant domain.Tenant, source string,
		rows []ingest.RowInput, cfg rules.Config, actor string) (*ingest.BatchRecord, error)
}

// Store lists past batch records for the read side.
type Store interface {
	ListForTenant(ctx context.Context, tenant domain.Tenant, limit int) ([]*ingest.BatchRecord, error)
}

// Handler wires import endpoints to the ingest service.
type Handler struct {
	service Service
	store   Store
	rules   rules.Config
	logger  *slog.Logger
}

// New constructs an ingest handler with its dependencies.
func New(service Service, store Store, rulesCfg rules.Config, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		store:   store,
		rules:   rulesCfg,
		logger:  logger,
	}
}

// Register mounts import endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/imports", h.HandleImport)
	r.Get("/v1/imports", h.HandleList)
}

// HandleImport handles POST /v1/imports requests.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actor := requestcontext.Actor(ctx)
	if actor == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ImportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.ImportBatch(ctx, req.ParsedTenant(), req.Source,
		req.DomainRows(), h.rules, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch import failed",
			"request_id", requestID,
			"tenant", req.Tenant,
			"rows", len(req.Rows),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch import accepted",
		"request_id", requestID,
		"tenant", req.Tenant,
		"batch_id", record.ID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromRecord(record))
}

// HandleList handles GET /v1/imports requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenant, err := domain.ParseTenant(r.URL.Query().Get("tenant"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.store.ListForTenant(ctx, tenant, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch list failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant", tenant.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list batches"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}
