package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"claimtrail/internal/claims"
	"claimtrail/pkg/domain"
	dErrors "claimtrail/pkg/domain-errors"
	"claimtrail/pkg/platform/httputil"
	"claimtrail/pkg/platform/sentinel"
	"claimtrail/pkg/requestcontext"
)

// Store defines the read side the claim endpoints need.
type Store interface {
	FindByNumber(ctx context.Context, tenant domain.Tenant, number domain.ClaimNumber) (*claims.Claim, error)
}

// Handler serves claim lookups and version trails.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// New constructs a claims handler with its dependencies.
func New(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts claim endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/claims/{number}", h.HandleGet)
	r.Get("/v1/claims/{number}/versions", h.HandleVersions)
}

// HandleGet handles GET /v1/claims/{number} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	claim, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromClaim(claim))
}

// HandleVersions handles GET /v1/claims/{number}/versions requests.
func (h *Handler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	claim, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVersions(claim))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*claims.Claim, bool) {
	ctx := r.Context()

	tenant, err := domain.ParseTenant(r.URL.Query().Get("tenant"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	number, err := domain.ParseClaimNumber(chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}

	claim, err := h.store.FindByNumber(ctx, tenant, number)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "claim not found"))
			return nil, false
		}
		h.logger.ErrorContext(ctx, "claim lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant", tenant.String(),
			"claim_number", number.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claim"))
		return nil, false
	}
	return claim, true
}
