// Package httptransport assembles the HTTP surface: middleware chain,
// authenticated API routes, and the unauthenticated ops endpoints.
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	claimsHandler "claimtrail/internal/claims/handler"
	ingestHandler "claimtrail/internal/ingest/handler"
	"claimtrail/internal/platform/middleware"
	revalidationHandler "claimtrail/internal/revalidation/handler"
	"claimtrail/pkg/platform/httputil"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Ingest       *ingestHandler.Handler
	Claims       *claimsHandler.Handler
	Revalidation *revalidationHandler.Handler
	Auth         func(http.Handler) http.Handler
	Metrics      *middleware.HTTPMetrics
	Health       func(ctx context.Context) error
}

// NewRouter wires all endpoints. Business routes sit behind bearer auth;
// health and metrics stay open for the platform probes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestScope)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument)
	}

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth)
		}
		deps.Ingest.Register(r)
		deps.Claims.Register(r)
		deps.Revalidation.Register(r)
	})

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable,
					map[string]string{"status": "degraded", "error": err.Error()})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
