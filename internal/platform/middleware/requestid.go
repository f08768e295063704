// Package middleware holds the HTTP middleware chain: request scoping,
// bearer auth, and request metrics.
package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"claimtrail/pkg/requestcontext"
)

const requestIDHeader = "X-Request-Id"

// RequestScope injects a request id and a fixed request time into the
// context. Every timestamp written while serving one request comes from
// that single instant, so a batch's versions never straddle a clock tick.
func RequestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())

		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
