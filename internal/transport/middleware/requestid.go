package middleware

import (
	"net/http"

	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/pkg/logger"
)

const TraceHeader = "X-Trace-ID"

// RequestID propagates X-Trace-ID. An inbound value wins, then chi's request
// id, then a fresh uuid.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = chiMiddleware.GetReqID(r.Context())
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := internal.WithTraceID(r.Context(), traceID)
		ctx = logger.With(ctx, "traceID", traceID)
		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
