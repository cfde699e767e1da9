package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	errors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/activity"
	"github.com/frahmantamala/chitfund-portal/internal/transport"
)

// RecoveryMiddleware turns a panic into a generic 500 and records a critical
// security event. events may be nil.
func RecoveryMiddleware(logger *slog.Logger, events activity.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				traceID := errors.TraceID(r.Context())
				logger.Error("panic recovered",
					"error", rec,
					"traceID", traceID,
					"method", r.Method,
					"url", r.URL.String(),
					"stack", string(debug.Stack()))

				if events != nil {
					events.Log(r.Context(), activity.SecurityEvent{
						IP:       transport.ClientIP(r),
						Action:   activity.ActionPanicRecovered,
						Path:     r.URL.Path,
						Severity: activity.SeverityCritical,
						Details:  map[string]interface{}{"method": r.Method, "panic": fmt.Sprint(rec), "traceId": traceID},
					})
				}

				transport.WriteAppError(w, errors.NewInternalError("panic recovered", fmt.Errorf("%v", rec)), nil)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
