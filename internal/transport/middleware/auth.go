package middleware

import (
	"net/http"

	"github.com/frahmantamala/chitfund-portal/internal/session"
	"github.com/frahmantamala/chitfund-portal/pkg/logger"
)

type CredentialReader interface {
	Read(r *http.Request) (*session.Credential, bool)
}

// UserContext tags the request logger with the portal session, when one is
// present. It never rejects a request.
func UserContext(reader CredentialReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, ok := reader.Read(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := logger.With(r.Context(), "userType", string(cred.UserType), "requestId", cred.RequestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
