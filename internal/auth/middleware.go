package auth

import (
	"context"
	"net/http"

	errors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/activity"
	"github.com/frahmantamala/chitfund-portal/internal/transport"
	"github.com/frahmantamala/chitfund-portal/pkg/logger"
)

// Authorizer checks bearer tokens for callers that need a specific role.
type Authorizer struct {
	verifier TokenVerifier
	events   activity.Logger
}

func NewAuthorizer(verifier TokenVerifier, events activity.Logger) *Authorizer {
	return &Authorizer{verifier: verifier, events: events}
}

// Authorize verifies token and compares its role with role. Every failure is
// reported as ErrInvalidToken. A role mismatch records exactly one
// invalid_token_verification event; an unusable token records
// token_verification_failed. An empty role accepts any valid token.
func (a *Authorizer) Authorize(ctx context.Context, token string, role Role, ip, path string) (*TokenPayload, error) {
	if token == "" {
		a.record(ctx, activity.SecurityEvent{
			IP:       ip,
			Action:   activity.ActionTokenVerificationFailed,
			Path:     path,
			Severity: activity.SeverityMedium,
			Details:  map[string]interface{}{"reason": "missing token", "attemptedRole": string(role)},
		})
		return nil, errors.ErrMissingToken
	}

	payload := a.verifier.Verify(token)
	if payload == nil {
		a.record(ctx, activity.SecurityEvent{
			IP:       ip,
			Action:   activity.ActionTokenVerificationFailed,
			Path:     path,
			Severity: activity.SeverityMedium,
			Details:  map[string]interface{}{"attemptedRole": string(role)},
		})
		return nil, errors.ErrInvalidToken
	}

	if role != "" && payload.Role != role {
		a.record(ctx, activity.SecurityEvent{
			IP:       ip,
			UserID:   payload.UserID,
			Action:   activity.ActionInvalidTokenVerification,
			Path:     path,
			Severity: activity.SeverityMedium,
			Details: map[string]interface{}{
				"attemptedRole": string(role),
				"tokenRole":     string(payload.Role),
				"ip":            ip,
			},
		})
		return nil, errors.ErrInvalidToken
	}

	return payload, nil
}

func (a *Authorizer) record(ctx context.Context, ev activity.SecurityEvent) {
	if a.events != nil {
		a.events.Log(ctx, ev)
	}
}

// RequireRole guards a route with a bearer token of the given role.
func (a *Authorizer) RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, err := a.Authorize(r.Context(), transport.BearerToken(r), role, transport.ClientIP(r), r.URL.Path)
			if err != nil {
				transport.WriteAppError(w, err, logger.From(r.Context()))
				return
			}

			ctx := ContextWithPayload(r.Context(), payload)
			ctx = logger.With(ctx, "userID", payload.UserID, "role", string(payload.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
