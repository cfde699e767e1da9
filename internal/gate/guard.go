package gate

import (
	"context"
	"net/http"

	"github.com/frahmantamala/chitfund-portal/internal/activity"
	"github.com/frahmantamala/chitfund-portal/internal/session"
	"github.com/frahmantamala/chitfund-portal/internal/transport"
)

type Verdict int

const (
	Render Verdict = iota
	RedirectRequestAccess
	RedirectAccessDenied
)

type CredentialReader interface {
	Read(r *http.Request) (*session.Credential, bool)
}

// Guard re-checks role membership for a role-scoped subtree. "Never
// requested" and "wrong role" lead to different destinations.
type Guard struct {
	AllowedUserTypes []session.UserType
	RedirectTo       string
	DeniedPath       string

	reader CredentialReader
	events activity.Logger
}

type GuardOption func(*Guard)

func WithAllowedUserTypes(types ...session.UserType) GuardOption {
	return func(g *Guard) { g.AllowedUserTypes = types }
}

func WithRedirectTo(path string) GuardOption {
	return func(g *Guard) { g.RedirectTo = path }
}

func NewGuard(reader CredentialReader, events activity.Logger, opts ...GuardOption) *Guard {
	g := &Guard{
		AllowedUserTypes: session.NonAdminUserTypes(),
		RedirectTo:       RequestAccessPath,
		DeniedPath:       AccessDeniedPath,
		reader:           reader,
		events:           events,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) Evaluate(cred *session.Credential) Verdict {
	if cred == nil {
		return RedirectRequestAccess
	}
	if !cred.Allows(g.AllowedUserTypes) {
		return RedirectAccessDenied
	}
	return Render
}

type credentialKey struct{}

func CredentialFromContext(ctx context.Context) (*session.Credential, bool) {
	c, ok := ctx.Value(credentialKey{}).(*session.Credential)
	return c, ok && c != nil
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred, ok := g.reader.Read(r)
		if !ok {
			cred = nil
		}

		switch g.Evaluate(cred) {
		case RedirectRequestAccess:
			g.record(r, activity.SecurityEvent{
				Action:   activity.ActionMissingSession,
				Severity: activity.SeverityLow,
			})
			http.Redirect(w, r, g.RedirectTo, http.StatusTemporaryRedirect)
		case RedirectAccessDenied:
			g.record(r, activity.SecurityEvent{
				UserID:   cred.Email,
				Action:   activity.ActionUnauthorizedRoleAccess,
				Severity: activity.SeverityMedium,
				Details:  map[string]interface{}{"userType": string(cred.UserType), "requestId": cred.RequestID},
			})
			http.Redirect(w, r, g.DeniedPath, http.StatusTemporaryRedirect)
		case Render:
			ctx := context.WithValue(r.Context(), credentialKey{}, cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

func (g *Guard) record(r *http.Request, ev activity.SecurityEvent) {
	if g.events == nil {
		return
	}
	ev.IP = transport.ClientIP(r)
	ev.Path = r.URL.Path
	g.events.Log(r.Context(), ev)
}
