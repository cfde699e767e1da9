package gate

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/chitfund-portal/internal/activity"
	"github.com/frahmantamala/chitfund-portal/internal/session"
	"github.com/frahmantamala/chitfund-portal/internal/transport"
)

type Outcome int

const (
	Bypassed Outcome = iota
	Allowed
	Denied
)

func (o Outcome) String() string {
	switch o {
	case Bypassed:
		return "bypassed"
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	}
	return "unknown"
}

const (
	RootPath          = "/"
	RequestAccessPath = "/request-access"
	AccessDeniedPath  = "/access-denied"
)

// DefaultExcludedPrefixes never reach the session check. Role-scoped subtrees
// are listed because they guard themselves.
func DefaultExcludedPrefixes() []string {
	return []string{
		"/static/",
		"/api/",
		RequestAccessPath,
		AccessDeniedPath,
		"/admin/",
		"/company/",
		"/foreman/",
		"/user/",
		"/dashboard/",
		"/swagger/",
		"/openapi.yml",
		"/favicon.ico",
	}
}

type AccessReader interface {
	ReadAccess(r *http.Request) (session.UserType, session.AccessLevel)
}

// RouteGate checks inbound navigation before routing.
//
// Only the root path is checked. Every other path that is not excluded is
// let through unchecked, so the gate fails open outside the root. A missing
// or malformed cookie counts as no access.
type RouteGate struct {
	reader   AccessReader
	events   activity.Logger
	excluded []string
}

func NewRouteGate(reader AccessReader, events activity.Logger) *RouteGate {
	return &RouteGate{
		reader:   reader,
		events:   events,
		excluded: DefaultExcludedPrefixes(),
	}
}

func (g *RouteGate) isExcluded(path string) bool {
	for _, prefix := range g.excluded {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *RouteGate) Evaluate(r *http.Request) Outcome {
	path := r.URL.Path
	if g.isExcluded(path) {
		return Bypassed
	}
	if path != RootPath {
		return Bypassed
	}

	userType, level := g.reader.ReadAccess(r)
	if userType == session.UserTypeAdmin && level == session.AccessLevelFull {
		return Allowed
	}
	return Denied
}

func (g *RouteGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Evaluate(r) != Denied {
			next.ServeHTTP(w, r)
			return
		}

		if g.events != nil {
			userType, _ := g.reader.ReadAccess(r)
			g.events.Log(r.Context(), activity.SecurityEvent{
				IP:       transport.ClientIP(r),
				Action:   activity.ActionRootAccessDenied,
				Path:     r.URL.Path,
				Severity: activity.SeverityLow,
				Details:  map[string]interface{}{"userType": string(userType)},
			})
		}
		http.Redirect(w, r, RequestAccessPath, http.StatusTemporaryRedirect)
	})
}
