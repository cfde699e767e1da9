package portal

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/chitfund-portal/internal/gate"
	"github.com/frahmantamala/chitfund-portal/internal/transport"
)

// Page is the descriptor returned in place of a rendered page.
type Page struct {
	Page   string  `json:"page"`
	Path   string  `json:"path"`
	Area   string  `json:"area,omitempty"`
	Viewer *Viewer `json:"viewer,omitempty"`
}

type Viewer struct {
	UserType  string `json:"userType"`
	Email     string `json:"email"`
	RequestID string `json:"requestId"`
}

type Handler struct {
	*transport.BaseHandler
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(logger)}
}

// Named returns a handler describing a fixed page.
func (h *Handler) Named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, r, Page{Page: name, Path: r.URL.Path})
	}
}

// Area returns a handler for a role-scoped subtree. The guard in front of it
// has already placed the credential on the context.
func (h *Handler) Area(area string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := strings.Trim(strings.TrimPrefix(r.URL.Path, "/"+area), "/")
		if sub == "" {
			sub = "home"
		}
		h.write(w, r, Page{Page: sub, Path: r.URL.Path, Area: area})
	}
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, page Page) {
	if cred, ok := gate.CredentialFromContext(r.Context()); ok {
		page.Viewer = &Viewer{
			UserType:  string(cred.UserType),
			Email:     cred.Email,
			RequestID: cred.RequestID,
		}
	}
	h.WriteJSON(w, http.StatusOK, page)
}
