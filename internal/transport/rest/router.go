package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/chitfund-portal/api"
	"github.com/frahmantamala/chitfund-portal/internal/access"
	"github.com/frahmantamala/chitfund-portal/internal/activity"
	"github.com/frahmantamala/chitfund-portal/internal/auth"
	"github.com/frahmantamala/chitfund-portal/internal/gate"
	"github.com/frahmantamala/chitfund-portal/internal/otp"
	"github.com/frahmantamala/chitfund-portal/internal/portal"
	"github.com/frahmantamala/chitfund-portal/internal/session"
	"github.com/frahmantamala/chitfund-portal/internal/transport/middleware"
	"github.com/frahmantamala/chitfund-portal/internal/transport/swagger"
)

// Dependencies are the handlers and shared services mounted by
// RegisterAllRoutes. Nil handlers leave their routes unmounted.
type Dependencies struct {
	Health     *HealthHandler
	Auth       *auth.Handler
	Authorizer *auth.Authorizer
	Access     *access.Handler
	Activity   *activity.Handler
	OTP        *otp.Handler
	Portal     *portal.Handler

	Issuer         *session.Issuer
	Events         activity.Logger
	AllowedOrigins []string
}

// portalAreas are the role-scoped subtrees guarded for non-admin user types.
var portalAreas = []string{"company", "foreman", "user", "dashboard"}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies, logger *slog.Logger) {
	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger, deps.Events))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.UserContext(deps.Issuer))
	router.Use(gate.NewRouteGate(deps.Issuer, deps.Events).Middleware)

	router.Get(swagger.SpecPath, api.ServeSpec)
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		if deps.Health != nil {
			r.Get("/health", deps.Health.healthCheckHandler)
			r.Get("/ping", deps.Health.pingHandler)
		}

		if deps.Auth != nil {
			r.Post("/auth/verify", deps.Auth.Verify)
		}

		if deps.Access != nil {
			r.Route("/access", func(ar chi.Router) {
				ar.Post("/request", deps.Access.Submit)
				ar.Get("/status", deps.Access.Status)
				ar.Post("/clear", deps.Access.Clear)
			})
		}

		if deps.OTP != nil {
			r.Route("/otp", func(or chi.Router) {
				or.Post("/send", deps.OTP.Send)
				or.Post("/verify", deps.OTP.Verify)
			})
		}

		if deps.Authorizer == nil {
			return
		}

		// admin bearer token required
		r.Group(func(pr chi.Router) {
			pr.Use(deps.Authorizer.RequireRole(auth.RoleAdmin))

			if deps.Access != nil {
				pr.Post("/auth/admin-session", deps.Access.AdminSession)
				pr.Get("/access/requests", deps.Access.List)
			}
			if deps.Activity != nil {
				pr.Get("/activity", deps.Activity.ListEvents)
				pr.Get("/activity/archive", deps.Activity.ListArchived)
			}
		})
	})

	if deps.Portal != nil {
		registerPortal(router, deps)
	}
}

func registerPortal(router *chi.Mux, deps Dependencies) {
	pages := deps.Portal

	router.Get(gate.RootPath, pages.Named("admin-dashboard"))
	router.Get(gate.RequestAccessPath, pages.Named("request-access"))
	router.Get(gate.AccessDeniedPath, pages.Named("access-denied"))

	areaGuard := gate.NewGuard(deps.Issuer, deps.Events)
	for _, area := range portalAreas {
		router.Group(func(gr chi.Router) {
			gr.Use(areaGuard.Middleware)
			gr.Get("/"+area, pages.Area(area))
			gr.Get("/"+area+"/*", pages.Area(area))
		})
	}

	adminGuard := gate.NewGuard(deps.Issuer, deps.Events,
		gate.WithAllowedUserTypes(session.UserTypeAdmin))
	router.Group(func(gr chi.Router) {
		gr.Use(adminGuard.Middleware)
		gr.Get("/admin", pages.Area("admin"))
		gr.Get("/admin/*", pages.Area("admin"))
	})
}

// NewRouter builds a mux with every route registered.
func NewRouter(deps Dependencies, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	RegisterAllRoutes(router, deps, logger)
	return router
}
