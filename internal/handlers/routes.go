package handlers

import (
	"net/http"
	"strings"

	"github.com/backpack-city/backpack-api/internal/auth"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth     *auth.AuthHandler
	Locals   *LocalHandler
	Visitors *VisitorHandler
	Codes    *CodeHandler
	Admin    *AdminHandler
	Health   *HealthHandler
	Metrics  http.Handler
}

type RouteOptions struct {
	EnableCORS bool
}

func RegisterRoutes(r *chi.Mux, h Handlers, logger *zap.Logger, opts RouteOptions) huma.API {
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	if opts.EnableCORS {
		r.Use(cors)
	}
	r.Use(adminGuard(h.Auth))

	// Initialize Huma API
	config := huma.DefaultConfig("Backpack Referral API", "1.0.0")
	config.CreateHooks = nil
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(r, config)

	adminOnly := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"bearerAuth": {}}}
		o.Tags = []string{"admin"}
	}

	// Public routes
	huma.Get(api, "/api/health", h.Health.HandleHealth)
	huma.Post(api, "/api/locals/register", h.Locals.HandleRegister)
	huma.Post(api, "/api/validate-code", h.Codes.HandleValidate)
	r.Post("/api/visitors/upload", h.Visitors.HandleUpload)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	// Admin routes
	huma.Post(api, "/api/admin/login", h.Auth.HandleLogin)
	huma.Get(api, "/api/admin/verifications", h.Visitors.HandleList, adminOnly)
	huma.Get(api, "/api/admin/locals", h.Locals.HandleList, adminOnly)
	huma.Post(api, "/api/admin/verify-action", h.Admin.HandleVerifyAction, adminOnly)
	huma.Get(api, "/api/admin/codes/{code}", h.Codes.HandleLookup, adminOnly)
	r.Get("/uploads/{name}", h.Visitors.HandleTicket)

	return api
}

// adminGuard applies the admin token check to admin API paths and stored
// tickets. Login stays open.
func adminGuard(a *auth.AuthHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := a.AdminMiddleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.Path
			if (strings.HasPrefix(p, "/api/admin/") && p != "/api/admin/login") || strings.HasPrefix(p, "/uploads/") {
				guarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
