package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jrigden/muckamuck/internal/handler"
	"github.com/jrigden/muckamuck/internal/middleware"
)

// Routes bundles the handlers mounted by NewRouter.
type Routes struct {
	Root      *handler.Handler
	Health    *handler.HealthHandler
	Users     *handler.UserHandler
	Sites     *handler.SiteHandler
	Snapshots *handler.SnapshotHandler
	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

// RouterConfig holds the middleware settings.
type RouterConfig struct {
	Logger             *slog.Logger
	IsDevelopment      bool
	MaxRequestBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(routes Routes, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, cfg.IsDevelopment))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))

	// Health endpoints
	r.Get("/healthz", routes.Health.Healthz)
	r.Get("/readyz", routes.Health.Readyz)

	// Root info endpoint
	r.Get("/", routes.Root.Hello)

	if routes.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", routes.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BodyLimit(cfg.MaxRequestBodySize))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", routes.Users.Create)
			r.Get("/{uuid}", routes.Users.Get)
			r.Patch("/{uuid}", routes.Users.Update)
			r.Put("/{uuid}/password", routes.Users.ChangePassword)
			r.Get("/{uuid}/sites", routes.Users.ListSites)
			r.Post("/{uuid}/snapshot", routes.Users.Snapshot)
		})

		r.Route("/sites", func(r chi.Router) {
			r.Post("/", routes.Sites.Create)
			r.Get("/{uuid}", routes.Sites.Get)
			r.Patch("/{uuid}", routes.Sites.Update)
			r.Post("/{uuid}/snapshot", routes.Sites.Snapshot)
		})

		r.Post("/snapshots", routes.Snapshots.ExportAll)
	})

	// 404 and 405 handlers
	r.NotFound(routes.Root.NotFound)
	r.MethodNotAllowed(routes.Root.MethodNotAllowed)

	return r
}
