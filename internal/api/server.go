// Copyright (c) 2026 OpenShelf. All rights reserved.

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost presentation layer boundary.
  - It acts as the central composition root for the HTTP transport
    framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server
    primitives.

The server exposes two surfaces. The page surface (/, /books, /login,
/dashboard, ...) is session-backed: every navigation runs through the
identity route guard, which resolves the cookie and redirects. The API
surface (/api/v1) is stateless and bearer-token authenticated.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/openshelf/openshelf/internal/catalog"
	"github.com/openshelf/openshelf/internal/circulation"
	"github.com/openshelf/openshelf/internal/identity"
	"github.com/openshelf/openshelf/internal/platform/config"
	"github.com/openshelf/openshelf/internal/platform/constants"
	"github.com/openshelf/openshelf/internal/platform/metrics"
	"github.com/openshelf/openshelf/internal/platform/middleware"
	"github.com/openshelf/openshelf/internal/platform/sec"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Pages serves the JSON page descriptors (home, login, admin console).
	Pages *PageHandler

	// Identity handles auth actions, the post-auth redirector, and member admin.
	Identity *identity.Handler

	// Catalog handles the book catalogue and categories.
	Catalog *catalog.Handler

	// Circulation handles borrowing, returns, reservations, and the dashboard.
	Circulation *circulation.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers both route surfaces.
func NewServer(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	verifier middleware.TokenVerifier,
	guard *identity.Guard,
	m *metrics.Metrics,
	h Handlers,
) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(m.Instrument)
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration and scraping.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// # Page Surface
	// Session-backed navigation behind the route guard.
	r.Group(func(pages chi.Router) {
		pages.Use(guard.Middleware)

		pages.Get("/", h.Pages.landing)
		pages.Get(constants.RouteLogin, h.Pages.loginPage)
		pages.Get(constants.RouteRegister, h.Pages.registerPage)
		pages.Get(constants.RouteAdmin, h.Pages.adminConsole)

		h.Identity.RegisterPageRoutes(pages)
		h.Catalog.RegisterPageRoutes(pages)
		h.Circulation.RegisterPageRoutes(pages)
	})

	// # Application API
	// Stateless bearer-token surface under a versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/", h.Catalog.PublicRoutes())

		api.Group(func(member chi.Router) {
			member.Use(middleware.RequireAuth)
			member.Mount("/me", h.Circulation.MemberRoutes())
		})

		api.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRole(sec.RoleAdmin))
			admin.Mount("/admin", h.Catalog.AdminRoutes())
			admin.Mount("/admin/users", h.Identity.MemberRoutes())
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
