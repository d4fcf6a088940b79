// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the wiring layer: it decides which URL maps to which page
// shell, what middleware runs on every request, and how the server stops.
//
// The page routes are declared once, as a route.Route tree (Table). The same
// tree is flattened into chi registrations and turned into the sidebar, so a
// page and its navigation entry can never drift apart.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/pin-admin/internal/api"
	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/handler"
	"github.com/sakif/pin-admin/internal/middleware"
	"github.com/sakif/pin-admin/internal/route"
	"github.com/sakif/pin-admin/internal/service"
	"github.com/sakif/pin-admin/web"
)

// Config holds server configuration.
type Config struct {
	Port            int
	LoginRatePerMin int

	// ActivityRetention enables the hourly audit-log prune when positive.
	ActivityRetention time.Duration
}

// Deps are the collaborators built by main. Closers are closed, in order,
// after the HTTP server has stopped.
type Deps struct {
	Handler  *handler.Handler
	Admin    *service.Admin
	Sessions *auth.Sessions
	Metrics  *middleware.Metrics
	Closers  []io.Closer
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config Config
	deps   Deps
	logger *slog.Logger
}

// New wires the router. It performs no I/O.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		deps:   deps,
		logger: logger,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Router exposes the configured router, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Table is the console's route tree. Every node below the root group is
// protected; Label, Icon and Order feed the sidebar.
func Table(h *handler.Handler) []route.Route {
	return protected([]route.Route{
		{Path: "/", View: route.GET(h.Dashboard), Label: "Dashboard", Icon: "home", Order: 0},
		{
			Path: "/users", View: route.GET(h.Users), Label: "User Management", Icon: "users", Order: 1,
			Children: []route.Route{
				{Path: "reload", View: route.POST(h.Reload(api.Users, "/users"))},
				{Path: "{id}", View: route.GET(h.ViewUser)},
				{Path: "{id}/role", View: route.POST(h.SetRole)},
				{Path: "{id}/delete", View: route.POST(h.DeleteUser())},
			},
		},
		{
			Path: "/pins", View: route.GET(h.Pins), Label: "Pin Management", Icon: "image", Order: 2,
			Children: []route.Route{
				{Path: "reload", View: route.POST(h.Reload(api.Pins, "/pins"))},
				{Path: "{id}", View: route.GET(h.ViewPin)},
				{Path: "{id}/delete", View: route.POST(h.DeletePin())},
			},
		},
		{
			Path: "/models", View: route.GET(h.Models), Label: "Models", Icon: "cpu", Order: 3,
			Children: []route.Route{
				{Path: "reload", View: route.POST(h.Reload(api.Models, "/models"))},
				{Path: "create", View: route.Methods{
					http.MethodGet:  http.HandlerFunc(h.NewModel),
					http.MethodPost: http.HandlerFunc(h.CreateModel),
				}},
				{Path: "edit/{id}", View: route.Methods{
					http.MethodGet:  http.HandlerFunc(h.EditModel),
					http.MethodPost: http.HandlerFunc(h.UpdateModel),
				}},
			},
		},
		{
			Path: "/tags", View: route.GET(h.Tags), Label: "Tags", Icon: "tag", Order: 4,
			Children: []route.Route{
				{Path: "reload", View: route.POST(h.Reload(api.Tags, "/tags"))},
				{Path: "create", View: route.Methods{
					http.MethodGet:  http.HandlerFunc(h.NewTag),
					http.MethodPost: http.HandlerFunc(h.CreateTag),
				}},
				{Path: "edit/{id}", View: route.Methods{
					http.MethodGet:  http.HandlerFunc(h.EditTag),
					http.MethodPost: http.HandlerFunc(h.UpdateTag),
				}},
				{Path: "{id}/delete", View: route.POST(h.DeleteTag())},
			},
		},
		{
			Path: "/keywords", Label: "Keywords", Icon: "search", Order: 5,
			View: route.Methods{
				http.MethodGet:  http.HandlerFunc(h.Keywords),
				http.MethodPost: http.HandlerFunc(h.SaveKeyword),
			},
			Children: []route.Route{
				{Path: "reload", View: route.POST(h.Reload(api.Keywords, "/keywords"))},
				{Path: "{id}/delete", View: route.POST(h.DeleteKeyword())},
			},
		},
		{
			Path: "/reports", View: route.GET(h.Reports), Label: "Report", Icon: "flag", Order: 6,
			Children: []route.Route{
				{Path: "reload", View: route.POST(h.Reload(api.Reports, "/reports"))},
				{Path: "{id}/delete", View: route.POST(h.DeleteReport())},
			},
		},
		{Path: "/activity", View: route.GET(h.Activity), Label: "Activity", Icon: "clock", Order: 7},
		{Path: "/account", View: route.GET(h.Account), Label: "Account", Icon: "user", Order: 8},
	})
}

func protected(routes []route.Route) []route.Route {
	for i := range routes {
		routes[i].Protected = true
		routes[i].Children = protected(routes[i].Children)
	}
	return routes
}

// setupRoutes configures middleware and routes.
//
// Middleware order matters:
//  1. RequestID, RealIP, Recoverer from chi
//  2. request logging and metrics
//  3. the profile accessor every page layout reads
func (s *Server) setupRoutes() error {
	h, d := s.deps.Handler, s.deps

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	if d.Metrics != nil {
		s.router.Use(d.Metrics.Instrument)
	}
	s.router.Use(auth.Profiles(d.Sessions, d.Admin.Profile, s.logger))

	// === Unprotected endpoints ===
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return fmt.Errorf("opening static assets: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	s.router.Get("/healthz", h.Healthz)
	if d.Metrics != nil {
		s.router.Handle("/metrics", d.Metrics.Handler())
	}

	limiter := middleware.NewRateLimiter(s.config.LoginRatePerMin)
	s.router.Get(auth.LoginPath, h.LoginForm)
	s.router.With(limiter.Limit(http.HandlerFunc(h.LoginLimited))).Post(auth.LoginPath, h.Login)
	s.router.Post("/logout", h.Logout)

	// === Console pages ===
	table := Table(h)
	h.SetNav(route.Sidebar(table))
	route.Register(s.router, route.Flatten(table), auth.RequireToken(d.Sessions), route.RedirectTo(auth.LoginPath))

	return nil
}

// Start runs the server until SIGINT or SIGTERM, then shuts down gracefully:
// stop accepting connections, wait up to 30s for in-flight requests, then
// close the database and the flash store.
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if s.config.ActivityRetention > 0 {
		go s.pruneLoop(ctx, time.Hour)
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// pruneLoop trims the audit log once at start and then every interval.
func (s *Server) pruneLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.deps.Admin.PruneActivity(ctx, s.config.ActivityRetention); err != nil && ctx.Err() == nil {
			s.logger.Warn("activity prune failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) close() {
	for _, c := range s.deps.Closers {
		if err := c.Close(); err != nil {
			s.logger.Warn("closing resource failed", slog.String("error", err.Error()))
		}
	}
}
