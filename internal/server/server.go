// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root of the HTTP side:
//
//	sqlite.DB → SnippetService → SnippetHandler
//	sqlite.DB → AuthService    → AuthHandler     (when sign-in is configured)
//	executor  → ExecuteHandler                   (503 when nil)
//	markdown  → PlaygroundHandler
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/swiftsnip/internal/auth"
	"github.com/sakif/swiftsnip/internal/config"
	"github.com/sakif/swiftsnip/internal/executor"
	"github.com/sakif/swiftsnip/internal/handler"
	"github.com/sakif/swiftsnip/internal/markdown"
	"github.com/sakif/swiftsnip/internal/middleware"
	sqliteRepo "github.com/sakif/swiftsnip/internal/repository/sqlite"
	"github.com/sakif/swiftsnip/internal/service"
)

// Server represents the HTTP server and all its dependencies.
// It owns the database connection and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	exec   executor.Executor
}

// New opens the database and wires every route. exec may be nil.
func New(cfg *config.Config, logger *slog.Logger, exec executor.Executor) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		exec:   exec,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                → liveness
// GET    /api/languages          → language selector entries
// POST   /api/preview            → description markdown → HTML
// GET    /api/snippets           → list visible snippets
// POST   /api/snippets           → create
// GET    /api/snippets/{id}      → get one
// PUT    /api/snippets/{id}      → update (owner only, if owned)
// DELETE /api/snippets/{id}      → delete (owner only, if owned)
// POST   /api/execute            → run code in the sandbox
// GET    /auth/github/login      → OAuth redirect         (GitHub configured)
// GET    /auth/github/callback   → OAuth completion       (GitHub configured)
// POST   /auth/logout            → clear session          (GitHub configured)
// GET    /auth/me                → current user           (JWT configured)
//
// MIDDLEWARE ORDER MATTERS:
// RequestID first so the logger can print it; Recoverer before Logger so a
// recovered panic is logged as the 500 it became.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"route not found"}`))
	})

	var tokens *auth.TokenService
	if s.config.AuthEnabled() {
		var err error
		tokens, err = auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
	}

	playgroundHandler := handler.NewPlaygroundHandler(markdown.NewHTML(), s.logger)
	snippetHandler := handler.NewSnippetHandler(service.NewSnippetService(s.db, s.logger), s.logger)
	executeHandler := handler.NewExecuteHandler(s.exec, s.logger)

	s.router.Get("/healthz", playgroundHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))

		r.Get("/languages", playgroundHandler.HandleLanguages)
		r.Post("/preview", playgroundHandler.HandlePreview)

		r.Get("/snippets", snippetHandler.HandleList)
		r.Post("/snippets", snippetHandler.HandleCreate)
		r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
		r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
		r.Delete("/snippets/{id}", snippetHandler.HandleDelete)

		r.Post("/execute", executeHandler.HandleExecute)
	})

	if tokens == nil {
		s.logger.Warn("JWT_SECRET not set, sign-in is disabled")
		return nil
	}

	authService := service.NewAuthService(s.db, tokens, s.logger)

	var provider handler.IdentityProvider
	if s.config.GitHubEnabled() {
		provider = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	} else {
		s.logger.Warn("GitHub OAuth credentials not set, only existing sessions are honoured")
	}
	authHandler := handler.NewAuthHandler(provider, authService, s.config.CookieSecure, s.logger)

	s.router.Route("/auth", func(r chi.Router) {
		if provider != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
		r.Post("/logout", authHandler.HandleLogout)
		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
	})

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.config.ExecutorTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("execution", s.exec != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
