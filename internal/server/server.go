// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "load config, start the server")
//
// DEPENDENCY INJECTION FLOW:
// main.go loads Config from the environment and passes it here.
// New() then builds the whole chain in one place:
//
//	sqlite.DB → services (auth, post, like, feed) → handlers → routes
//
// This is the "composition root" pattern — all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/handler"
	"github.com/sakif/microblog/internal/middleware"
	sqliteRepo "github.com/sakif/microblog/internal/repository/sqlite"
	"github.com/sakif/microblog/internal/service"
)

// Config holds server configuration.
// Using a struct for config (instead of individual parameters) makes it easy to:
// - Add new config options without changing function signatures
// - Pass config around as a single value
// - Load config from env vars in one place (see cmd/server/main.go)
type Config struct {
	Port      int
	DBPath    string // Path to the SQLite database file
	JWTSecret string // Secret for signing session tokens (min 16 chars)

	// GitHub OAuth. All three must be set for the /auth/github routes to
	// exist; with any of them empty, GitHub login is simply off.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection (db). When the server shuts down,
// we must close this connection to flush any pending writes and release the
// file lock. This is handled in Start() during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config.
//
// WIRING:
//  1. Open the database (sqlite.New runs migrations)
//  2. Build the auth primitives (token service, session store, password hasher)
//  3. Build the services on top of the repository interfaces
//  4. Build the handlers on top of the services
//  5. Mount routes with the right middleware per group
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete sqlite.DB)
// - Handlers get services (not repositories or the DB)
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /api/register             → Create an account (public)
// POST   /api/login                → Log in, sets session cookie (public)
// POST   /api/logout               → Log out, clears cookie (public, idempotent)
// GET    /api/me                   → Current user (auth required)
// GET    /api/feed                 → All posts with like counts (public, viewer-aware)
// POST   /api/posts                → Create a post (auth required)
// GET    /api/posts/{id}           → Single post (public, viewer-aware)
// DELETE /api/posts/{id}           → Delete own post (auth required)
// POST   /api/posts/{id}/like      → Toggle like (auth required)
// GET    /auth/github/login        → Redirect to GitHub (if configured)
// GET    /auth/github/callback     → OAuth callback (if configured)
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info and the request ID
func (s *Server) setupRoutes() error {
	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Auth primitives ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	sessions := auth.NewSessions(tokens)
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" && s.config.GitHubCallbackURL != "" {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	// === Services ===
	// s.db (sqlite.DB) implements all four repository interfaces, so it is
	// passed everywhere a repository is needed. The services only see the
	// interface they asked for.
	authService := service.NewAuthService(s.db, sessions, passwords, s.logger)
	postService := service.NewPostService(s.db, s.logger)
	likeService := service.NewLikeService(s.db, s.db, s.logger)
	feedService := service.NewFeedService(s.db, s.db, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	postHandler := handler.NewPostHandler(postService, likeService, s.logger)
	feedHandler := handler.NewFeedHandler(feedService, s.logger)

	requireAuth := auth.RequireAuth(sessions)
	optionalAuth := auth.OptionalAuth(sessions)

	s.router.Route("/api", func(r chi.Router) {
		// Public routes. Logout is public on purpose: logging out with a
		// dead or missing session is a no-op, not an error.
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		// Public-but-viewer-aware routes: anonymous requests work, a valid
		// session additionally annotates viewer_has_liked.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/feed", feedHandler.HandleFeed)
			r.Get("/posts/{id}", postHandler.HandleGetByID)
		})

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Post("/posts", postHandler.HandleCreate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
			r.Post("/posts/{id}/like", postHandler.HandleToggleLike)
		})
	})

	if github != nil {
		s.router.Route("/auth/github", func(r chi.Router) {
			r.Get("/login", authHandler.HandleGitHubLogin)
			r.Get("/callback", authHandler.HandleGitHubCallback)
		})
	}

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
//
// If we skip step 3, the database file might be left in an inconsistent state.
// The `defer s.db.Close()` ensures this happens even if something panics.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("github_login", s.config.GitHubClientID != ""),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
