// Package main is the entry point for the microblog server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal — its job is to:
// 1. Read configuration (from env vars)
// 2. Create dependencies (logger, database connections, etc.)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
// This separation makes the app testable and its components reusable.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// A project might have multiple executables (e.g., cmd/server, cmd/migrate, cmd/cli).
// Each gets its own directory with its own main.go.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/sakif/microblog/internal/server"
)

// config is loaded from the environment by env.Parse. Struct tags declare
// the variable name and default in one place, instead of a pile of
// os.Getenv calls with hand-rolled fallbacks.
type config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"data/microblog.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// JWT_SECRET must be a long random string. Generate one with:
	//   JWT_SECRET=$(openssl rand -hex 32)
	// The server refuses to start without it — silently falling back to a
	// hardcoded secret would make every deployment forgeable.
	JWTSecret string `env:"JWT_SECRET,required"`

	// GitHub OAuth is optional. Leave the client ID/secret unset and the
	// /auth/github routes are simply not registered.
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`
}

func main() {
	// === 1. READ CONFIGURATION ===
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		// The logger isn't built yet (its level comes from config), so this
		// one error goes to stderr directly.
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// slog.New creates a structured logger. slog.NewTextHandler outputs
	// human-readable logs to the terminal.
	//
	// Log levels (from least to most severe): Debug → Info → Warn → Error
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// === 3. DATABASE PATH ===
	// Ensure the data directory exists.
	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. GITHUB CALLBACK DEFAULT ===
	// Only fill a default callback when OAuth is otherwise configured; an
	// empty client ID keeps GitHub login off entirely.
	if cfg.GitHubClientID != "" && cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		DBPath:             cfg.DBPath,
		JWTSecret:          cfg.JWTSecret,
		GitHubClientID:     cfg.GitHubClientID,
		GitHubClientSecret: cfg.GitHubClientSecret,
		GitHubCallbackURL:  cfg.GitHubCallbackURL,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
