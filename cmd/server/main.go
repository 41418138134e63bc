// Package main is the entry point for the Journalize API server.
//
// main stays minimal: load configuration, build the logger, hand both to
// internal/server. Everything else lives in the internal packages.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sakif/journalize/internal/config"
	"github.com/sakif/journalize/internal/server"
)

func main() {
	// === 1. .env FILE ===
	// Optional: a missing file is normal outside local development, and
	// variables already in the environment are never overwritten.
	_ = godotenv.Load()

	// === 2. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. LOGGING ===
	// Log levels (from least to most severe): Debug → Info → Warn → Error.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.JWTSecretGenerated {
		logger.Warn("JWT_SECRET not set, using a random secret: sessions end when the server restarts")
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
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
