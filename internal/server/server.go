// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It decides which store and revocation
// list to use, builds services and handlers on top of them, maps URL
// patterns to handlers, and runs the HTTP server until a signal arrives.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → New()
//	  repository.Store (memory | sqlite)
//	  auth.Revoker    (memory | redis)
//	  → JournalService, FolderService, TransferService, AuthService
//	  → JournalHandler, FolderHandler, TransferHandler, AuthHandler
//
// This is the composition root: nothing else in the tree constructs a store
// or reads configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/journalize/internal/auth"
	"github.com/sakif/journalize/internal/config"
	"github.com/sakif/journalize/internal/handler"
	"github.com/sakif/journalize/internal/middleware"
	"github.com/sakif/journalize/internal/repository"
	"github.com/sakif/journalize/internal/repository/memory"
	sqliteRepo "github.com/sakif/journalize/internal/repository/sqlite"
	"github.com/sakif/journalize/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish after
// SIGINT/SIGTERM.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store and, with Redis configured, the Redis client.
// Close releases both; Start calls it on the way out.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	revoker auth.Revoker
}

// New builds a Server from cfg. On error everything opened so far is
// closed again.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	revoker, err := openRevoker(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		revoker: revoker,
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		if cfg.DBPath != ":memory:" {
			// os.MkdirAll works like `mkdir -p`.
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		logger.Info("using sqlite store", slog.String("path", cfg.DBPath))
		return db, nil
	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}
}

func openRevoker(cfg *config.Config, logger *slog.Logger) (auth.Revoker, error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryRevoker(), nil
	}
	rv, err := auth.NewRedisRevoker(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Info("using redis revocation list")
	return rv, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                → liveness
//	GET    /auth/github/login      → GitHub redirect (404 when not configured)
//	GET    /auth/github/callback   → GitHub callback
//	POST   /api/register           → create account
//	POST   /api/login              → sign in
//	POST   /api/logout             → revoke token, clear cookie
//	--- below here RequireAuth ---
//	GET    /api/user               → current user
//	POST   /api/change-password
//	POST   /api/journals           → create
//	GET    /api/journals           → list
//	GET    /api/journals/{id}      → read
//	PATCH  /api/journals/{id}      → partial update
//	DELETE /api/journals/{id}
//	POST   /api/folders
//	GET    /api/folders
//	GET    /api/export             → download journals as JSON
//	POST   /api/import
//	POST   /api/upload             → 501
//
// MIDDLEWARE ORDER MATTERS:
// CORS first so preflight requests never reach auth, then request id and
// real ip so the logger can see them, then Recoverer inside the logger so a
// panic is logged as the 500 it becomes.
func (s *Server) setupRoutes() error {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
		AllowCredentials: true,
	})

	s.router.Use(c.Handler)
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	} else {
		s.logger.Info("GitHub sign-in disabled, GITHUB_CLIENT_ID/GITHUB_CLIENT_SECRET not set")
	}

	// DEPENDENCY CHAIN:
	// s.store satisfies every repository interface; services get only the
	// ones they need.
	accounts := service.NewAuthService(s.store, tokens, passwords, s.revoker, s.logger)
	journals := service.NewJournalService(s.store, s.store, s.logger)
	folders := service.NewFolderService(s.store, s.logger)
	transfer := service.NewTransferService(s.store, s.store, s.logger)

	authHandler := handler.NewAuthHandler(accounts, github, s.config.CookieSecure, s.logger)
	journalHandler := handler.NewJournalHandler(journals, s.logger)
	folderHandler := handler.NewFolderHandler(folders, s.logger)
	transferHandler := handler.NewTransferHandler(transfer, s.logger)
	authn := auth.NewAuthenticator(tokens, s.revoker, s.logger)

	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/auth/github", func(r chi.Router) {
		r.Get("/login", authHandler.HandleGitHubLogin)
		r.Get("/callback", authHandler.HandleGitHubCallback)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth)

			r.Get("/user", authHandler.HandleMe)
			r.Post("/change-password", authHandler.HandleChangePassword)

			r.Route("/journals", func(r chi.Router) {
				r.Post("/", journalHandler.HandleCreate)
				r.Get("/", journalHandler.HandleList)
				r.Get("/{id}", journalHandler.HandleGetByID)
				r.Patch("/{id}", journalHandler.HandleUpdate)
				r.Delete("/{id}", journalHandler.HandleDelete)
			})

			r.Post("/folders", folderHandler.HandleCreate)
			r.Get("/folders", folderHandler.HandleList)

			r.Get("/export", transferHandler.HandleExport)
			r.Post("/import", transferHandler.HandleImport)
			r.Post("/upload", handler.HandleUpload)
		})
	})

	return nil
}

// Handler exposes the router, for tests and for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store and the revocation list.
func (s *Server) Close() error {
	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if c, ok := s.revoker.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections on SIGINT/SIGTERM
//  2. Wait up to shutdownTimeout for in-flight requests
//  3. Close the store (flushes the SQLite WAL) and the Redis client
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("failed to release resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("environment", s.config.Environment),
			slog.String("store", s.config.Store),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
