package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/lora-person/internal/config"
	"github.com/kozaktomas/lora-person/internal/constants"
	"github.com/kozaktomas/lora-person/internal/ingest"
	"github.com/kozaktomas/lora-person/internal/web/handlers"
	"github.com/kozaktomas/lora-person/internal/web/middleware"
)

// Server represents the operator console server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	client     handlers.Backend
	views      *handlers.ViewManager
	logger     *slog.Logger
}

// NewServer creates a new console server talking to the given backend
func NewServer(cfg *config.Config, client handlers.Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	limits := ingest.Limits{MaxAssets: cfg.Limits.MaxAssets, MinForRun: cfg.Limits.MinForRun}

	s := &Server{
		config: cfg,
		router: r,
		client: client,
		views:  handlers.NewViewManager(client, limits, logger),
		logger: logger,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))

	// Set up routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  constants.RequestTimeoutMinutes * time.Minute, // batches of large photos
		WriteTimeout: constants.RequestTimeoutMinutes * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting console server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down console server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
