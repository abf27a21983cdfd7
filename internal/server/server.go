package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/govdocs-network/govdocs-demo/internal/config"
	"github.com/govdocs-network/govdocs-demo/internal/registry"
	"github.com/govdocs-network/govdocs-demo/internal/server/middleware"
)

// DocumentService is the registry surface the HTTP handlers need.
// Implemented by registry.Service; faked in handler tests.
type DocumentService interface {
	Issue(ctx context.Context, identityName string, req registry.IssueRequest) (json.RawMessage, error)
	Read(ctx context.Context, identityName, docID string) (json.RawMessage, error)
	ListAll(ctx context.Context, identityName string) (json.RawMessage, error)
	Revoke(ctx context.Context, identityName, docID string) (json.RawMessage, error)
	UploadAndIssue(ctx context.Context, req registry.UploadRequest) (*registry.UploadResult, error)
}

type Server struct {
	config  *config.ServerEnvironment
	logger  *slog.Logger
	service DocumentService
	router  *chi.Mux
}

func NewServer(
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
	service DocumentService,
) *Server {
	server := &Server{
		config:  cfg,
		logger:  logger,
		service: service,
		router:  chi.NewRouter(),
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(s.config.WriteTimeout))
	s.router.Use(middleware.RequestLogging(s.logger))
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/version", s.handleVersion)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestSizeLimit(s.config.MaxRequestSize))
			r.Post("/documents", s.handleIssueDocument)
			r.Get("/documents", s.handleListDocuments)
			r.Get("/documents/{docID}", s.handleReadDocument)
			r.Put("/documents/{docID}/revoke", s.handleRevokeDocument)
		})

		// document uploads carry file content and get the larger limit
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestSizeLimit(s.config.MaxUploadSize))
			r.Post("/upload", s.handleUploadDocument)
		})
	})
}

// Router exposes the configured handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until ctx is cancelled, then drains in-flight
// requests within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}
