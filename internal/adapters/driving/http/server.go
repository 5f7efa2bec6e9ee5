package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/schemarag/internal/core/ports/driving"
)

// Readiness reports whether grounded answers can be served.
type Readiness interface {
	Ready() bool
}

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	ragService   driving.RAGService
	indexService driving.IndexService
	authService  driving.AuthService
	readiness    Readiness
	lock         Pinger // optional
	corsOrigins  []string
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	Version     string
	CORSOrigins []string

	// WriteTimeout must exceed the generation timeout.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8000,
		Version:      "dev",
		CORSOrigins:  []string{"*"},
		WriteTimeout: 150 * time.Second,
	}
}

// Deps are the services the server routes to.
type Deps struct {
	RAG       driving.RAGService
	Index     driving.IndexService
	Auth      driving.AuthService
	Readiness Readiness
	Lock      Pinger // optional
	Logger    *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = DefaultConfig().WriteTimeout
	}

	s := &Server{
		router:       http.NewServeMux(),
		version:      cfg.Version,
		logger:       logger,
		ragService:   deps.RAG,
		indexService: deps.Index,
		authService:  deps.Auth,
		readiness:    deps.Readiness,
		lock:         deps.Lock,
		corsOrigins:  cfg.CORSOrigins,
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	apiKey := NewAPIKeyMiddleware(s.authService, s.logger)

	// Public
	s.router.HandleFunc("GET /{$}", s.handleRoot)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	// Protected
	s.router.Handle("POST /analyze-schemas/",
		apiKey.Authenticate(http.HandlerFunc(s.handleAnalyzeSchemas)))
	s.router.Handle("POST /chat-with-results/",
		apiKey.Authenticate(http.HandlerFunc(s.handleChatWithResults)))
}

// Handler returns the router wrapped in recovery, logging and CORS middleware.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewCORSMiddleware(s.corsOrigins).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	return h
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
