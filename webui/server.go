// Package webui provides the HTTP surface for PaintFlow.
// This file contains the Server organism that wires the API together.
package webui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"paintflow/logging"
)

// AuthProvider wraps handlers with authentication. Implemented by
// auth.Middleware; the interface keeps the auth package free to import
// webui without a cycle.
type AuthProvider interface {
	Handler(next http.Handler) http.Handler
	HandlerFunc(next http.HandlerFunc) http.HandlerFunc
}

// RouteRegistrar attaches a group of endpoints to a mux behind the auth
// middleware. Implemented by the API organisms.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux, protect func(http.HandlerFunc) http.HandlerFunc)
}

// ServerConfig configures the Server.
type ServerConfig struct {
	// Port to listen on (default: 3001)
	Port int

	// Host to bind to (default: all interfaces)
	Host string

	// UploadsDir is the directory served under /uploads/
	UploadsDir string

	// ReadTimeout for HTTP requests (default: 30s)
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses. Batch triggers run N sequential
	// AI calls before replying, so this is generous (default: 10m)
	WriteTimeout time.Duration

	// IdleTimeout for keep-alive connections (default: 120s)
	IdleTimeout time.Duration

	// ShutdownTimeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration

	// LogSkipPaths are paths excluded from request logging
	LogSkipPaths []string
}

// DefaultServerConfig returns a ServerConfig with the usual defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            3001,
		UploadsDir:      "./uploads",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    10 * time.Minute,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		LogSkipPaths:    []string{"/health"},
	}
}

// Server is the HTTP server organism.
//
// It composes:
//   - LoggingMiddleware for request logging
//   - an AuthProvider guarding every /api route except auth itself
//   - the API organisms (titles, references, paintings) via RouteRegistrar
//   - a static file handler for rendered images under /uploads/
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     ServerConfig
	logger     *logging.Logger
}

// NewServer creates a Server and registers every route. registerAuth is
// called with the mux so the auth package can attach its own endpoints.
func NewServer(
	config ServerConfig,
	authProvider AuthProvider,
	registerAuth func(mux *http.ServeMux),
	apis []RouteRegistrar,
	logger *logging.Logger,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		config: config,
		logger: logger.Named("webui"),
	}

	mux.HandleFunc("/health", s.handleHealth)

	if config.UploadsDir != "" {
		fs := http.FileServer(http.Dir(config.UploadsDir))
		mux.Handle("/uploads/", http.StripPrefix("/uploads/", fs))
	}

	registerAuth(mux)
	for _, api := range apis {
		api.RegisterRoutes(mux, authProvider.HandlerFunc)
	}

	loggingMw := NewLoggingMiddleware(logger, config.LogSkipPaths)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      loggingMw.Handler(mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Start begins serving. Blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Infof("server listening on %s", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webui: http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("webui: shutdown error: %w", err)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the root handler, for tests driving the server with
// httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
