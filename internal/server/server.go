// Package server hosts the HTTP transport: the streamable MCP endpoint plus
// a small JSON API for health, version, and derived-tool inspection.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bobmcallan/gqlbridge/internal/tools"
)

// Options carries everything the HTTP server needs.
type Options struct {
	Host       string
	Port       int
	MCPHandler http.Handler
	Specs      []*tools.ToolSpec
	Endpoint   string
	Logger     *slog.Logger
}

// Server manages the HTTP server and routes.
type Server struct {
	router     *http.ServeMux
	server     *http.Server
	logger     *slog.Logger
	mcpHandler http.Handler
	specs      []*tools.ToolSpec
	endpoint   string
}

// New creates a new HTTP server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		logger:     logger,
		mcpHandler: opts.MCPHandler,
		specs:      opts.Specs,
		endpoint:   opts.Endpoint,
	}

	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // 5 min: remote GraphQL operations can be slow
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting",
		"address", s.server.Addr,
		"url", fmt.Sprintf("http://%s/mcp", s.server.Addr),
		"tools", len(s.specs),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
