package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fabriciogeog/controle-doc-medica/pkg/config"
	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
)

// Server wraps the HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// New creates a server serving the given handler
func New(cfg *config.ServerConfig, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
		},
		logger: log,
	}
}

// Start begins serving; it blocks until the server stops
func (s *Server) Start() error {
	s.logger.WithField("address", s.httpServer.Addr).Info("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server, draining in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
