package app

import (
	"log"
	"net/http"
	"time"

	"github.com/tokengate/tokengate/internal/config"
)

// Server wraps the HTTP server with its configuration
type Server struct {
	httpServer *http.Server
	config     *config.Config
}

// NewServer creates a new configured HTTP server instance
func NewServer(cfg *config.Config, handler http.Handler) *Server {
	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: handler,
		// Timeouts must outlast the upstream round trip, or slow
		// completions get cut off mid-response
		ReadTimeout:  cfg.UpstreamTimeout + 30*time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 30*time.Second,
	}

	return &Server{
		httpServer: srv,
		config:     cfg,
	}
}

// Start begins listening and serving HTTP requests
func (s *Server) Start() error {
	log.Printf("Tokengate server starting on http://localhost%s", s.config.ServerPort)

	if err := s.httpServer.ListenAndServe(); err != nil {
		return err
	}
	return nil
}
