// Package api exposes the waitlist service over HTTP: the public signup
// endpoint plus admin and health routes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/waitlist-service/internal/rate"
)

// Server is the HTTP front of the service.
type Server struct {
	handler *chi.Mux
	server  *http.Server
}

// NewServer wires the handlers into a router.
func NewServer(h *Handlers, limiter *rate.Limiter) *Server {
	return &Server{handler: SetupRoutes(h, limiter)}
}

// ListenAndServe starts the HTTP server on addr and blocks until it stops.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}
