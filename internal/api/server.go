package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"breachline/internal/config"
)

// Server is the HTTP API server with WebSocket support.
type Server struct {
	router      *chi.Mux
	hub         *WebSocketHub
	rateLimiter *IPRateLimiter
	http        *http.Server
	log         zerolog.Logger
}

// NewServer wires the router, rate limiter and WebSocket hub.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// For testing HTTP endpoints use Router() or NewRouter() directly.
func NewServer(sessions Sessions, recordings Recordings, srv config.ServerConfig, limits config.RateLimits, log zerolog.Logger) *Server {
	origins := srv.CORSOrigins
	if origins == nil {
		origins = DefaultOrigins
	}

	s := &Server{
		hub:         NewWebSocketHub(sessions, origins, limits.MaxWSPerIP, log),
		rateLimiter: NewIPRateLimiter(RateLimitConfigFrom(limits)),
		log:         log,
	}
	s.router = NewRouter(RouterConfig{
		Sessions:    sessions,
		Recordings:  recordings,
		RateLimiter: s.rateLimiter,
		CORSOrigins: origins,
		Hub:         s.hub,
		Logger:      log,
	})
	return s
}

// Start begins serving AND starts background workers. It blocks until the
// server is shut down; a clean Shutdown returns nil.
func (s *Server) Start(addr string) error {
	s.rateLimiter.Start()

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("API server listening")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Shutdown stops accepting requests, drops WebSocket clients and stops the
// rate limiter sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	s.rateLimiter.Stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
