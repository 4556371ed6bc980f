package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/radio-control/rfkilld/internal/auth"
	"github.com/radio-control/rfkilld/internal/command"
	"github.com/radio-control/rfkilld/internal/telemetry"
)

// StatusProvider exposes the coordinator snapshot the API serves.
type StatusProvider interface {
	Snapshot() command.Status
}

// Timeouts configures the HTTP server timeouts.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// Server is the read-only operational HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *telemetry.Hub
	status     StatusProvider
	metrics    http.Handler
	authMW     *auth.Middleware
	startTime  time.Time
	timeouts   Timeouts
}

// NewServer creates the server. authMW may be nil to disable auth;
// metricsHandler may be nil to omit /metrics.
func NewServer(hub *telemetry.Hub, status StatusProvider, metricsHandler http.Handler, authMW *auth.Middleware, timeouts Timeouts) *Server {
	return &Server{
		hub:       hub,
		status:    status,
		metrics:   metricsHandler,
		authMW:    authMW,
		startTime: time.Now(),
		timeouts:  timeouts,
	}
}

// Start runs the HTTP server until Stop or a listen error.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  s.timeouts.Read,
		WriteTimeout: s.timeouts.Write,
		IdleTimeout:  s.timeouts.Idle,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server")
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}
	return nil
}
