package api

import (
	"net/http"
	"time"

	"github.com/radio-control/rfkilld/internal/auth"
)

// RegisterRoutes wires the operational endpoints onto the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	const apiV1 = "/api/v1"

	// Health is always unauthenticated.
	mux.HandleFunc(apiV1+"/health", s.handleHealth)

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	if s.authMW == nil {
		mux.HandleFunc(apiV1+"/status", s.handleStatus)
		mux.HandleFunc(apiV1+"/telemetry", s.handleTelemetry)
		return
	}

	mux.HandleFunc(apiV1+"/status",
		s.authMW.RequireAuth(s.authMW.RequireScope(auth.ScopeRead)(s.handleStatus)))
	mux.HandleFunc(apiV1+"/telemetry",
		s.authMW.RequireAuth(s.authMW.RequireScope(auth.ScopeTelemetry)(s.handleTelemetry)))
}

// handleHealth handles GET /api/v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed")
		return
	}

	WriteSuccess(w, map[string]any{
		"status":        "ok",
		"uptimeSeconds": int64(time.Since(s.startTime).Seconds()),
	})
}

// handleStatus handles GET /api/v1/status with the coordinator snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed")
		return
	}
	if s.status == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Coordinator not available")
		return
	}

	WriteSuccess(w, s.status.Snapshot())
}

// handleTelemetry handles GET /api/v1/telemetry as an SSE stream.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed")
		return
	}
	if s.hub == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Telemetry not available")
		return
	}

	_ = s.hub.Subscribe(r.Context(), w, r)
}
