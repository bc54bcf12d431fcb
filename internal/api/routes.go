// Package api provides the HTTP API server for the uplink reporting service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/uplink-io/uplink/internal/api/middleware"
)

const (
	serviceName            = "uplink-reporter"
	serviceVersion         = "v1.0.0" // TODO: inject version at build time
	healthCheckTimeout     = 2 * time.Second
	contentTypeProblemJSON = "application/problem+json"
)

type (
	// Version represents the API version response structure.
	Version struct {
		Version     string `json:"version"`
		ServiceName string `json:"serviceName"`
		BuildInfo   string `json:"buildInfo,omitempty"`
	}

	// HealthStatus represents the health check response structure.
	HealthStatus struct {
		Status      string `json:"status"`
		ServiceName string `json:"serviceName"`
		Version     string `json:"version"`
		Uptime      string `json:"uptime,omitempty"`
	}

	// Route represents an HTTP route configuration with a path and handler.
	Route struct {
		Path    string           // The URL path for this route (e.g., "GET /ping")
		Handler http.HandlerFunc // The HTTP handler function for this route
	}
)

// setupRoutes sets up all HTTP routes for the API server.
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Operational endpoints
	s.registerRoutes(
		mux,
		Route{"GET /ping", s.handlePing},       // K8s liveness probe
		Route{"GET /ready", s.handleReady},     // K8s readiness probe
		Route{"GET /health", s.handleHealth},   // Basic health check - status, uptime, version
		Route{"GET /version", s.handleVersion}, // Service version
		Route{"/", s.handleNotFound},           // Catch-all handler for 404 responses
	)

	// Report endpoints serving the latest materialized snapshots
	s.registerRoutes(
		mux,
		Route{"GET /api/v1/reports/top-devices", s.handleTopDevices},
		Route{"GET /api/v1/reports/weak-devices", s.handleWeakDevices},
		Route{"GET /api/v1/reports/gateway-stats", s.handleGatewayStats},
		Route{"GET /api/v1/reports/duplicates", s.handleDuplicateDevices},
		Route{"GET /api/v1/reports/high-temperature", s.handleHighTemperature},
	)
}

// registerRoutes registers HTTP routes with the mux.
func (s *Server) registerRoutes(mux *http.ServeMux, routes ...Route) {
	for _, route := range routes {
		mux.Handle(route.Path, route.Handler)
	}
}

// handlePing responds to ping requests for basic server validation.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("X-Uplink-Version", serviceVersion)
	w.WriteHeader(http.StatusOK)

	_, err := w.Write([]byte("pong"))
	if err != nil {
		s.logger.Error("Failed to write ping response",
			slog.String("correlation_id", correlationID),
			slog.String("error", err.Error()),
		)
	}
}

// handleReady responds to Kubernetes readiness probes with storage backend health checks.
//
// Response codes:
//   - 200 OK: The storage backend is healthy and ready to serve reports
//   - 503 Service Unavailable: Storage backend is unhealthy or unreachable
//
// K8s readiness probes use this endpoint to determine if the pod should receive traffic.
// If this endpoint returns 503, K8s will stop routing requests to the pod until it recovers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	if s.healthChecker == nil {
		s.logger.Warn("Health checker not configured - readiness check disabled",
			slog.String("correlation_id", correlationID),
		)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)

		_, err := w.Write([]byte("ready"))
		if err != nil {
			s.logger.Error("Failed to write ready response",
				slog.String("correlation_id", correlationID),
				slog.String("error", err.Error()),
			)
		}

		return
	}

	// Create context with 2-second timeout for storage health check
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.healthChecker.HealthCheck(ctx); err != nil {
		s.logger.Error("Storage health check failed",
			slog.String("correlation_id", correlationID),
			slog.String("error", err.Error()),
		)

		// Return 503 Service Unavailable if storage backend is unhealthy
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusServiceUnavailable)

		_, writeErr := w.Write([]byte("storage unavailable"))
		if writeErr != nil {
			s.logger.Error("Failed to write unavailable response",
				slog.String("correlation_id", correlationID),
				slog.String("error", writeErr.Error()),
			)
		}

		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write([]byte("ready"))
	if err != nil {
		s.logger.Error("Failed to write ready response",
			slog.String("correlation_id", correlationID),
			slog.String("error", err.Error()),
		)
	}
}

// handleHealth returns detailed health status information.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	// Calculate uptime if server has started
	var uptime string

	if !s.startTime.IsZero() {
		duration := time.Since(s.startTime)
		uptime = duration.Round(time.Second).String()
	}

	health := HealthStatus{
		Status:      "healthy",
		ServiceName: serviceName,
		Version:     serviceVersion,
		Uptime:      uptime,
	}

	s.writeJSON(w, r, health)
}

// handleVersion returns the service name and version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	version := Version{
		Version:     serviceVersion,
		ServiceName: serviceName,
	}

	s.writeJSON(w, r, version)
}

// handleNotFound returns RFC 7807 compliant 404 responses for unknown endpoints.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, r, s.logger, NotFound("The requested resource was not found"))
}

// writeJSON marshals v and writes it as an application/json response.
// Headers are only written after successful marshaling.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	correlationID := middleware.GetCorrelationID(r.Context())

	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode response",
			slog.String("correlation_id", correlationID),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)

		WriteErrorResponse(w, r, s.logger, InternalServerError("Failed to encode response"))

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Uplink-Version", serviceVersion)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		// At this point headers already sent, log only
		s.logger.Error("Failed to write response",
			slog.String("correlation_id", correlationID),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}
