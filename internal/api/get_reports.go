package api

import (
	"errors"
	"net/http"

	"github.com/uplink-io/uplink/internal/api/middleware"
	"github.com/uplink-io/uplink/internal/reports"
)

// handleTopDevices handles GET /api/v1/reports/top-devices.
// Returns the latest materialized snapshot of the most active devices
// ranked by uplink count.
func (s *Server) handleTopDevices(w http.ResponseWriter, r *http.Request) {
	s.serveSnapshot(w, r, reports.TypeTopActiveDevices)
}

// handleWeakDevices handles GET /api/v1/reports/weak-devices.
// Returns the latest materialized snapshot of devices with the weakest
// average signal, ranked by average RSSI ascending.
func (s *Server) handleWeakDevices(w http.ResponseWriter, r *http.Request) {
	s.serveSnapshot(w, r, reports.TypeWeakSignalDevices)
}

// handleGatewayStats handles GET /api/v1/reports/gateway-stats.
// Returns the latest materialized snapshot of per-gateway environmental
// averages (temperature, humidity).
func (s *Server) handleGatewayStats(w http.ResponseWriter, r *http.Request) {
	s.serveSnapshot(w, r, reports.TypeGatewayEnvironment)
}

// handleDuplicateDevices handles GET /api/v1/reports/duplicates.
// Returns the latest materialized snapshot of devices with more than one
// stored uplink.
func (s *Server) handleDuplicateDevices(w http.ResponseWriter, r *http.Request) {
	s.serveSnapshot(w, r, reports.TypeDuplicateDevices)
}

// handleHighTemperature handles GET /api/v1/reports/high-temperature.
// Returns the latest high temperature snapshot. The snapshot carries the
// match count and export file location rather than the matching rows, which
// are written to a JSON export during recomputation.
func (s *Server) handleHighTemperature(w http.ResponseWriter, r *http.Request) {
	s.serveSnapshot(w, r, reports.TypeHighTemperatureRecords)
}

// serveSnapshot looks up the latest snapshot for reportType and writes it
// as a JSON response. A missing snapshot (report never computed) maps to 404.
func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request, reportType string) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	snapshot, err := s.snapshots.FindSnapshot(ctx, reportType)
	if err != nil {
		if errors.Is(err, reports.ErrSnapshotNotFound) {
			WriteErrorResponse(w, r, s.logger, NotFound(
				"No snapshot has been computed for report "+reportType,
			))

			return
		}

		s.logger.ErrorContext(ctx, "Failed to load report snapshot",
			"correlation_id", correlationID,
			"report_type", reportType,
			"error", err.Error(),
		)
		WriteErrorResponse(w, r, s.logger, InternalServerError("Failed to load report snapshot"))

		return
	}

	s.writeJSON(w, r, snapshot)
}
