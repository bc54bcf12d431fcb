package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/uplink-io/uplink/internal/reports"
)

// stubSnapshotStore implements reports.Store for handler tests.
// Only snapshot lookup is exercised by the API; the aggregate methods
// are never called by handlers and return empty results.
type stubSnapshotStore struct {
	snapshots map[string]*reports.Snapshot
	findErr   error
}

func (s *stubSnapshotStore) TopActiveDevices(_ context.Context, _ int) ([]reports.DeviceActivity, error) {
	return nil, nil
}

func (s *stubSnapshotStore) WeakSignalDevices(_ context.Context, _ int) ([]reports.SignalQuality, error) {
	return nil, nil
}

func (s *stubSnapshotStore) GatewayEnvironmentStats(_ context.Context) ([]reports.GatewayEnvironment, error) {
	return nil, nil
}

func (s *stubSnapshotStore) DuplicateDevices(_ context.Context) ([]reports.DeviceActivity, error) {
	return nil, nil
}

func (s *stubSnapshotStore) HighTemperatureRecords(
	_ context.Context, _ float64,
) ([]reports.HighTemperatureRecord, error) {
	return nil, nil
}

func (s *stubSnapshotStore) SaveSnapshot(_ context.Context, snapshot *reports.Snapshot) error {
	s.snapshots[snapshot.Type] = snapshot

	return nil
}

func (s *stubSnapshotStore) FindSnapshot(_ context.Context, reportType string) (*reports.Snapshot, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}

	snapshot, ok := s.snapshots[reportType]
	if !ok {
		return nil, reports.ErrSnapshotNotFound
	}

	return snapshot, nil
}

func testServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:               8080,
		Host:               "127.0.0.1",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    30 * time.Second,
		CORSAllowedOrigins: []string{"*"},
		CORSAllowedMethods: []string{"GET", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type"},
		CORSMaxAge:         86400,
	}
}

func newTestServer(store reports.Store) *Server {
	return NewServer(testServerConfig(), store, nil, nil)
}

func TestHandleReport_ReturnsSnapshot(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	count := 2
	store := &stubSnapshotStore{
		snapshots: map[string]*reports.Snapshot{
			reports.TypeTopActiveDevices: {
				Type:       reports.TypeTopActiveDevices,
				ComputedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
				Parameters: map[string]any{"limit": 10},
				Results: []reports.DeviceActivity{
					{DeviceID: "dev-a", Count: 42},
					{DeviceID: "dev-b", Count: 17},
				},
				ResultCount: &count,
			},
		},
	}

	server := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/top-devices", nil)
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var got reports.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if got.Type != reports.TypeTopActiveDevices {
		t.Errorf("expected type %s, got %s", reports.TypeTopActiveDevices, got.Type)
	}

	if got.ResultCount == nil || *got.ResultCount != 2 {
		t.Errorf("expected result count 2, got %v", got.ResultCount)
	}
}

func TestHandleReport_MissingSnapshotReturns404(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := &stubSnapshotStore{snapshots: map[string]*reports.Snapshot{}}
	server := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/weak-devices", nil)
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); ct != contentTypeProblemJSON {
		t.Errorf("expected Content-Type %s, got %s", contentTypeProblemJSON, ct)
	}

	var problem ProblemDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to parse problem response: %v", err)
	}

	if problem.Status != http.StatusNotFound {
		t.Errorf("expected problem status 404, got %d", problem.Status)
	}

	if problem.Instance != "/api/v1/reports/weak-devices" {
		t.Errorf("expected instance /api/v1/reports/weak-devices, got %s", problem.Instance)
	}

	if problem.CorrelationID == "" {
		t.Error("expected correlation ID to be set on problem response")
	}
}

func TestHandleReport_StoreFailureReturns500(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := &stubSnapshotStore{
		snapshots: map[string]*reports.Snapshot{},
		findErr:   errors.New("no reachable servers"),
	}
	server := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/gateway-stats", nil)
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestHandleReport_AllReportRoutesRegistered(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	count := 0
	store := &stubSnapshotStore{snapshots: map[string]*reports.Snapshot{}}

	for _, reportType := range []string{
		reports.TypeTopActiveDevices,
		reports.TypeWeakSignalDevices,
		reports.TypeGatewayEnvironment,
		reports.TypeDuplicateDevices,
		reports.TypeHighTemperatureRecords,
	} {
		store.snapshots[reportType] = &reports.Snapshot{
			Type:        reportType,
			ComputedAt:  time.Now().UTC(),
			ResultCount: &count,
		}
	}

	server := newTestServer(store)

	paths := []string{
		"/api/v1/reports/top-devices",
		"/api/v1/reports/weak-devices",
		"/api/v1/reports/gateway-stats",
		"/api/v1/reports/duplicates",
		"/api/v1/reports/high-temperature",
	}

	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.httpServer.Handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", path, rec.Code)
		}
	}
}

func TestHandlePing(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	server := newTestServer(&stubSnapshotStore{snapshots: map[string]*reports.Snapshot{}})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if body := rec.Body.String(); body != "pong" {
		t.Errorf("expected body 'pong', got %q", body)
	}
}

func TestHandleNotFound(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	server := newTestServer(&stubSnapshotStore{snapshots: map[string]*reports.Snapshot{}})

	req := httptest.NewRequest(http.MethodGet, "/no/such/path", nil)
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestServerConfigValidate(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	valid := testServerConfig

	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(*ServerConfig) {},
		},
		{
			name:    "zero port",
			mutate:  func(c *ServerConfig) { c.Port = 0 },
			wantErr: ErrInvalidPort,
		},
		{
			name:    "port above range",
			mutate:  func(c *ServerConfig) { c.Port = 70000 },
			wantErr: ErrInvalidPort,
		},
		{
			name:    "empty host",
			mutate:  func(c *ServerConfig) { c.Host = "" },
			wantErr: ErrEmptyHost,
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *ServerConfig) { c.ReadTimeout = 0 },
			wantErr: ErrInvalidReadTimeout,
		},
		{
			name:    "negative write timeout",
			mutate:  func(c *ServerConfig) { c.WriteTimeout = -time.Second },
			wantErr: ErrInvalidWriteTimeout,
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *ServerConfig) { c.ShutdownTimeout = 0 },
			wantErr: ErrInvalidShutdownTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}

				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
