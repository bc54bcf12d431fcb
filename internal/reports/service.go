package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrNoStore is returned when a Service is created without a store.
	ErrNoStore = errors.New("report store cannot be nil")

	// ErrNilConfig is returned when a Service is created without configuration.
	ErrNilConfig = errors.New("report config cannot be nil")
)

// Service recomputes report snapshots from the stored uplink records.
//
// Each report is computed independently: one failing report does not stop the
// others, and RecomputeAll returns the joined errors so callers can decide
// whether a partial refresh matters. The ingester treats refresh as best
// effort after a run; a scheduler can call it on an interval.
type Service struct {
	store  Store
	cfg    *Config
	logger *slog.Logger
}

// NewService creates a report service.
func NewService(store Store, cfg *Config, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, ErrNoStore
	}

	if cfg == nil {
		return nil, ErrNilConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "reports")),
	}, nil
}

// RecomputeAll recomputes every report and upserts its snapshot.
//
// Reports run sequentially in a fixed order. Errors are collected, not
// short-circuited, so a broken aggregation leaves the other snapshots fresh.
func (s *Service) RecomputeAll(ctx context.Context) error {
	started := time.Now()

	recomputes := []struct {
		reportType string
		run        func(context.Context) error
	}{
		{TypeTopActiveDevices, s.recomputeTopActiveDevices},
		{TypeWeakSignalDevices, s.recomputeWeakSignalDevices},
		{TypeGatewayEnvironment, s.recomputeGatewayEnvironment},
		{TypeDuplicateDevices, s.recomputeDuplicateDevices},
		{TypeHighTemperatureRecords, s.recomputeHighTemperature},
	}

	var errs []error

	for _, r := range recomputes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)

			break
		}

		if err := r.run(ctx); err != nil {
			s.logger.Error("Report recompute failed",
				slog.String("report", r.reportType),
				slog.String("error", err.Error()),
			)

			errs = append(errs, fmt.Errorf("%s: %w", r.reportType, err))
		}
	}

	s.logger.Info("Report recompute finished",
		slog.Int("reports", len(recomputes)),
		slog.Int("failed", len(errs)),
		slog.Duration("duration", time.Since(started)),
	)

	return errors.Join(errs...)
}

func (s *Service) recomputeTopActiveDevices(ctx context.Context) error {
	results, err := s.store.TopActiveDevices(ctx, s.cfg.TopDeviceLimit)
	if err != nil {
		return err
	}

	s.logger.Info("Computed top active devices", slog.Int("devices", len(results)))

	return s.store.SaveSnapshot(ctx, &Snapshot{
		Type:       TypeTopActiveDevices,
		ComputedAt: time.Now().UTC(),
		Parameters: map[string]any{"limit": s.cfg.TopDeviceLimit},
		Results:    results,
	})
}

func (s *Service) recomputeWeakSignalDevices(ctx context.Context) error {
	results, err := s.store.WeakSignalDevices(ctx, s.cfg.WeakDeviceLimit)
	if err != nil {
		return err
	}

	s.logger.Info("Computed weak signal devices", slog.Int("devices", len(results)))

	return s.store.SaveSnapshot(ctx, &Snapshot{
		Type:       TypeWeakSignalDevices,
		ComputedAt: time.Now().UTC(),
		Parameters: map[string]any{"limit": s.cfg.WeakDeviceLimit},
		Results:    results,
	})
}

func (s *Service) recomputeGatewayEnvironment(ctx context.Context) error {
	results, err := s.store.GatewayEnvironmentStats(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("Computed gateway environment stats", slog.Int("gateways", len(results)))

	return s.store.SaveSnapshot(ctx, &Snapshot{
		Type:       TypeGatewayEnvironment,
		ComputedAt: time.Now().UTC(),
		Results:    results,
	})
}

func (s *Service) recomputeDuplicateDevices(ctx context.Context) error {
	results, err := s.store.DuplicateDevices(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("Computed duplicate devices", slog.Int("devices", len(results)))

	return s.store.SaveSnapshot(ctx, &Snapshot{
		Type:       TypeDuplicateDevices,
		ComputedAt: time.Now().UTC(),
		Results:    results,
	})
}

// recomputeHighTemperature writes the matching records to the JSON export
// file and stores only count plus parameters in the snapshot. Export rows can
// be large; the snapshot stays small for the API.
func (s *Service) recomputeHighTemperature(ctx context.Context) error {
	results, err := s.store.HighTemperatureRecords(ctx, s.cfg.TemperatureThreshold)
	if err != nil {
		return err
	}

	s.logger.Info("Computed high temperature records",
		slog.Int("records", len(results)),
		slog.Float64("threshold", s.cfg.TemperatureThreshold),
	)

	if err := s.exportHighTemperature(results); err != nil {
		return err
	}

	count := len(results)

	return s.store.SaveSnapshot(ctx, &Snapshot{
		Type:       TypeHighTemperatureRecords,
		ComputedAt: time.Now().UTC(),
		Parameters: map[string]any{
			"temperature_threshold": s.cfg.TemperatureThreshold,
			"output_file_path":      s.cfg.ExportPath,
		},
		ResultCount: &count,
		OutputFile:  s.cfg.ExportPath,
	})
}

func (s *Service) exportHighTemperature(records []HighTemperatureRecord) error {
	if records == nil {
		records = []HighTemperatureRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}

	if dir := filepath.Dir(s.cfg.ExportPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	if err := os.WriteFile(s.cfg.ExportPath, data, 0o600); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}

	s.logger.Info("Exported high temperature records",
		slog.Int("records", len(records)),
		slog.String("path", s.cfg.ExportPath),
	)

	return nil
}
