package reports

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned by FindSnapshot when a report has never
// been computed.
var ErrSnapshotNotFound = errors.New("report snapshot not found")

// Store defines the storage interface for report computation and snapshots.
//
// This interface is intentionally separate from ingestion.RecordStore:
//   - ingestion.RecordStore: write path (bulk inserts during a run)
//   - reports.Store: aggregation queries plus snapshot read/write
//
// The separation lets the reporting API depend only on snapshot reads while
// the ingester depends on the write path, even though one storage type
// implements both.
//
// Implemented by: storage.UplinkStore.
type Store interface {
	// TopActiveDevices returns per-device uplink counts, highest first,
	// capped at limit.
	TopActiveDevices(ctx context.Context, limit int) ([]DeviceActivity, error)

	// WeakSignalDevices returns per-device average RSSI and SNR, weakest
	// signal (lowest average RSSI) first, capped at limit.
	WeakSignalDevices(ctx context.Context, limit int) ([]SignalQuality, error)

	// GatewayEnvironmentStats returns average temperature and humidity per
	// gateway, over every stored uplink.
	GatewayEnvironmentStats(ctx context.Context) ([]GatewayEnvironment, error)

	// DuplicateDevices returns every device with more than one stored record
	// together with its record count.
	DuplicateDevices(ctx context.Context) ([]DeviceActivity, error)

	// HighTemperatureRecords returns every record whose temperature reading
	// is strictly above threshold.
	HighTemperatureRecords(ctx context.Context, threshold float64) ([]HighTemperatureRecord, error)

	// SaveSnapshot upserts a snapshot keyed by its report type.
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// FindSnapshot returns the current snapshot for a report type, or
	// ErrSnapshotNotFound if the report has never been computed.
	FindSnapshot(ctx context.Context, reportType string) (*Snapshot, error)
}
