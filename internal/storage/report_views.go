package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"

	"github.com/uplink-io/uplink/internal/reports"
)

var (
	// ErrReportQueryFailed is returned when a report aggregation query fails.
	ErrReportQueryFailed = errors.New("report query failed")

	// ErrSnapshotSaveFailed is returned when a snapshot upsert fails.
	ErrSnapshotSaveFailed = errors.New("snapshot save failed")
)

// Report aggregation methods implementing reports.Store. They run against
// the uplink collection; snapshots live in the analytics collection keyed by
// report type.

// TopActiveDevices returns per-device uplink counts, highest first.
func (s *UplinkStore) TopActiveDevices(ctx context.Context, limit int) ([]reports.DeviceActivity, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$device_id", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
		{"$limit": limit},
		{"$project": bson.M{"_id": 0, "device_id": "$_id", "count": 1}},
	}

	var results []reports.DeviceActivity
	if err := s.aggregate(ctx, pipeline, &results); err != nil {
		return nil, fmt.Errorf("top active devices: %w", err)
	}

	return results, nil
}

// WeakSignalDevices returns per-device average RSSI and SNR, lowest average
// RSSI first.
func (s *UplinkStore) WeakSignalDevices(ctx context.Context, limit int) ([]reports.SignalQuality, error) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":      "$device_id",
			"avg_rssi": bson.M{"$avg": "$rssi"},
			"avg_snr":  bson.M{"$avg": "$snr"},
		}},
		{"$sort": bson.M{"avg_rssi": 1}},
		{"$limit": limit},
		{"$project": bson.M{"_id": 0, "device_id": "$_id", "avg_rssi": 1, "avg_snr": 1}},
	}

	var results []reports.SignalQuality
	if err := s.aggregate(ctx, pipeline, &results); err != nil {
		return nil, fmt.Errorf("weak signal devices: %w", err)
	}

	return results, nil
}

// GatewayEnvironmentStats returns average temperature and humidity per gateway.
func (s *UplinkStore) GatewayEnvironmentStats(ctx context.Context) ([]reports.GatewayEnvironment, error) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":             "$gateway_id",
			"avg_temperature": bson.M{"$avg": "$temperature"},
			"avg_humidity":    bson.M{"$avg": "$humidity"},
		}},
		{"$project": bson.M{"_id": 0, "gateway_id": "$_id", "avg_temperature": 1, "avg_humidity": 1}},
	}

	var results []reports.GatewayEnvironment
	if err := s.aggregate(ctx, pipeline, &results); err != nil {
		return nil, fmt.Errorf("gateway environment stats: %w", err)
	}

	return results, nil
}

// DuplicateDevices returns every device with more than one stored record.
func (s *UplinkStore) DuplicateDevices(ctx context.Context) ([]reports.DeviceActivity, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$device_id", "count": bson.M{"$sum": 1}}},
		{"$match": bson.M{"count": bson.M{"$gt": 1}}},
		{"$project": bson.M{"_id": 0, "device_id": "$_id", "count": 1}},
	}

	var results []reports.DeviceActivity
	if err := s.aggregate(ctx, pipeline, &results); err != nil {
		return nil, fmt.Errorf("duplicate devices: %w", err)
	}

	return results, nil
}

// HighTemperatureRecords returns every record whose temperature reading is
// strictly above threshold, reduced to the export projection.
func (s *UplinkStore) HighTemperatureRecords(
	ctx context.Context,
	threshold float64,
) ([]reports.HighTemperatureRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session := s.conn.copySession()
	defer session.Close()

	query := bson.M{"temperature": bson.M{"$gt": threshold}}
	projection := bson.M{"_id": 0, "device_id": 1, "latitude": 1, "longitude": 1, "temperature": 1}

	var results []reports.HighTemperatureRecord
	if err := s.conn.uplinks(session).Find(query).Select(projection).All(&results); err != nil {
		return nil, fmt.Errorf("high temperature records: %w: %w", ErrReportQueryFailed, err)
	}

	return results, nil
}

// SaveSnapshot upserts a snapshot keyed by its report type.
func (s *UplinkStore) SaveSnapshot(ctx context.Context, snapshot *reports.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	session := s.conn.copySession()
	defer session.Close()

	selector := bson.M{"analytics_type": snapshot.Type}

	_, err := s.conn.analytics(session).Upsert(selector, bson.M{"$set": snapshot})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSnapshotSaveFailed, snapshot.Type, err)
	}

	return nil
}

// FindSnapshot returns the current snapshot for a report type.
func (s *UplinkStore) FindSnapshot(ctx context.Context, reportType string) (*reports.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session := s.conn.copySession()
	defer session.Close()

	var snapshot reports.Snapshot

	err := s.conn.analytics(session).Find(bson.M{"analytics_type": reportType}).One(&snapshot)
	if err != nil {
		if errors.Is(err, mgo.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", reports.ErrSnapshotNotFound, reportType)
		}

		return nil, fmt.Errorf("finding snapshot %s: %w", reportType, err)
	}

	return &snapshot, nil
}

// aggregate runs an aggregation pipeline against the uplink collection and
// decodes all results into out.
func (s *UplinkStore) aggregate(ctx context.Context, pipeline []bson.M, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	session := s.conn.copySession()
	defer session.Close()

	if err := s.conn.uplinks(session).Pipe(pipeline).AllowDiskUse().All(out); err != nil {
		return fmt.Errorf("%w: %w", ErrReportQueryFailed, err)
	}

	return nil
}
