// Package reports provides materialized analytics over ingested uplink records.
package reports

import "time"

// Report type identifiers. Each identifier keys one snapshot document in the
// analytics collection.
const (
	TypeTopActiveDevices       = "top_active_devices"
	TypeWeakSignalDevices      = "weak_signal_devices"
	TypeGatewayEnvironment     = "gateway_environment_stats"
	TypeDuplicateDevices       = "duplicate_devices"
	TypeHighTemperatureRecords = "high_temperature_records"
)

type (
	// DeviceActivity is an uplink count for a single device.
	//
	// Used by two reports: top active devices (highest counts first) and
	// duplicate devices (every device with more than one record).
	DeviceActivity struct {
		DeviceID string `bson:"device_id" json:"device_id"`
		Count    int64  `bson:"count"     json:"count"`
	}

	// SignalQuality holds average link-quality metrics for a single device.
	//
	// RSSI is in dBm (more negative = weaker), SNR in dB. Averages are taken
	// over every stored uplink for the device.
	SignalQuality struct {
		DeviceID string  `bson:"device_id" json:"device_id"`
		AvgRSSI  float64 `bson:"avg_rssi"  json:"avg_rssi"`
		AvgSNR   float64 `bson:"avg_snr"   json:"avg_snr"`
	}

	// GatewayEnvironment holds average environmental sensor readings for the
	// devices heard by a single gateway.
	GatewayEnvironment struct {
		GatewayID      string  `bson:"gateway_id"      json:"gateway_id"`
		AvgTemperature float64 `bson:"avg_temperature" json:"avg_temperature"`
		AvgHumidity    float64 `bson:"avg_humidity"    json:"avg_humidity"`
	}

	// HighTemperatureRecord is a single uplink whose temperature reading
	// exceeded the report threshold, reduced to the fields the export needs.
	HighTemperatureRecord struct {
		DeviceID    string   `bson:"device_id"           json:"device_id"`
		Temperature float64  `bson:"temperature"         json:"temperature"`
		Latitude    *float64 `bson:"latitude,omitempty"  json:"latitude,omitempty"`
		Longitude   *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
	}

	// Snapshot is one materialized report as persisted in the analytics
	// collection, keyed by Type. Recomputing a report overwrites its snapshot.
	//
	// Results holds the report rows for the aggregate reports. The
	// high-temperature report stores ResultCount and OutputFile instead: its
	// full rows go to a JSON export file, not the database.
	Snapshot struct {
		Type        string         `bson:"analytics_type"         json:"analytics_type"`
		ComputedAt  time.Time      `bson:"computed_at"            json:"computed_at"`
		Parameters  map[string]any `bson:"parameters,omitempty"   json:"parameters,omitempty"`
		Results     any            `bson:"results,omitempty"      json:"results,omitempty"`
		ResultCount *int           `bson:"result_count,omitempty" json:"result_count,omitempty"`
		OutputFile  string         `bson:"output_file,omitempty"  json:"output_file,omitempty"`
	}
)
