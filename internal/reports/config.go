package reports

import (
	"errors"

	"github.com/uplink-io/uplink/internal/config"
)

const (
	defaultTopDeviceLimit       = 10
	defaultWeakDeviceLimit      = 20
	defaultTemperatureThreshold = 35.0
	defaultExportPath           = "./data/high_temperature_records.json"
)

var (
	// ErrInvalidTopDeviceLimit indicates a zero or negative top-devices limit.
	ErrInvalidTopDeviceLimit = errors.New("top device limit must be positive")

	// ErrInvalidWeakDeviceLimit indicates a zero or negative weak-devices limit.
	ErrInvalidWeakDeviceLimit = errors.New("weak device limit must be positive")

	// ErrExportPathEmpty indicates the high-temperature export path is empty.
	ErrExportPathEmpty = errors.New("export path cannot be empty")
)

// Config holds report parameters: result limits, the high-temperature
// threshold, and the export file location.
type Config struct {
	// TopDeviceLimit caps the top-active-devices report.
	TopDeviceLimit int

	// WeakDeviceLimit caps the weak-signal-devices report.
	WeakDeviceLimit int

	// TemperatureThreshold selects records for the high-temperature export,
	// in degrees Celsius (strictly above).
	TemperatureThreshold float64

	// ExportPath is where the high-temperature JSON export is written.
	ExportPath string
}

// LoadConfig loads report configuration from environment variables with
// fallback to defaults.
func LoadConfig() *Config {
	return &Config{
		TopDeviceLimit:       config.GetEnvInt("UPLINK_REPORT_TOP_DEVICES", defaultTopDeviceLimit),
		WeakDeviceLimit:      config.GetEnvInt("UPLINK_REPORT_WEAK_DEVICES", defaultWeakDeviceLimit),
		TemperatureThreshold: config.GetEnvFloat("UPLINK_REPORT_TEMP_THRESHOLD", defaultTemperatureThreshold),
		ExportPath:           config.GetEnvStr("UPLINK_REPORT_EXPORT_PATH", defaultExportPath),
	}
}

// Validate checks if the report configuration is valid.
func (c *Config) Validate() error {
	if c.TopDeviceLimit <= 0 {
		return ErrInvalidTopDeviceLimit
	}

	if c.WeakDeviceLimit <= 0 {
		return ErrInvalidWeakDeviceLimit
	}

	if c.ExportPath == "" {
		return ErrExportPathEmpty
	}

	return nil
}
