// Package aliasing provides CSV column-name aliasing for ingestion.
//
// Different LoRaWAN network servers export the same uplink data under
// different column headers (e.g. "rssi_dbm" vs "rssi", "dev_eui" vs
// "device_id"). This package loads an optional alias configuration and
// resolves incoming headers to the canonical field names the pipeline
// understands.
package aliasing

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/uplink-io/uplink/internal/config"
)

// Config holds column alias configuration loaded from .uplink.yaml.
type Config struct {
	// ColumnAliases maps vendor-specific CSV headers to canonical field names.
	// Key is the alias (vendor header), value is the canonical name.
	//nolint:tagliatelle // snake_case is intentional for YAML config files
	ColumnAliases map[string]string `yaml:"column_aliases"`
}

// DefaultConfigPath is the default location for the alias configuration file.
const DefaultConfigPath = ".uplink.yaml"

// ConfigPathEnvVar is the environment variable name for a custom config path.
const ConfigPathEnvVar = "UPLINK_CONFIG_PATH"

// LoadConfig loads alias configuration from a YAML file at the given path.
//
// Behavior:
//   - Returns empty config (not error) if the file doesn't exist - aliases are optional
//   - Returns empty config + logs warning if the YAML is invalid (graceful degradation)
//   - Returns populated config on success
//
// This graceful degradation ensures ingestion can run even without aliases
// configured, since column aliasing is an optional feature.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		ColumnAliases: make(map[string]string),
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config source
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("Alias config file not found, continuing without aliases",
				slog.String("path", path))

			return cfg, nil
		}

		slog.Warn("Failed to read alias config file, continuing without aliases",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return cfg, nil
	}

	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("Failed to parse alias config file, continuing without aliases",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return &Config{ColumnAliases: make(map[string]string)}, nil
	}

	if cfg.ColumnAliases == nil {
		cfg.ColumnAliases = make(map[string]string)
	}

	return cfg, nil
}

// LoadConfigFromEnv loads config from the path in UPLINK_CONFIG_PATH, falling
// back to ".uplink.yaml" in the current directory if not set.
func LoadConfigFromEnv() (*Config, error) {
	path := config.GetEnvStr(ConfigPathEnvVar, DefaultConfigPath)

	return LoadConfig(path)
}
