package aliasing

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".uplink.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	path := writeConfigFile(t, `column_aliases:
  dev_eui: device_id
  rssi_dbm: rssi
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if len(cfg.ColumnAliases) != 2 {
		t.Errorf("ColumnAliases len = %d, want 2", len(cfg.ColumnAliases))
	}

	if cfg.ColumnAliases["dev_eui"] != "device_id" {
		t.Errorf("ColumnAliases[dev_eui] = %q, want device_id", cfg.ColumnAliases["dev_eui"])
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil for missing file", err)
	}

	if len(cfg.ColumnAliases) != 0 {
		t.Errorf("ColumnAliases = %v, want empty", cfg.ColumnAliases)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	path := writeConfigFile(t, "column_aliases: [not: a: map")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want graceful degradation", err)
	}

	if len(cfg.ColumnAliases) != 0 {
		t.Errorf("ColumnAliases = %v, want empty on parse failure", cfg.ColumnAliases)
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	path := writeConfigFile(t, "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ColumnAliases == nil {
		t.Error("ColumnAliases is nil, want initialized map")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	path := writeConfigFile(t, "column_aliases:\n  gw: gateway_id\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}

	if cfg.ColumnAliases["gw"] != "gateway_id" {
		t.Errorf("ColumnAliases[gw] = %q, want gateway_id", cfg.ColumnAliases["gw"])
	}
}
