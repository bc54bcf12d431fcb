package config

import (
	"log/slog"
	"reflect"
	"testing"
	"time"
)

func TestGetEnvStr(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("UPLINK_TEST_STR", "value")

	if got := GetEnvStr("UPLINK_TEST_STR", "fallback"); got != "value" {
		t.Errorf("GetEnvStr() = %q, want %q", got, "value")
	}

	if got := GetEnvStr("UPLINK_TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetEnvStr() = %q, want %q", got, "fallback")
	}
}

func TestGetEnvInt(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name     string
		value    string
		fallback int
		want     int
	}{
		{name: "valid integer", value: "500", fallback: 1000, want: 500},
		{name: "invalid integer falls back", value: "not-a-number", fallback: 1000, want: 1000},
		{name: "empty falls back", value: "", fallback: 1000, want: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("UPLINK_TEST_INT", tt.value)
			}

			if got := GetEnvInt("UPLINK_TEST_INT", tt.fallback); got != tt.want {
				t.Errorf("GetEnvInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("UPLINK_TEST_FLOAT", "37.5")

	if got := GetEnvFloat("UPLINK_TEST_FLOAT", 35.0); got != 37.5 {
		t.Errorf("GetEnvFloat() = %v, want %v", got, 37.5)
	}

	t.Setenv("UPLINK_TEST_FLOAT", "hot")

	if got := GetEnvFloat("UPLINK_TEST_FLOAT", 35.0); got != 35.0 {
		t.Errorf("GetEnvFloat() = %v, want fallback %v", got, 35.0)
	}
}

func TestGetEnvBool(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		value string
		want  bool
	}{
		{value: "true", want: true},
		{value: "1", want: true},
		{value: "YES", want: true},
		{value: "false", want: false},
		{value: "0", want: false},
		{value: "no", want: false},
		{value: "maybe", want: false}, // falls back to default
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("UPLINK_TEST_BOOL", tt.value)

			if got := GetEnvBool("UPLINK_TEST_BOOL", false); got != tt.want {
				t.Errorf("GetEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	t.Setenv("UPLINK_TEST_DURATION", "5s")

	if got := GetEnvDuration("UPLINK_TEST_DURATION", time.Minute); got != 5*time.Second {
		t.Errorf("GetEnvDuration() = %v, want %v", got, 5*time.Second)
	}

	t.Setenv("UPLINK_TEST_DURATION", "soon")

	if got := GetEnvDuration("UPLINK_TEST_DURATION", time.Minute); got != time.Minute {
		t.Errorf("GetEnvDuration() = %v, want fallback %v", got, time.Minute)
	}
}

func TestGetEnvLogLevel(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		value string
		want  slog.Level
	}{
		{value: "debug", want: slog.LevelDebug},
		{value: "INFO", want: slog.LevelInfo},
		{value: "warning", want: slog.LevelWarn},
		{value: "error", want: slog.LevelError},
		{value: "loud", want: slog.LevelInfo}, // falls back to default
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("UPLINK_TEST_LOG_LEVEL", tt.value)

			if got := GetEnvLogLevel("UPLINK_TEST_LOG_LEVEL", slog.LevelInfo); got != tt.want {
				t.Errorf("GetEnvLogLevel(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseCommaSeparatedList(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "simple list", input: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "whitespace trimmed", input: " a , b ", want: []string{"a", "b"}},
		{name: "empty elements dropped", input: "a,,b,", want: []string{"a", "b"}},
		{name: "empty input", input: "  ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommaSeparatedList(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCommaSeparatedList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
