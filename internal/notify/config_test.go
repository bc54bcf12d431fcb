package notify

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name            string
		envVars         map[string]string
		expectedBrokers []string
		expectedTopic   string
		expectedEnabled bool
	}{
		{
			name:            "disabled when no brokers configured",
			envVars:         map[string]string{},
			expectedBrokers: nil,
			expectedTopic:   defaultTopic,
			expectedEnabled: false,
		},
		{
			name: "single broker",
			envVars: map[string]string{
				"UPLINK_KAFKA_BROKERS": "localhost:9092",
			},
			expectedBrokers: []string{"localhost:9092"},
			expectedTopic:   defaultTopic,
			expectedEnabled: true,
		},
		{
			name: "multiple brokers with custom topic",
			envVars: map[string]string{
				"UPLINK_KAFKA_BROKERS": "kafka-1:9092, kafka-2:9092 ,kafka-3:9092",
				"UPLINK_KAFKA_TOPIC":   "telemetry.runs",
			},
			expectedBrokers: []string{"kafka-1:9092", "kafka-2:9092", "kafka-3:9092"},
			expectedTopic:   "telemetry.runs",
			expectedEnabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("UPLINK_KAFKA_BROKERS", "")
			t.Setenv("UPLINK_KAFKA_TOPIC", "")

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// An unset topic env var falls back to the default.
			if _, ok := tt.envVars["UPLINK_KAFKA_TOPIC"]; !ok {
				t.Setenv("UPLINK_KAFKA_TOPIC", defaultTopic)
			}

			config := LoadConfig()

			if len(config.Brokers) != len(tt.expectedBrokers) {
				t.Fatalf("Brokers = %v, want %v", config.Brokers, tt.expectedBrokers)
			}

			for i, broker := range tt.expectedBrokers {
				if config.Brokers[i] != broker {
					t.Errorf("Brokers[%d] = %q, want %q", i, config.Brokers[i], broker)
				}
			}

			if config.Topic != tt.expectedTopic {
				t.Errorf("Topic = %q, want %q", config.Topic, tt.expectedTopic)
			}

			if config.Enabled() != tt.expectedEnabled {
				t.Errorf("Enabled() = %v, want %v", config.Enabled(), tt.expectedEnabled)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name      string
		config    *Config
		expectErr error
	}{
		{
			name:      "disabled config is always valid",
			config:    &Config{},
			expectErr: nil,
		},
		{
			name: "valid enabled config",
			config: &Config{
				Brokers:      []string{"localhost:9092"},
				Topic:        defaultTopic,
				WriteTimeout: defaultWriteTimeout,
			},
			expectErr: nil,
		},
		{
			name: "enabled config without topic",
			config: &Config{
				Brokers:      []string{"localhost:9092"},
				WriteTimeout: defaultWriteTimeout,
			},
			expectErr: ErrTopicEmpty,
		},
		{
			name: "enabled config with non-positive write timeout",
			config: &Config{
				Brokers:      []string{"localhost:9092"},
				Topic:        defaultTopic,
				WriteTimeout: -time.Second,
			},
			expectErr: ErrInvalidWriteTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.expectErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}

				return
			}

			if !errors.Is(err, tt.expectErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.expectErr)
			}
		})
	}
}

func TestNewPublisherDisabled(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	publisher, err := NewPublisher(&Config{}, nil)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}

	if publisher != nil {
		t.Fatal("disabled config should yield a nil publisher")
	}

	// Nil publisher is a safe no-op.
	if err := publisher.Close(); err != nil {
		t.Errorf("Close() on nil publisher error = %v", err)
	}
}
