// Package notify publishes run-completion notifications to Kafka so
// downstream consumers (dashboards, alerting) learn about fresh data without
// polling the store.
package notify

import (
	"errors"
	"time"

	"github.com/uplink-io/uplink/internal/config"
)

const (
	defaultTopic        = "uplink.ingestion.runs"
	defaultWriteTimeout = 10 * time.Second
)

var (
	// ErrTopicEmpty is returned when notifications are enabled without a topic.
	ErrTopicEmpty = errors.New("kafka topic cannot be empty")

	// ErrInvalidWriteTimeout is returned for a zero or negative write timeout.
	ErrInvalidWriteTimeout = errors.New("write timeout must be positive")
)

// Config holds Kafka publisher configuration. Notifications are optional:
// with no brokers configured the publisher is disabled and every publish is
// a no-op.
type Config struct {
	// Brokers is the bootstrap broker list. Empty disables publishing.
	Brokers []string

	// Topic receives one message per completed run, keyed by run ID.
	Topic string

	// WriteTimeout bounds a single produce round trip.
	WriteTimeout time.Duration
}

// LoadConfig loads Kafka configuration from environment variables with
// fallback to defaults. UPLINK_KAFKA_BROKERS is a comma-separated list.
func LoadConfig() *Config {
	return &Config{
		Brokers:      config.ParseCommaSeparatedList(config.GetEnvStr("UPLINK_KAFKA_BROKERS", "")),
		Topic:        config.GetEnvStr("UPLINK_KAFKA_TOPIC", defaultTopic),
		WriteTimeout: config.GetEnvDuration("UPLINK_KAFKA_WRITE_TIMEOUT", defaultWriteTimeout),
	}
}

// Enabled reports whether any brokers are configured.
func (c *Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// Validate checks if the Kafka configuration is valid. A disabled config is
// always valid.
func (c *Config) Validate() error {
	if !c.Enabled() {
		return nil
	}

	if c.Topic == "" {
		return ErrTopicEmpty
	}

	if c.WriteTimeout <= 0 {
		return ErrInvalidWriteTimeout
	}

	return nil
}
