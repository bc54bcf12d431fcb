package ingestion

import (
	"errors"
	"time"

	"github.com/uplink-io/uplink/internal/config"
)

const (
	defaultBatchSize  = 1000
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

var (
	// ErrInvalidBatchSize indicates the batch size is zero or negative.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrInvalidMaxRetries indicates a negative retry count.
	ErrInvalidMaxRetries = errors.New("max retries cannot be negative")

	// ErrInvalidRetryDelay indicates a negative retry delay.
	ErrInvalidRetryDelay = errors.New("retry delay cannot be negative")
)

// Config holds pipeline configuration: batching and the loader retry policy.
// Pure configuration only - collaborators are injected separately.
type Config struct {
	// BatchSize is the fixed number of normalized records per bulk write.
	// Batching is purely count-based; the final partial batch is flushed at
	// end of input.
	BatchSize int

	// MaxRetries is how many additional bulk-write attempts follow a
	// retryable failure (MaxRetries=3 means 4 attempts in total).
	MaxRetries int

	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
}

// LoadConfig loads pipeline configuration from environment variables with
// defaults matching the production ingestion profile.
func LoadConfig() *Config {
	return &Config{
		BatchSize:  config.GetEnvInt("UPLINK_BATCH_SIZE", defaultBatchSize),
		MaxRetries: config.GetEnvInt("UPLINK_LOAD_MAX_RETRIES", defaultMaxRetries),
		RetryDelay: config.GetEnvDuration("UPLINK_LOAD_RETRY_DELAY", defaultRetryDelay),
	}
}

// Validate checks if the pipeline configuration is valid.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.RetryDelay < 0 {
		return ErrInvalidRetryDelay
	}

	return nil
}
