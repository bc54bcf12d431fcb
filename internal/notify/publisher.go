package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/uplink-io/uplink/internal/ingestion"
)

// Publisher emits one Kafka message per completed ingestion run: the JSON
// run summary, keyed by run ID so replays of the same run land in the same
// partition.
//
// Publishing is best effort: the ingester logs a failed publish and
// moves on, because a notification must never be able to fail a run that
// already committed its checkpoint.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka run-summary publisher. Returns (nil, nil) when
// cfg is disabled; callers treat a nil publisher as "notifications off".
func NewPublisher(cfg *Config, logger *slog.Logger) (*Publisher, error) {
	if cfg == nil || !cfg.Enabled() {
		return nil, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid notify config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}

	return &Publisher{
		writer: writer,
		logger: logger.With(slog.String("component", "notify")),
	}, nil
}

// PublishRunSummary sends the summary of a completed run. Safe to call on a
// nil publisher.
func (p *Publisher) PublishRunSummary(ctx context.Context, summary *ingestion.RunSummary) error {
	if p == nil {
		return nil
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(summary.RunID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publishing run summary: %w", err)
	}

	p.logger.Info("Published run notification",
		slog.String("run_id", summary.RunID),
		slog.String("topic", p.writer.Topic),
	)

	return nil
}

// Close flushes and shuts the writer down. Safe to call on a nil publisher.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}

	return p.writer.Close()
}
