package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/wait"
)

const startUpTimeOut = 120 * time.Second

// TestDatabase encapsulates test database resources for cleanup.
// Used by integration tests across multiple packages to maintain consistent
// test infrastructure.
type TestDatabase struct {
	Container *mongodb.MongoDBContainer
	URL       string
}

// SetupTestDatabase creates a MongoDB container and returns its connection URL.
// This is the standard way to set up integration test databases across all packages.
//
// Usage:
//
//	func TestMyFeature(t *testing.T) {
//		if testing.Short() {
//			t.Skip("skipping integration test in short mode")
//		}
//		ctx := context.Background()
//		testDB := config.SetupTestDatabase(ctx, t)
//		t.Cleanup(func() {
//			_ = testcontainers.TerminateContainer(testDB.Container)
//		})
//		// ... your test code
//	}
//
// Cleanup is the caller's responsibility using t.Cleanup().
func SetupTestDatabase(ctx context.Context, t *testing.T) *TestDatabase {
	t.Helper()

	mongoContainer, err := mongodb.Run(ctx,
		"mongo:7",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Waiting for connections").
				WithStartupTimeout(startUpTimeOut),
		),
	)
	require.NoError(t, err, "Failed to start mongo container")
	require.NotNil(t, mongoContainer, "mongo container is nil")

	url, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get connection string")

	return &TestDatabase{
		Container: mongoContainer,
		URL:       url,
	}
}

// TestBroker encapsulates test Kafka resources for cleanup.
type TestBroker struct {
	Container *tckafka.KafkaContainer
	Brokers   []string
}

// SetupTestBroker creates a Kafka container and returns its bootstrap brokers.
// Same usage pattern as SetupTestDatabase; cleanup is the caller's
// responsibility using t.Cleanup().
func SetupTestBroker(ctx context.Context, t *testing.T) *TestBroker {
	t.Helper()

	kafkaContainer, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("uplink-test"),
	)
	require.NoError(t, err, "Failed to start kafka container")
	require.NotNil(t, kafkaContainer, "kafka container is nil")

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "Failed to get kafka brokers")

	return &TestBroker{
		Container: kafkaContainer,
		Brokers:   brokers,
	}
}
