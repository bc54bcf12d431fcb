// Package main provides the uplink ingestion service.
//
// The ingester reads LoRaWAN uplink messages from a CSV export, validates and
// normalizes each row, bulk-inserts batches into MongoDB, and advances a file
// checkpoint so interrupted runs resume where they left off. After a run it
// recomputes the materialized report snapshots and optionally publishes the
// run summary to Kafka.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uplink-io/uplink/internal/aliasing"
	"github.com/uplink-io/uplink/internal/checkpoint"
	"github.com/uplink-io/uplink/internal/config"
	"github.com/uplink-io/uplink/internal/ingestion"
	"github.com/uplink-io/uplink/internal/notify"
	"github.com/uplink-io/uplink/internal/reports"
	"github.com/uplink-io/uplink/internal/source"
	"github.com/uplink-io/uplink/internal/storage"
)

// Version information.
const (
	version = "1.0.0-dev"
	name    = "ingester"

	defaultCheckpointPath = "./data/checkpoint.json"
	defaultLogLevel       = slog.LevelInfo
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	resetFlag := flag.Bool("reset-checkpoint", false, "discard the checkpoint and reprocess the file from the start")
	everyFlag := flag.Duration("every", 0, "re-run the pipeline at this interval (0 runs once and exits)")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.GetEnvLogLevel("UPLINK_LOG_LEVEL", defaultLogLevel),
	}))

	logger.Info("Starting uplink ingestion service",
		slog.String("service", name),
		slog.String("version", version),
	)

	csvPath := config.GetEnvStr("UPLINK_CSV_PATH", "")
	if csvPath == "" {
		logger.Error("UPLINK_CSV_PATH is required")
		os.Exit(1)
	}

	checkpointPath := config.GetEnvStr("UPLINK_CHECKPOINT_PATH", defaultCheckpointPath)

	// Column aliasing configuration is optional: a missing config file means
	// headers are matched as-is.
	aliasConfig, err := aliasing.LoadConfigFromEnv()
	if err != nil {
		logger.Error("Failed to load aliasing configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	resolver := aliasing.NewResolver(aliasConfig)

	pipelineConfig := ingestion.LoadConfig()
	if err := pipelineConfig.Validate(); err != nil {
		logger.Error("Invalid pipeline configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	reportConfig := reports.LoadConfig()
	if err := reportConfig.Validate(); err != nil {
		logger.Error("Invalid report configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	notifyConfig := notify.LoadConfig()
	if err := notifyConfig.Validate(); err != nil {
		logger.Error("Invalid notification configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	storageConfig := storage.LoadConfig()

	dbConn, err := storage.NewConnection(storageConfig)
	if err != nil {
		logger.Error("Failed to connect to MongoDB",
			slog.String("mongo_url", storageConfig.MaskMongoURL()),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	defer func() {
		_ = dbConn.Close() // Ensure connection closes on normal shutdown
	}()

	store, err := storage.NewUplinkStore(dbConn, logger)
	if err != nil {
		logger.Error("Failed to create uplink store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Uplink store initialized",
		slog.String("mongo_url", storageConfig.MaskMongoURL()),
		slog.String("database", storageConfig.Database),
		slog.String("collection", storageConfig.Collection),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkpoints := checkpoint.NewStore(checkpointPath, logger)

	if *resetFlag {
		if err := checkpoints.Reset(); err != nil {
			logger.Error("Failed to reset checkpoint", slog.String("error", err.Error()))
			os.Exit(1)
		}

		logger.Info("Checkpoint reset", slog.String("path", checkpointPath))
	}

	publisher, err := notify.NewPublisher(notifyConfig, logger)
	if err != nil {
		logger.Error("Failed to create run notifier", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		_ = publisher.Close()
	}()

	reporter, err := reports.NewService(store, reportConfig, logger)
	if err != nil {
		logger.Error("Failed to create report service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	csvSource := source.NewCSVSource(csvPath, resolver, logger)
	loader := ingestion.NewLoader(store, pipelineConfig, logger)
	runner := ingestion.NewRunner(csvSource, checkpoints, loader, pipelineConfig, logger)

	if err := runPipeline(ctx, runner, reporter, publisher, logger); err != nil {
		os.Exit(1)
	}

	if *everyFlag > 0 {
		runLoop(ctx, *everyFlag, runner, reporter, publisher, logger)
	}

	logger.Info("Ingestion service stopped")
}

// runLoop re-runs the pipeline at the configured interval until the context
// is cancelled. Failed runs are logged and retried at the next tick.
func runLoop(
	ctx context.Context,
	interval time.Duration,
	runner *ingestion.Runner,
	reporter *reports.Service,
	publisher *notify.Publisher,
	logger *slog.Logger,
) {
	logger.Info("Entering scheduled ingestion loop", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Received shutdown signal, leaving ingestion loop")

			return
		case <-ticker.C:
			_ = runPipeline(ctx, runner, reporter, publisher, logger)
		}
	}
}

// runPipeline executes one ingestion run followed by report recomputation and
// the run summary notification. Report and notification failures are logged
// but do not fail the run: the ingested data is already durable.
func runPipeline(
	ctx context.Context,
	runner *ingestion.Runner,
	reporter *reports.Service,
	publisher *notify.Publisher,
	logger *slog.Logger,
) error {
	summary, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, ingestion.ErrRunIncomplete) {
			logger.Warn("Ingestion run interrupted, checkpoint unchanged",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Error("Ingestion run failed", slog.String("error", err.Error()))
		}

		return err
	}

	fmt.Printf(
		"run %s: read=%d accepted=%d inserted=%d skipped=%d checkpoint=%d->%d duration=%s\n",
		summary.RunID,
		summary.LinesRead,
		summary.RowsAccepted,
		summary.RowsInserted,
		summary.RowsSkipped,
		summary.CheckpointStart,
		summary.CheckpointEnd,
		summary.Duration.Round(time.Millisecond),
	)

	if err := reporter.RecomputeAll(ctx); err != nil {
		logger.Error("Report recomputation failed", slog.String("error", err.Error()))
	}

	if err := publisher.PublishRunSummary(ctx, summary); err != nil {
		logger.Error("Failed to publish run summary", slog.String("error", err.Error()))
	}

	return nil
}
