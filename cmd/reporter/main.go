// Package main provides the uplink reporting service.
//
// The reporter serves the materialized report snapshots computed by the
// ingester over a read-only HTTP API, with health endpoints for Kubernetes
// probes and per-client rate limiting.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/uplink-io/uplink/internal/api"
	"github.com/uplink-io/uplink/internal/api/middleware"
	"github.com/uplink-io/uplink/internal/storage"
)

// Version information.
const (
	version = "1.0.0-dev"
	name    = "reporter"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	serverConfig := api.LoadServerConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: serverConfig.LogLevel,
	}))

	logger.Info("Starting uplink reporting service",
		slog.String("service", name),
		slog.String("version", version),
	)

	logger.Info("Loaded server configuration",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.Duration("read_timeout", serverConfig.ReadTimeout),
		slog.Duration("write_timeout", serverConfig.WriteTimeout),
		slog.Duration("shutdown_timeout", serverConfig.ShutdownTimeout),
		slog.String("log_level", serverConfig.LogLevel.String()),
	)

	// Load rate limiter configuration
	middlewareConfig := middleware.LoadConfig()

	// Create rate limiter instance (graceful shutdown handled by server.shutdown())
	rateLimiter := middleware.NewInMemoryRateLimiter(middlewareConfig)

	logger.Info("Rate limiter initialized",
		slog.Int("global_rps", middlewareConfig.GlobalRPS),
		slog.Int("global_burst", middlewareConfig.GlobalBurst),
		slog.Int("client_rps", middlewareConfig.ClientRPS),
		slog.Int("client_burst", middlewareConfig.ClientBurst),
	)

	// Load storage configuration
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

		_ = dbConn.Close()
		//nolint:gocritic // Explicit cleanup before os.Exit is intentional (defer won't run)
		os.Exit(1)
	}

	logger.Info("Uplink store initialized",
		slog.String("mongo_url", storageConfig.MaskMongoURL()),
		slog.String("database", storageConfig.Database),
		slog.String("analytics_collection", storageConfig.AnalyticsCollection),
	)

	server := api.NewServer(serverConfig, store, dbConn, rateLimiter)

	if err := server.Start(); err != nil {
		logger.Error("Server failed to start",
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	logger.Info("Reporting service stopped")
}
