// Command load is a one-shot job that fills the climate store from the two
// source CSV files. When KAFKA_ENABLED is set it also publishes each loaded
// observation batch for downstream consumers.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/couchcryptid/hawaii-climate-api/internal/adapter/kafka"
	"github.com/couchcryptid/hawaii-climate-api/internal/config"
	"github.com/couchcryptid/hawaii-climate-api/internal/loader"
	"github.com/couchcryptid/hawaii-climate-api/internal/observability"
	"github.com/couchcryptid/hawaii-climate-api/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}
	defer store.Close()

	// Publisher is feature-flagged via KAFKA_ENABLED.
	var publisher loader.ObservationPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	stations := loader.NewFileExtractor(cfg.StationsCSV)
	observations := loader.NewFileExtractor(cfg.ObservationsCSV)

	l := loader.New(stations, observations, store, publisher, logger, metrics, cfg.BatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := l.Run(ctx)

	if closeErr := stations.Close(); closeErr != nil {
		logger.Error("stations extractor close error", "error", closeErr)
	}
	if closeErr := observations.Close(); closeErr != nil {
		logger.Error("observations extractor close error", "error", closeErr)
	}
	if writer != nil {
		if closeErr := writer.Close(); closeErr != nil {
			logger.Error("kafka writer close error", "error", closeErr)
		}
	}

	if err != nil {
		logger.Error("load failed", "error", err,
			"stations", summary.StationsLoaded,
			"observations", summary.ObservationsLoaded,
		)
		os.Exit(1)
	}
}
