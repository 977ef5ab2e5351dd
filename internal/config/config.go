package config

import (
	"errors"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
// The same Config feeds the API server, the CSV load job, and the analyze tool.
type Config struct {
	DatabasePath    string
	StationsCSV     string
	ObservationsCSV string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize int

	// Kafka publisher configuration. The load job optionally publishes
	// inserted observations for downstream consumers.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DatabasePath:    sharedcfg.EnvOrDefault("HAWAII_DB", "data/hawaii.db"),
		StationsCSV:     sharedcfg.EnvOrDefault("STATIONS_CSV", "data/hawaii_stations.csv"),
		ObservationsCSV: sharedcfg.EnvOrDefault("OBSERVATIONS_CSV", "data/hawaii_measurements.csv"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		BatchSize:       batchSize,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "hawaii-climate-observations"),
	}

	if cfg.DatabasePath == "" {
		return nil, errors.New("HAWAII_DB is required")
	}
	if cfg.StationsCSV == "" {
		return nil, errors.New("STATIONS_CSV is required")
	}
	if cfg.ObservationsCSV == "" {
		return nil, errors.New("OBSERVATIONS_CSV is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is not set")
	}

	return cfg, nil
}
