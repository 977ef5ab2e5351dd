// Package kafka publishes loaded observations for downstream consumers.
// The publisher is feature-flagged; the load job runs without it by default.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hawaii-climate-api/internal/config"
	"github.com/couchcryptid/hawaii-climate-api/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces observation messages to a Kafka topic.
// It implements loader.ObservationPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured observation topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes multiple loaded observations in a
// single WriteMessages call for efficiency.
func (w *Writer) PublishBatch(ctx context.Context, observations []domain.LoadedObservation) error {
	if len(observations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(observations))
	for i := range observations {
		msg, err := serializeToMessage(observations[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a loaded observation into a Kafka message keyed
// by "station|date" so a station's history partitions together.
func serializeToMessage(obs domain.LoadedObservation) (kafkago.Message, error) {
	data, err := json.Marshal(obs)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(obs.StationID + "|" + obs.Date),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station", Value: []byte(obs.StationID)},
			{Key: "loaded_at", Value: []byte(obs.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
