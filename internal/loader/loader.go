// Package loader runs the batch extract-parse-insert job that fills the
// climate store from the two source CSV files.
package loader

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/hawaii-climate-api/internal/domain"
	"github.com/couchcryptid/hawaii-climate-api/internal/observability"
)

// RecordExtractor reads up to batchSize raw CSV records from a source file.
// An empty batch signals end of input.
type RecordExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error)
}

// StoreWriter persists parsed rows.
type StoreWriter interface {
	UpsertStations(ctx context.Context, stations []domain.Station) (int, error)
	InsertObservations(ctx context.Context, observations []domain.Observation) (int, error)
}

// ObservationPublisher forwards loaded observations to downstream consumers.
type ObservationPublisher interface {
	PublishBatch(ctx context.Context, observations []domain.LoadedObservation) error
}

// Summary reports what a load run did.
type Summary struct {
	StationsLoaded        int
	ObservationsLoaded    int
	ObservationsSkipped   int
	DuplicateObservations int
}

// Loader orchestrates the extract-parse-insert loop for both CSV sources.
// Stations load first so observation foreign keys resolve.
type Loader struct {
	stations     RecordExtractor
	observations RecordExtractor
	store        StoreWriter
	publisher    ObservationPublisher // nil when Kafka publishing is disabled
	logger       *slog.Logger
	metrics      *observability.Metrics
	batchSize    int
}

// New creates a Loader. publisher may be nil.
func New(stations, observations RecordExtractor, store StoreWriter, publisher ObservationPublisher, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Loader {
	return &Loader{
		stations:     stations,
		observations: observations,
		store:        store,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
		batchSize:    batchSize,
	}
}

// Run executes the load until both sources are exhausted or the context is
// cancelled.
func (l *Loader) Run(ctx context.Context) (Summary, error) {
	l.logger.Info("load started", "batch_size", l.batchSize)
	l.metrics.LoaderRunning.Set(1)
	defer l.metrics.LoaderRunning.Set(0)

	var summary Summary

	if err := l.loadStations(ctx, &summary); err != nil {
		return summary, err
	}
	if err := l.loadObservations(ctx, &summary); err != nil {
		return summary, err
	}

	l.logger.Info("load complete",
		"stations", summary.StationsLoaded,
		"observations", summary.ObservationsLoaded,
		"skipped", summary.ObservationsSkipped,
		"duplicates", summary.DuplicateObservations,
	)
	return summary, nil
}

func (l *Loader) loadStations(ctx context.Context, summary *Summary) error {
	for {
		batch, err := l.stations.ExtractBatch(ctx, l.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		l.metrics.LoadBatchSize.Observe(float64(len(batch)))
		start := time.Now()

		stations := make([]domain.Station, 0, len(batch))
		for _, rec := range batch {
			st, err := domain.ParseStation(rec)
			if err != nil {
				l.logger.Warn("station row skipped", "error", err)
				l.metrics.RowsSkipped.Inc()
				continue
			}
			stations = append(stations, st)
		}

		var written int
		err = l.retryWithBackoff(ctx, func() error {
			var insertErr error
			written, insertErr = l.store.UpsertStations(ctx, stations)
			return insertErr
		})
		if err != nil {
			return err
		}

		summary.StationsLoaded += written
		l.metrics.RowsLoaded.WithLabelValues("stations").Add(float64(written))
		l.metrics.LoadBatchDuration.Observe(time.Since(start).Seconds())
	}
}

func (l *Loader) loadObservations(ctx context.Context, summary *Summary) error {
	for {
		batch, err := l.observations.ExtractBatch(ctx, l.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		l.metrics.LoadBatchSize.Observe(float64(len(batch)))
		start := time.Now()

		observations := make([]domain.Observation, 0, len(batch))
		for _, rec := range batch {
			obs, err := domain.ParseObservation(rec)
			if err != nil {
				l.logger.Warn("observation row skipped", "error", err)
				l.metrics.RowsSkipped.Inc()
				summary.ObservationsSkipped++
				continue
			}
			observations = append(observations, obs)
		}
		if len(observations) == 0 {
			continue
		}

		var inserted int
		err = l.retryWithBackoff(ctx, func() error {
			var insertErr error
			inserted, insertErr = l.store.InsertObservations(ctx, observations)
			return insertErr
		})
		if err != nil {
			return err
		}

		summary.ObservationsLoaded += inserted
		summary.DuplicateObservations += len(observations) - inserted
		l.metrics.RowsLoaded.WithLabelValues("observations").Add(float64(inserted))
		l.metrics.LoadBatchDuration.Observe(time.Since(start).Seconds())

		l.publish(ctx, observations)
	}
}

// publish forwards a loaded batch to the sink. Publish failures are logged
// but do not fail the load; the store remains the source of truth.
func (l *Loader) publish(ctx context.Context, observations []domain.Observation) {
	if l.publisher == nil {
		return
	}

	loaded := make([]domain.LoadedObservation, len(observations))
	for i, obs := range observations {
		loaded[i] = domain.MarkLoaded(obs)
	}

	if err := l.publisher.PublishBatch(ctx, loaded); err != nil {
		l.logger.Warn("publish batch failed", "error", err, "batch_size", len(loaded))
		return
	}
	l.metrics.ObservationsPublished.Add(float64(len(loaded)))
}

// retryWithBackoff runs fn until it succeeds or the context is cancelled.
// Backoff starts at 200ms, doubles each retry, and caps at 5s.
func (l *Loader) retryWithBackoff(ctx context.Context, fn func() error) error {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Error("insert batch failed, retrying", "error", err, "backoff", backoff)
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
