// Package http exposes the climate query routes plus health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/hawaii-climate-api/internal/domain"
	"github.com/couchcryptid/hawaii-climate-api/internal/observability"
	"github.com/couchcryptid/hawaii-climate-api/internal/storage/sqlite"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClimateStore is the read-only query surface the handlers need.
// *sqlite.Store satisfies it; tests substitute a mock.
type ClimateStore interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (stations, observations int, err error)
	MostRecentDate(ctx context.Context) (string, error)
	PrecipitationSince(ctx context.Context, date string) ([]sqlite.DatePrecipitation, error)
	StationIDs(ctx context.Context) ([]string, error)
	MostActiveStation(ctx context.Context) (sqlite.StationActivity, error)
	TemperatureObservations(ctx context.Context, stationID, since string) ([]sqlite.DateTemperature, error)
	TemperatureStats(ctx context.Context, start, end string) (domain.TemperatureSummary, error)
}

// Server serves the fixed set of JSON climate query routes.
type Server struct {
	httpServer *http.Server
	store      ClimateStore
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server with all climate and operational routes.
func NewServer(addr string, store ClimateStore, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:   store,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /{$}", s.instrument("index", s.handleIndex))
	mux.HandleFunc("GET /api/v1.0/precipitation", s.instrument("precipitation", s.handlePrecipitation))
	mux.HandleFunc("GET /api/v1.0/stations", s.instrument("stations", s.handleStations))
	mux.HandleFunc("GET /api/v1.0/tobs", s.instrument("tobs", s.handleTobs))
	mux.HandleFunc("GET /api/v1.0/{start}", s.instrument("temperature_range", s.handleTemperatureRange))
	mux.HandleFunc("GET /api/v1.0/{start}/{end}", s.instrument("temperature_range", s.handleTemperatureRange))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Hawaii Climate Analysis API",
		"routes": []string{
			"/api/v1.0/precipitation",
			"/api/v1.0/stations",
			"/api/v1.0/tobs",
			"/api/v1.0/{start}",
			"/api/v1.0/{start}/{end}",
		},
	})
}

// handlePrecipitation returns the last 12 months of precipitation readings as
// a JSON object keyed by date. When multiple stations report the same date,
// the last row in date order wins.
func (s *Server) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mostRecent, err := s.store.MostRecentDate(ctx)
	if errors.Is(err, sqlite.ErrNoData) {
		writeJSON(w, http.StatusNotFound, errorBody("no observation data loaded"))
		return
	}
	if err != nil {
		s.queryError(w, err)
		return
	}

	since, err := domain.TwelveMonthsBefore(mostRecent)
	if err != nil {
		s.queryError(w, err)
		return
	}

	rows, err := s.store.PrecipitationSince(ctx, since)
	if err != nil {
		s.queryError(w, err)
		return
	}

	precip := make(map[string]*float64, len(rows))
	for _, row := range rows {
		precip[row.Date] = row.Precipitation
	}
	writeJSON(w, http.StatusOK, precip)
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.StationIDs(r.Context())
	if err != nil {
		s.queryError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

type temperatureObservation struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
}

// handleTobs returns the most active station's temperature observations for
// the last 12 months.
func (s *Server) handleTobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active, err := s.store.MostActiveStation(ctx)
	if errors.Is(err, sqlite.ErrNoData) {
		writeJSON(w, http.StatusNotFound, errorBody("no observation data loaded"))
		return
	}
	if err != nil {
		s.queryError(w, err)
		return
	}

	mostRecent, err := s.store.MostRecentDate(ctx)
	if err != nil {
		s.queryError(w, err)
		return
	}
	since, err := domain.TwelveMonthsBefore(mostRecent)
	if err != nil {
		s.queryError(w, err)
		return
	}

	rows, err := s.store.TemperatureObservations(ctx, active.StationID, since)
	if err != nil {
		s.queryError(w, err)
		return
	}

	observations := make([]temperatureObservation, len(rows))
	for i, row := range rows {
		observations[i] = temperatureObservation{Date: row.Date, Temperature: row.Temperature}
	}
	writeJSON(w, http.StatusOK, observations)
}

// handleTemperatureRange returns TMIN/TAVG/TMAX from a start date, optionally
// bounded by an end date. Dates must be YYYY-MM-DD.
func (s *Server) handleTemperatureRange(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start")
	end := r.PathValue("end")

	if !domain.ValidDate(start) || (end != "" && !domain.ValidDate(end)) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid date format, use YYYY-MM-DD"))
		return
	}

	stats, err := s.store.TemperatureStats(r.Context(), start, end)
	if errors.Is(err, sqlite.ErrNoData) {
		if end == "" {
			writeJSON(w, http.StatusNotFound, errorBody("no data found for the given start date"))
		} else {
			writeJSON(w, http.StatusNotFound, errorBody("no data found for the given date range"))
		}
		return
	}
	if err != nil {
		s.queryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready once the store is reachable and at least one
// observation has been loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}

	_, observations, err := s.store.Counts(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	if observations == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "no observations loaded",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) queryError(w http.ResponseWriter, err error) {
	s.logger.Error("query failed", "error", err)
	s.metrics.QueryErrors.Inc()
	writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
}

// instrument wraps a handler with request counting and duration metrics.
func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
