package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/hawaii-climate-api/internal/adapter/http"
	"github.com/couchcryptid/hawaii-climate-api/internal/domain"
	"github.com/couchcryptid/hawaii-climate-api/internal/observability"
	"github.com/couchcryptid/hawaii-climate-api/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

// mockStore implements httpadapter.ClimateStore with canned data.
type mockStore struct {
	pingErr      error
	observations int

	mostRecent string
	precip     []sqlite.DatePrecipitation
	stationIDs []string
	active     sqlite.StationActivity
	tobs       []sqlite.DateTemperature
	stats      domain.TemperatureSummary
	statsErr   error
	queryErr   error
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) Counts(context.Context) (int, int, error) {
	return 0, m.observations, nil
}

func (m *mockStore) MostRecentDate(context.Context) (string, error) {
	if m.queryErr != nil {
		return "", m.queryErr
	}
	if m.mostRecent == "" {
		return "", sqlite.ErrNoData
	}
	return m.mostRecent, nil
}

func (m *mockStore) PrecipitationSince(context.Context, string) ([]sqlite.DatePrecipitation, error) {
	return m.precip, m.queryErr
}

func (m *mockStore) StationIDs(context.Context) ([]string, error) {
	return m.stationIDs, m.queryErr
}

func (m *mockStore) MostActiveStation(context.Context) (sqlite.StationActivity, error) {
	if m.active.StationID == "" {
		return sqlite.StationActivity{}, sqlite.ErrNoData
	}
	return m.active, nil
}

func (m *mockStore) TemperatureObservations(context.Context, string, string) ([]sqlite.DateTemperature, error) {
	return m.tobs, m.queryErr
}

func (m *mockStore) TemperatureStats(context.Context, string, string) (domain.TemperatureSummary, error) {
	if m.statsErr != nil {
		return domain.TemperatureSummary{}, m.statsErr
	}
	return m.stats, nil
}

func newTestServer(store *mockStore) *httpadapter.Server {
	return httpadapter.NewServer(":0", store, slog.Default(), observability.NewMetricsForTesting())
}

func get(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestIndexListsRoutes(t *testing.T) {
	srv := newTestServer(&mockStore{})
	rec := get(t, srv, "/")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Routes []string `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Routes, "/api/v1.0/precipitation")
	assert.Contains(t, body.Routes, "/api/v1.0/{start}/{end}")
}

func TestPrecipitationReturnsDateKeyedObject(t *testing.T) {
	srv := newTestServer(&mockStore{
		mostRecent: "2017-08-23",
		precip: []sqlite.DatePrecipitation{
			{Date: "2017-08-22", Precipitation: f(0.0)},
			{Date: "2017-08-23", Precipitation: f(0.08)},
			{Date: "2017-08-23", Precipitation: f(0.45)}, // same date, later row wins
			{Date: "2017-08-21", Precipitation: nil},
		},
	})
	rec := get(t, srv, "/api/v1.0/precipitation")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]*float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 3)
	require.NotNil(t, body["2017-08-23"])
	assert.InEpsilon(t, 0.45, *body["2017-08-23"], 0.0001)
	assert.Nil(t, body["2017-08-21"])
}

func TestPrecipitationReturns404WhenEmpty(t *testing.T) {
	srv := newTestServer(&mockStore{})
	rec := get(t, srv, "/api/v1.0/precipitation")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStationsReturnsIDList(t *testing.T) {
	srv := newTestServer(&mockStore{stationIDs: []string{"USC00513117", "USC00519397"}})
	rec := get(t, srv, "/api/v1.0/stations")

	assert.Equal(t, http.StatusOK, rec.Code)

	var ids []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ids))
	assert.Equal(t, []string{"USC00513117", "USC00519397"}, ids)
}

func TestStationsReturnsEmptyArrayNotNull(t *testing.T) {
	srv := newTestServer(&mockStore{})
	rec := get(t, srv, "/api/v1.0/stations")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestTobsReturnsMostActiveStationObservations(t *testing.T) {
	srv := newTestServer(&mockStore{
		mostRecent: "2017-08-23",
		active:     sqlite.StationActivity{StationID: "USC00519281", Observations: 2772},
		tobs: []sqlite.DateTemperature{
			{Date: "2016-08-24", Temperature: 77},
			{Date: "2016-08-25", Temperature: 80},
		},
	})
	rec := get(t, srv, "/api/v1.0/tobs")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body []struct {
		Date        string  `json:"date"`
		Temperature float64 `json:"temperature"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "2016-08-24", body[0].Date)
	assert.InEpsilon(t, 77.0, body[0].Temperature, 0.0001)
}

func TestTobsReturns404WhenEmpty(t *testing.T) {
	srv := newTestServer(&mockStore{})
	rec := get(t, srv, "/api/v1.0/tobs")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemperatureRange_StartOnly(t *testing.T) {
	srv := newTestServer(&mockStore{
		stats: domain.TemperatureSummary{Min: 58, Avg: 74.6, Max: 87},
	})
	rec := get(t, srv, "/api/v1.0/2016-08-23")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InEpsilon(t, 58.0, body["TMIN"], 0.0001)
	assert.InEpsilon(t, 74.6, body["TAVG"], 0.0001)
	assert.InEpsilon(t, 87.0, body["TMAX"], 0.0001)
}

func TestTemperatureRange_StartAndEnd(t *testing.T) {
	srv := newTestServer(&mockStore{
		stats: domain.TemperatureSummary{Min: 62, Avg: 70.0, Max: 78},
	})
	rec := get(t, srv, "/api/v1.0/2016-08-23/2017-08-23")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InEpsilon(t, 70.0, body["TAVG"], 0.0001)
}

func TestTemperatureRange_InvalidStartDate(t *testing.T) {
	srv := newTestServer(&mockStore{})
	rec := get(t, srv, "/api/v1.0/23-08-2016")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "YYYY-MM-DD")
}

func TestTemperatureRange_InvalidEndDate(t *testing.T) {
	srv := newTestServer(&mockStore{})
	rec := get(t, srv, "/api/v1.0/2016-08-23/not-a-date")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemperatureRange_NoData(t *testing.T) {
	srv := newTestServer(&mockStore{statsErr: sqlite.ErrNoData})

	rec := get(t, srv, "/api/v1.0/2099-01-01")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no data found for the given start date", body["error"])

	rec = get(t, srv, "/api/v1.0/2099-01-01/2099-12-31")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no data found for the given date range", body["error"])
}

func TestTemperatureRange_StoreFailure(t *testing.T) {
	srv := newTestServer(&mockStore{statsErr: errors.New("disk I/O error")})
	rec := get(t, srv, "/api/v1.0/2016-08-23")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockStore{})
	rec := get(t, srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenLoaded(t *testing.T) {
	srv := newTestServer(&mockStore{observations: 19550})
	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenEmpty(t *testing.T) {
	srv := newTestServer(&mockStore{})
	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no observations loaded", body["error"])
}

func TestReadyzReturns503WhenStoreUnreachable(t *testing.T) {
	srv := newTestServer(&mockStore{pingErr: errors.New("database is closed")})
	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockStore{})
	rec := get(t, srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
