package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/couchcryptid/hawaii-climate-api/internal/domain"
)

// DatePrecipitation is one (date, prcp) pair; Precipitation is nil when the
// source cell was empty.
type DatePrecipitation struct {
	Date          string
	Precipitation *float64
}

// DateTemperature is one (date, tobs) pair with a non-null temperature.
type DateTemperature struct {
	Date        string
	Temperature float64
}

// StationActivity pairs a station with its observation count.
type StationActivity struct {
	StationID    string
	Observations int
}

// MostRecentDate returns the latest observation date in the dataset.
func (s *Store) MostRecentDate(ctx context.Context) (string, error) {
	var date sql.NullString
	err := s.sqlDB.QueryRowContext(ctx, `SELECT MAX(date) FROM observations`).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("query most recent date: %w", err)
	}
	if !date.Valid {
		return "", ErrNoData
	}
	return date.String, nil
}

// PrecipitationSince returns all (date, prcp) pairs on or after the given
// date, ordered by date ascending.
func (s *Store) PrecipitationSince(ctx context.Context, date string) ([]DatePrecipitation, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT date, prcp FROM observations
WHERE date >= ?
ORDER BY date`, date)
	if err != nil {
		return nil, fmt.Errorf("query precipitation: %w", err)
	}
	defer rows.Close()

	var results []DatePrecipitation
	for rows.Next() {
		var d string
		var prcp sql.NullFloat64
		if err := rows.Scan(&d, &prcp); err != nil {
			return nil, fmt.Errorf("scan precipitation row: %w", err)
		}
		dp := DatePrecipitation{Date: d}
		if prcp.Valid {
			v := prcp.Float64
			dp.Precipitation = &v
		}
		results = append(results, dp)
	}
	return results, rows.Err()
}

// StationIDs returns all station identifiers.
func (s *Store) StationIDs(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id FROM stations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query station ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan station id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stations returns full station metadata.
func (s *Store) Stations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, latitude, longitude, elevation FROM stations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var stations []domain.Station
	for rows.Next() {
		var st domain.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude, &st.Elevation); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// MostActiveStation returns the station with the highest observation count.
func (s *Store) MostActiveStation(ctx context.Context) (StationActivity, error) {
	var a StationActivity
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT station_id, COUNT(*) AS observations
FROM observations
GROUP BY station_id
ORDER BY observations DESC
LIMIT 1`).Scan(&a.StationID, &a.Observations)
	if err == sql.ErrNoRows {
		return StationActivity{}, ErrNoData
	}
	if err != nil {
		return StationActivity{}, fmt.Errorf("query most active station: %w", err)
	}
	return a, nil
}

// StationActivityRanking returns all stations ranked by observation count descending.
func (s *Store) StationActivityRanking(ctx context.Context) ([]StationActivity, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT station_id, COUNT(*) AS observations
FROM observations
GROUP BY station_id
ORDER BY observations DESC`)
	if err != nil {
		return nil, fmt.Errorf("query station activity: %w", err)
	}
	defer rows.Close()

	var ranking []StationActivity
	for rows.Next() {
		var a StationActivity
		if err := rows.Scan(&a.StationID, &a.Observations); err != nil {
			return nil, fmt.Errorf("scan station activity: %w", err)
		}
		ranking = append(ranking, a)
	}
	return ranking, rows.Err()
}

// TemperatureObservations returns a station's non-null temperature readings on
// or after the given date, ordered by date ascending.
func (s *Store) TemperatureObservations(ctx context.Context, stationID, since string) ([]DateTemperature, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT date, tobs FROM observations
WHERE station_id = ? AND date >= ? AND tobs IS NOT NULL
ORDER BY date`, stationID, since)
	if err != nil {
		return nil, fmt.Errorf("query temperature observations: %w", err)
	}
	defer rows.Close()

	var results []DateTemperature
	for rows.Next() {
		var dt DateTemperature
		if err := rows.Scan(&dt.Date, &dt.Temperature); err != nil {
			return nil, fmt.Errorf("scan temperature row: %w", err)
		}
		results = append(results, dt)
	}
	return results, rows.Err()
}

// TemperatureStats computes MIN/AVG/MAX temperature over observations with
// date >= start, and date <= end when end is non-empty. The average is
// rounded to one decimal place. Returns ErrNoData when no rows match.
func (s *Store) TemperatureStats(ctx context.Context, start, end string) (domain.TemperatureSummary, error) {
	query := `
SELECT MIN(tobs), ROUND(AVG(tobs), 1), MAX(tobs)
FROM observations
WHERE tobs IS NOT NULL AND date >= ?`
	args := []any{start}
	if end != "" {
		query += ` AND date <= ?`
		args = append(args, end)
	}

	var minT, avgT, maxT sql.NullFloat64
	if err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&minT, &avgT, &maxT); err != nil {
		return domain.TemperatureSummary{}, fmt.Errorf("query temperature stats: %w", err)
	}
	if !minT.Valid {
		return domain.TemperatureSummary{}, ErrNoData
	}

	return domain.TemperatureSummary{
		Min: minT.Float64,
		Avg: avgT.Float64,
		Max: maxT.Float64,
	}, nil
}

// Counts returns the number of stations and observations in the store.
func (s *Store) Counts(ctx context.Context) (stations, observations int, err error) {
	if err = s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations`).Scan(&stations); err != nil {
		return 0, 0, fmt.Errorf("count stations: %w", err)
	}
	if err = s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&observations); err != nil {
		return 0, 0, fmt.Errorf("count observations: %w", err)
	}
	return stations, observations, nil
}
