// Package sqlite provides the SQLite-backed climate store. The load job is
// the only writer; the API server only reads.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hawaii-climate-api/internal/domain"
	"github.com/couchcryptid/hawaii-climate-api/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// ErrNoData indicates a query matched no rows.
var ErrNoData = errors.New("no data")

// Store wraps a SQLite database holding the stations and observations tables.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if necessary) a SQLite store at the provided path and
// applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}

	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// UpsertStations inserts or replaces station metadata rows in one transaction.
// Returns the number of rows written.
func (s *Store) UpsertStations(ctx context.Context, stations []domain.Station) (int, error) {
	if len(stations) == 0 {
		return 0, nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin stations transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO stations (id, name, latitude, longitude, elevation)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    latitude = excluded.latitude,
    longitude = excluded.longitude,
    elevation = excluded.elevation`)
	if err != nil {
		return 0, fmt.Errorf("prepare stations insert: %w", err)
	}
	defer stmt.Close()

	for _, st := range stations {
		if st.ID == "" {
			return 0, fmt.Errorf("station id is required")
		}
		if _, err := stmt.ExecContext(ctx, st.ID, st.Name, st.Latitude, st.Longitude, st.Elevation); err != nil {
			return 0, fmt.Errorf("insert station %s: %w", st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit stations: %w", err)
	}
	return len(stations), nil
}

// InsertObservations inserts observation rows in one transaction, skipping
// duplicates on (station_id, date) so reloading the same CSV is a no-op.
// Returns the number of rows actually inserted.
func (s *Store) InsertObservations(ctx context.Context, observations []domain.Observation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin observations transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO observations (station_id, date, prcp, tobs)
VALUES (?, ?, ?, ?)
ON CONFLICT (station_id, date) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare observations insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, obs := range observations {
		res, err := stmt.ExecContext(ctx, obs.StationID, obs.Date, nullFloat(obs.Precipitation), nullFloat(obs.Temperature))
		if err != nil {
			return 0, fmt.Errorf("insert observation %s/%s: %w", obs.StationID, obs.Date, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit observations: %w", err)
	}
	return inserted, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
