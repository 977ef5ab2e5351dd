package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawRecord is one CSV row plus the header mapping of its source file.
// Columns maps a normalized header name to its index in Values.
type RawRecord struct {
	Columns map[string]int
	Values  []string
	Source  string
	Line    int
}

// Field returns the trimmed cell for a named column, or "" if the column is
// absent or the row is short.
func (r RawRecord) Field(name string) string {
	i, ok := r.Columns[name]
	if !ok || i >= len(r.Values) {
		return ""
	}
	return strings.TrimSpace(r.Values[i])
}

// ParseStation converts a stations CSV row into a Station.
// Expected columns: station, name, latitude, longitude, elevation.
func ParseStation(rec RawRecord) (Station, error) {
	id := rec.Field("station")
	if id == "" {
		return Station{}, fmt.Errorf("%s:%d: missing station id", rec.Source, rec.Line)
	}

	lat, err := parseFloatField(rec, "latitude")
	if err != nil {
		return Station{}, err
	}
	lon, err := parseFloatField(rec, "longitude")
	if err != nil {
		return Station{}, err
	}
	elev, err := parseFloatField(rec, "elevation")
	if err != nil {
		return Station{}, err
	}

	return Station{
		ID:        id,
		Name:      rec.Field("name"),
		Latitude:  lat,
		Longitude: lon,
		Elevation: elev,
	}, nil
}

// ParseObservation converts a measurements CSV row into an Observation.
// Expected columns: station, date, prcp, tobs. Empty prcp/tobs cells are
// preserved as nil; malformed values are errors so the loader can skip
// and count the row.
func ParseObservation(rec RawRecord) (Observation, error) {
	id := rec.Field("station")
	if id == "" {
		return Observation{}, fmt.Errorf("%s:%d: missing station id", rec.Source, rec.Line)
	}

	date := rec.Field("date")
	if !ValidDate(date) {
		return Observation{}, fmt.Errorf("%s:%d: invalid date %q", rec.Source, rec.Line, date)
	}

	prcp, err := parseOptionalFloat(rec, "prcp")
	if err != nil {
		return Observation{}, err
	}
	tobs, err := parseOptionalFloat(rec, "tobs")
	if err != nil {
		return Observation{}, err
	}

	return Observation{
		StationID:     id,
		Date:          date,
		Precipitation: prcp,
		Temperature:   tobs,
	}, nil
}

// ValidDate reports whether s is a strict YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// TwelveMonthsBefore returns the date 365 days before the given date.
func TwelveMonthsBefore(date string) (string, error) {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return t.AddDate(0, 0, -365).Format(time.DateOnly), nil
}

func parseFloatField(rec RawRecord, name string) (float64, error) {
	raw := rec.Field(name)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s:%d: invalid %s %q", rec.Source, rec.Line, name, raw)
	}
	return v, nil
}

func parseOptionalFloat(rec RawRecord, name string) (*float64, error) {
	raw := rec.Field(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s:%d: invalid %s %q", rec.Source, rec.Line, name, raw)
	}
	return &v, nil
}
