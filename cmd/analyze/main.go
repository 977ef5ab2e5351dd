// Command analyze prints an exploratory summary of the loaded climate data:
// dataset overview, station activity ranking, last-12-month precipitation
// statistics, and a temperature histogram for the most active station.
//
// Usage:
//
//	go run ./cmd/analyze -db data/hawaii.db
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/hawaii-climate-api/internal/domain"
	"github.com/couchcryptid/hawaii-climate-api/internal/storage/sqlite"
)

const histogramBins = 12

func main() {
	dbPath := flag.String("db", "data/hawaii.db", "path to the climate SQLite database")
	flag.Parse()

	if code := run(*dbPath); code != 0 {
		os.Exit(code)
	}
}

func run(dbPath string) int {
	store, err := sqlite.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open store: %v\n", err)
		return 1
	}
	defer store.Close()

	ctx := context.Background()

	fmt.Println("=== Hawaii Climate Data Exploration ===")
	fmt.Println()

	if err := printOverview(ctx, store); err != nil {
		if errors.Is(err, sqlite.ErrNoData) {
			fmt.Println("No observation data loaded. Run ./cmd/load first.")
			return 1
		}
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	if err := printStationActivity(ctx, store); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	if err := printPrecipitationSummary(ctx, store); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	if err := printTemperatureHistogram(ctx, store); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	return 0
}

func printOverview(ctx context.Context, store *sqlite.Store) error {
	stations, observations, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	mostRecent, err := store.MostRecentDate(ctx)
	if err != nil {
		return err
	}
	since, err := domain.TwelveMonthsBefore(mostRecent)
	if err != nil {
		return err
	}

	fmt.Println("── Dataset overview ──")
	fmt.Printf("  stations:            %d\n", stations)
	fmt.Printf("  observations:        %d\n", observations)
	fmt.Printf("  most recent date:    %s\n", mostRecent)
	fmt.Printf("  12-month window:     %s .. %s\n", since, mostRecent)
	fmt.Println()
	return nil
}

func printStationActivity(ctx context.Context, store *sqlite.Store) error {
	ranking, err := store.StationActivityRanking(ctx)
	if err != nil {
		return err
	}

	fmt.Println("── Station activity ──")
	for i, a := range ranking {
		fmt.Printf("  %2d. %-12s %6d observations\n", i+1, a.StationID, a.Observations)
	}
	fmt.Println()
	return nil
}

func printPrecipitationSummary(ctx context.Context, store *sqlite.Store) error {
	mostRecent, err := store.MostRecentDate(ctx)
	if err != nil {
		return err
	}
	since, err := domain.TwelveMonthsBefore(mostRecent)
	if err != nil {
		return err
	}
	rows, err := store.PrecipitationSince(ctx, since)
	if err != nil {
		return err
	}

	var values []float64
	for _, row := range rows {
		if row.Precipitation != nil {
			values = append(values, *row.Precipitation)
		}
	}

	fmt.Println("── Precipitation, last 12 months ──")
	fmt.Printf("  readings:            %d (%d missing)\n", len(values), len(rows)-len(values))
	if len(values) > 0 {
		minV, maxV, total := values[0], values[0], 0.0
		for _, v := range values {
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
			total += v
		}
		fmt.Printf("  min / mean / max:    %.2f / %.2f / %.2f in\n", minV, total/float64(len(values)), maxV)
		fmt.Printf("  total:               %.2f in\n", total)
	}
	fmt.Println()
	return nil
}

func printTemperatureHistogram(ctx context.Context, store *sqlite.Store) error {
	active, err := store.MostActiveStation(ctx)
	if err != nil {
		return err
	}
	mostRecent, err := store.MostRecentDate(ctx)
	if err != nil {
		return err
	}
	since, err := domain.TwelveMonthsBefore(mostRecent)
	if err != nil {
		return err
	}
	rows, err := store.TemperatureObservations(ctx, active.StationID, since)
	if err != nil {
		return err
	}

	fmt.Printf("── Temperature histogram, station %s, last 12 months ──\n", active.StationID)
	if len(rows) == 0 {
		fmt.Println("  no temperature observations in window")
		fmt.Println()
		return nil
	}

	minT, maxT := rows[0].Temperature, rows[0].Temperature
	for _, row := range rows {
		minT = math.Min(minT, row.Temperature)
		maxT = math.Max(maxT, row.Temperature)
	}

	width := (maxT - minT) / histogramBins
	if width == 0 {
		width = 1
	}
	counts := make([]int, histogramBins)
	for _, row := range rows {
		bin := int((row.Temperature - minT) / width)
		if bin >= histogramBins {
			bin = histogramBins - 1
		}
		counts[bin]++
	}

	for i, count := range counts {
		lo := minT + float64(i)*width
		fmt.Printf("  %5.1f-%5.1f F │%s %d\n", lo, lo+width, strings.Repeat("#", scaleBar(count, counts)), count)
	}
	fmt.Println()
	return nil
}

// scaleBar fits the largest bin into a 40-character bar.
func scaleBar(count int, counts []int) int {
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		return 0
	}
	return count * 40 / maxCount
}
