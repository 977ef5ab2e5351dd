// Package domain models the historical Hawaii weather dataset.
//
// # Data Source
//
// The dataset is the GHCN-D (Global Historical Climatology Network - Daily)
// extract for nine Hawaii stations, distributed as two CSV files:
//
//	hawaii_stations.csv:     station, name, latitude, longitude, elevation
//	hawaii_measurements.csv: station, date, prcp, tobs
//
// Station IDs follow the GHCN convention, e.g. "USC00519397". Dates are
// ISO "YYYY-MM-DD" strings. Precipitation (prcp) is daily rainfall in inches
// and is frequently missing (empty cell). Temperature (tobs) is the observed
// temperature in degrees Fahrenheit at observation time.
//
// # Conventions
//
// Dates are kept as strings throughout: the dataset uses a fixed ISO format,
// lexical order equals chronological order, and the store compares them
// directly in SQL. "The last 12 months" means the most recent observation
// date in the dataset minus 365 days, inclusive.
//
// Missing prcp/tobs cells parse to nil pointers and survive as SQL NULLs;
// a malformed numeric or date is a parse error and the loader skips the row.
package domain
