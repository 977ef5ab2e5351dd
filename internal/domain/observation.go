package domain

import "time"

// Station is one weather-reporting location from the stations CSV.
type Station struct {
	ID        string  `json:"station"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// Observation is one daily measurement row: a station's precipitation and
// temperature reading for a date. Either value may be missing in the source.
type Observation struct {
	StationID     string   `json:"station"`
	Date          string   `json:"date"`
	Precipitation *float64 `json:"prcp"`
	Temperature   *float64 `json:"tobs"`
}

// TemperatureSummary holds min/avg/max temperature over a date range.
// Avg is rounded to one decimal place by the store.
type TemperatureSummary struct {
	Min float64 `json:"TMIN"`
	Avg float64 `json:"TAVG"`
	Max float64 `json:"TMAX"`
}

// LoadedObservation is the form published to the Kafka sink: the observation
// plus the load timestamp.
type LoadedObservation struct {
	Observation
	LoadedAt time.Time `json:"loaded_at"`
}

// MarkLoaded stamps an observation with the current load time.
func MarkLoaded(obs Observation) LoadedObservation {
	return LoadedObservation{Observation: obs, LoadedAt: clock.Now()}
}
