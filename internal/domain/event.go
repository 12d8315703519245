package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// RawObservation is the JSON payload a station sends for one observation.
// Pointer fields distinguish a missing measurement from a zero one.
type RawObservation struct {
	StationID    string   `json:"station_id"`
	ObservedAt   string   `json:"observed_at,omitempty"` // RFC3339; falls back to RawEvent.Timestamp
	AirTempC     *float64 `json:"air_temp_c"`
	DewPointC    *float64 `json:"dew_point_c"`
	WindSpeedMph *float64 `json:"wind_speed_mph"`
	TotalRainMm  *float64 `json:"total_rain_mm"` // must be integral
}

// RawEvent is an unparsed observation together with where it came from.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Source    string // "http", "file", ...
	Timestamp time.Time
}

// Observation is a validated reading attributed to a station and a time.
type Observation struct {
	StationID  string
	ObservedAt time.Time
	Reading    Reading
}

// Report is the display-ready form of an observation: the rounded
// measurements, the derived metrics and the reading's string form.
type Report struct {
	ID               string    `json:"id"`
	StationID        string    `json:"station_id"`
	ObservedAt       time.Time `json:"observed_at"`
	Temperature      int       `json:"temperature"`
	DewPoint         int       `json:"dew_point"`
	WindSpeed        int       `json:"wind_speed"`
	TotalRain        int       `json:"total_rain"`
	RelativeHumidity int       `json:"relative_humidity"`
	HeatIndex        int       `json:"heat_index"`
	WindChill        int       `json:"wind_chill"`
	Summary          string    `json:"summary"`
	ProcessedAt      time.Time `json:"processed_at"`
}

// StationHint returns the station_id of a payload without validating the
// rest of it, or "" when the payload is not a JSON object.
func StationHint(raw RawEvent) string {
	var rec struct {
		StationID string `json:"station_id"`
	}
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return ""
	}
	return strings.TrimSpace(rec.StationID)
}
