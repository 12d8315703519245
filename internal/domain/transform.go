package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// ParseObservation decodes a RawEvent's value into an Observation. Decoding
// problems and missing fields wrap ErrMalformedObservation; measurement
// violations wrap ErrInvalidMeasurement.
func ParseObservation(raw RawEvent) (Observation, error) {
	var rec RawObservation
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Observation{}, fmt.Errorf("%w: %w", ErrMalformedObservation, err)
	}

	stationID := strings.TrimSpace(rec.StationID)
	if stationID == "" {
		return Observation{}, fmt.Errorf("%w: station_id is required", ErrMalformedObservation)
	}

	if missing := missingFields(rec); len(missing) > 0 {
		return Observation{}, fmt.Errorf("%w: station %s: missing %s",
			ErrMalformedObservation, stationID, strings.Join(missing, ", "))
	}

	rain := *rec.TotalRainMm
	if rain != math.Trunc(rain) || math.Abs(rain) > math.MaxInt32 {
		return Observation{}, fmt.Errorf("%w: station %s: total_rain_mm %g is not a whole number of millimetres",
			ErrMalformedObservation, stationID, rain)
	}

	observedAt, err := parseObservedAt(rec.ObservedAt, raw.Timestamp)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: station %s: %w", ErrMalformedObservation, stationID, err)
	}

	reading, err := NewReading(*rec.AirTempC, *rec.DewPointC, *rec.WindSpeedMph, int(rain))
	if err != nil {
		return Observation{}, fmt.Errorf("station %s: %w", stationID, err)
	}

	return Observation{
		StationID:  stationID,
		ObservedAt: observedAt,
		Reading:    reading,
	}, nil
}

func missingFields(rec RawObservation) []string {
	var missing []string
	if rec.AirTempC == nil {
		missing = append(missing, "air_temp_c")
	}
	if rec.DewPointC == nil {
		missing = append(missing, "dew_point_c")
	}
	if rec.WindSpeedMph == nil {
		missing = append(missing, "wind_speed_mph")
	}
	if rec.TotalRainMm == nil {
		missing = append(missing, "total_rain_mm")
	}
	return missing
}

// parseObservedAt parses an RFC3339 timestamp, falling back to the event
// timestamp and finally to the clock when neither is set.
func parseObservedAt(s string, fallback time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if fallback.IsZero() {
			return now(), nil
		}
		return fallback.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("observed_at %q: %w", s, err)
	}
	return t.UTC(), nil
}

// BuildReport packages a reading's rounded measurements and derived metrics.
func BuildReport(stationID string, observedAt time.Time, r WeatherReading) Report {
	observedAt = observedAt.UTC()
	return Report{
		ID:               reportID(stationID, observedAt, r),
		StationID:        stationID,
		ObservedAt:       observedAt,
		Temperature:      r.Temperature(),
		DewPoint:         r.DewPoint(),
		WindSpeed:        r.WindSpeed(),
		TotalRain:        r.TotalRain(),
		RelativeHumidity: r.RelativeHumidity(),
		HeatIndex:        r.HeatIndex(),
		WindChill:        r.WindChill(),
		Summary:          r.String(),
		ProcessedAt:      now(),
	}
}

// ReportFromObservation is BuildReport for a parsed observation.
func ReportFromObservation(obs Observation) Report {
	return BuildReport(obs.StationID, obs.ObservedAt, obs.Reading)
}

// reportID produces a deterministic ID from the station, time and rounded
// measurements so sinks can de-duplicate replays.
func reportID(stationID string, observedAt time.Time, m Measurements) string {
	input := fmt.Sprintf("%s|%s|%d|%d|%d|%d", stationID, observedAt.Format(time.RFC3339),
		m.Temperature(), m.DewPoint(), m.WindSpeed(), m.TotalRain())
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if stationID == "" {
		return short
	}
	return stationID + "-" + short
}
