package domain

import "errors"

var (
	// ErrInvalidMeasurement is returned when reading inputs violate a
	// measurement invariant. It is only ever produced at construction.
	ErrInvalidMeasurement = errors.New("invalid measurement")

	// ErrMalformedObservation is returned when an observation payload cannot
	// be decoded or is missing a required field.
	ErrMalformedObservation = errors.New("malformed observation")
)

// RejectReason maps a construction or parse error to a short label used in
// metrics and API responses.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMeasurement):
		return "invalid_measurement"
	case errors.Is(err, ErrMalformedObservation):
		return "malformed"
	default:
		return "unknown"
	}
}
