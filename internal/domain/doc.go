// Package domain models a single weather-station reading and the reports
// derived from it.
//
// # Reading
//
// A [Reading] is an immutable snapshot of four primary measurements taken by a
// Stevenson-screen style station:
//
//	air temperature      °C
//	dew point            °C, never above the air temperature
//	wind speed           mph, non-negative
//	total rain           mm accumulated over the last 24 hours, non-negative
//
// [NewReading] is the only fallible operation. Once a Reading exists every
// accessor and derived metric is a total, pure function of its fields, so
// readings can be shared between goroutines without locking.
//
// Accessors round half away from zero. Derived metrics always work from the
// stored values, never from the rounded accessors.
//
// # Derived metrics
//
// Relative humidity uses a Magnus-style ratio of vapour pressures:
//
//	e(T) = 6.11 * 10 * (7.5 * T) / (237.3 + T)
//	RH   = e(dew point) * 100 / e(air temperature)
//
// The result is not clamped to [0, 100].
//
// Heat index applies the Rothfusz regression to the air temperature and the
// unrounded humidity. The polynomial is evaluated outside its empirical range
// as well; callers decide whether a value is meaningful.
//
// Wind chill applies the NWS formula in Fahrenheit using wind speed raised to
// the 0.16 power and converts the result back to Celsius.
//
// # Equality
//
// Two readings are equal when their four rounded accessor values match. [Equal]
// and [Hash] work on the [Measurements] capability rather than the concrete
// type, so any implementation exposing the same accessors participates. The
// hash is the plain sum of the four values and collides often.
//
// # Reports
//
// [ParseObservation] turns a station JSON payload into an [Observation] and
// [BuildReport] packages a reading with its derived metrics for display and
// publishing. Report IDs are deterministic SHA-256 prefixes of the station,
// observation time and rounded measurements, so re-publishing the same
// observation yields the same ID.
package domain
