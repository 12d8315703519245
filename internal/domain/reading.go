package domain

import (
	"fmt"
	"math"
)

// Rothfusz heat index regression coefficients (Celsius form).
const (
	hiC1 = -8.78469475556
	hiC2 = 1.61139411
	hiC3 = 2.33854883889
	hiC4 = -0.14611605
	hiC5 = -0.012308094
	hiC6 = -0.0164248277778
	hiC7 = 0.002211732
	hiC8 = 0.00072546
	hiC9 = -0.000003582
)

// Measurements is the capability shared by anything that reports the four
// rounded primary measurements of a reading. Equality and hashing are defined
// on it rather than on a concrete type.
type Measurements interface {
	Temperature() int
	DewPoint() int
	WindSpeed() int
	TotalRain() int
}

// WeatherReading is a reading together with its derived metrics.
type WeatherReading interface {
	Measurements
	RelativeHumidity() int
	HeatIndex() int
	WindChill() int
	String() string
}

// Reading is an immutable weather observation. The zero value reads 0°C with
// no wind or rain; use NewReading for anything else.
type Reading struct {
	airTemp      float64 // °C
	dewPointTemp float64 // °C, <= airTemp
	windSpeed    float64 // mph, >= 0
	totalRain    int     // mm over the last 24h, >= 0
}

var _ WeatherReading = Reading{}

// NewReading validates the measurements and returns a Reading holding them
// unrounded. Wind speed and rain are checked before the temperature
// relationship; the first violation is reported.
func NewReading(airTemp, dewPointTemp, windSpeed float64, totalRain int) (Reading, error) {
	if !isFinite(airTemp) || !isFinite(dewPointTemp) || !isFinite(windSpeed) {
		return Reading{}, fmt.Errorf("%w: measurements must be finite numbers", ErrInvalidMeasurement)
	}
	if windSpeed < 0 || totalRain < 0 {
		return Reading{}, fmt.Errorf("%w: negative wind speed or rain received are not supported", ErrInvalidMeasurement)
	}
	if airTemp < dewPointTemp {
		return Reading{}, fmt.Errorf("%w: air temperature %g is lower than dew point temperature %g",
			ErrInvalidMeasurement, airTemp, dewPointTemp)
	}

	return Reading{
		airTemp:      airTemp,
		dewPointTemp: dewPointTemp,
		windSpeed:    windSpeed,
		totalRain:    totalRain,
	}, nil
}

// Temperature returns the air temperature in °C, rounded.
func (r Reading) Temperature() int { return roundInt(r.airTemp) }

// DewPoint returns the dew point temperature in °C, rounded.
func (r Reading) DewPoint() int { return roundInt(r.dewPointTemp) }

// WindSpeed returns the wind speed in mph, rounded.
func (r Reading) WindSpeed() int { return roundInt(r.windSpeed) }

// TotalRain returns the rain received over the last 24 hours in mm.
func (r Reading) TotalRain() int { return roundInt(float64(r.totalRain)) }

// RelativeHumidity returns the relative humidity as a whole percentage.
func (r Reading) RelativeHumidity() int {
	return roundInt(r.relativeHumidity())
}

// HeatIndex returns the perceived temperature in °C from air temperature and
// humidity.
func (r Reading) HeatIndex() int {
	t := r.airTemp
	rh := r.relativeHumidity()

	hi := hiC1 +
		hiC2*t +
		hiC3*rh +
		hiC4*t*rh +
		hiC5*t*t +
		hiC6*rh*rh +
		hiC7*t*t*rh +
		hiC8*t*rh*rh +
		hiC9*t*t*rh*rh

	return roundInt(hi)
}

// WindChill returns the perceived temperature in °C from air temperature and
// wind speed.
func (r Reading) WindChill() int {
	tempF := (9.0/5.0)*r.airTemp + 32
	v := math.Pow(r.windSpeed, 0.16)

	chillF := 35.74 + 0.6215*tempF - 35.75*v + 0.4275*tempF*v

	return roundInt((chillF - 32) * 5.0 / 9.0)
}

// String formats the reading as "Reading: T = 9, D = 8, v = 7, rain = 6".
func (r Reading) String() string {
	return fmt.Sprintf("Reading: T = %d, D = %d, v = %d, rain = %d",
		r.Temperature(), r.DewPoint(), r.WindSpeed(), r.TotalRain())
}

// Equal reports whether other has the same rounded measurements.
func (r Reading) Equal(other Measurements) bool {
	return Equal(r, other)
}

// Hash returns the hash of the rounded measurements. See Hash.
func (r Reading) Hash() int {
	return Hash(r)
}

// relativeHumidity is the unrounded humidity percentage.
func (r Reading) relativeHumidity() float64 {
	actual := vaporPressure(r.dewPointTemp)
	saturated := vaporPressure(r.airTemp)
	return actual * 100 / saturated
}

func vaporPressure(t float64) float64 {
	return 6.11 * 10 * (7.5 * t) / (237.3 + t)
}

// Equal reports whether a and b expose the same four rounded measurements.
// Nil values are only equal to each other.
func Equal(a, b Measurements) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Temperature() == b.Temperature() &&
		a.DewPoint() == b.DewPoint() &&
		a.WindSpeed() == b.WindSpeed() &&
		a.TotalRain() == b.TotalRain()
}

// Hash is consistent with Equal: the sum of the four rounded measurements.
// Distinct readings collide whenever their sums match.
func Hash(m Measurements) int {
	return m.Temperature() + m.DewPoint() + m.WindSpeed() + m.TotalRain()
}

// roundInt rounds half away from zero. NaN maps to 0 and values outside the
// int range saturate, which only happens at the formulas' singularities
// (an air temperature of exactly 0°C or -237.3°C).
func roundInt(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt:
		return math.MaxInt
	case v <= math.MinInt:
		return math.MinInt
	}
	return int(math.Round(v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
