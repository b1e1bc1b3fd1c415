// Package units provides pure unit conversions for weather values.
//
// Snapshots are always stored in Celsius and km/h; conversion happens only at
// the API response boundary, driven by an explicit Preferences value.
package units

// TempUnit is a display unit for temperatures
type TempUnit string

// SpeedUnit is a display unit for wind speeds
type SpeedUnit string

const (
	Celsius    TempUnit = "C"
	Fahrenheit TempUnit = "F"

	Kph SpeedUnit = "kph"
	Mph SpeedUnit = "mph"
)

// mph/kph factor used by the upstream provider
const kphPerMph = 1.609

// Preferences selects the display units for a single formatted response.
// There is no process-wide mutable default; callers pass DefaultPreferences()
// explicitly when no user preference record exists.
type Preferences struct {
	TempUnit   TempUnit
	SpeedUnit  SpeedUnit
	HourFormat string // "h12" or "h24", carried for clients, no conversion here
}

// DefaultPreferences returns the units used when a user has no preference record
func DefaultPreferences() Preferences {
	return Preferences{TempUnit: Celsius, SpeedUnit: Kph, HourFormat: "h24"}
}

func CToF(c float64) float64 {
	return c*9/5 + 32
}

func FToC(f float64) float64 {
	return (f - 32) * 5 / 9
}

func KphToMph(kph float64) float64 {
	return kph / kphPerMph
}

func MphToKph(mph float64) float64 {
	return mph * kphPerMph
}

// Temp converts a stored Celsius value to the preferred display unit
func (p Preferences) Temp(c float64) float64 {
	if p.TempUnit == Fahrenheit {
		return CToF(c)
	}
	return c
}

// Speed converts a stored km/h value to the preferred display unit
func (p Preferences) Speed(kph float64) float64 {
	if p.SpeedUnit == Mph {
		return KphToMph(kph)
	}
	return kph
}
