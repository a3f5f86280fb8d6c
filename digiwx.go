// Package digiwx implements a client for the DigiWX aviation weather station.
// The station emits one comma separated record over its serial port roughly
// every 5 seconds. This package parses those records and converts them to
// observation packets a data-collection engine can consume.
package digiwx

const (
	// HardwareName identifies the station hardware this driver talks to.
	HardwareName = "DigiWX"
	// Version is driver version reported to the host engine and printed by the diagnostic CLI.
	Version = "0.1"
)

// UnitSystem is the unit system tag attached to every observation packet. Values
// match the tags the host data-collection engine uses to interpret packet fields.
type UnitSystem int

const (
	// UnitsUS marks packet values as United States customary units.
	UnitsUS UnitSystem = 1
	// UnitsMetric marks packet values as metric units.
	UnitsMetric UnitSystem = 16
	// UnitsMetricWX marks packet values as metric units with small-quantity rain/speed variants.
	UnitsMetricWX UnitSystem = 17
)

// Record is one measurement record parsed from a station line. Station firmware
// substitutes placeholder tokens (`NA`, `CLR` etc) when a sensor has no reading and
// those parse to nil here. Nil means the station sent no usable value.
type Record struct {
	// Temperature is outside air temperature (degrees Celsius)
	Temperature *int `json:"temperature,omitempty"`
	// Dewpoint is dew point temperature (degrees Celsius)
	Dewpoint *int `json:"dewpoint,omitempty"`
	// Humidity is relative humidity (percent)
	Humidity *int `json:"humidity,omitempty"`
	// WindDirection is direction wind is blowing from (degrees)
	WindDirection *int `json:"windDirection,omitempty"`
	// WindSpeed is wind speed (knots)
	WindSpeed *int `json:"windSpeed,omitempty"`
	// Pressure is barometric pressure (inches of mercury)
	Pressure *float64 `json:"pressure,omitempty"`
}
