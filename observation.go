package digiwx

// Observation is one normalized packet handed to the host data-collection engine.
// Field names and the unit system tag follow host engine conventions. Nil fields are
// omitted from the packet, they are never defaulted to zero values.
type Observation struct {
	// DateTime is packet creation time as seconds since unix epoch
	DateTime int64 `json:"dateTime"`
	// Units tags which unit system packet values are in
	Units UnitSystem `json:"usUnits"`
	// WindDir is direction wind is blowing from (degrees)
	WindDir *float64 `json:"windDir,omitempty"`
	// WindSpeed is wind speed (knots)
	WindSpeed *float64 `json:"windSpeed,omitempty"`
	// InTemp is inside air temperature (degrees Celsius). DigiWX stations have no
	// indoor sensor so this stays unset, the field exists to keep the packet shape
	// the host engine expects.
	InTemp *float64 `json:"inTemp,omitempty"`
	// OutTemp is outside air temperature (degrees Celsius)
	OutTemp *float64 `json:"outTemp,omitempty"`
	// OutHumidity is relative humidity (percent)
	OutHumidity *float64 `json:"outHumidity,omitempty"`
	// Pressure is barometric pressure (inches of mercury)
	Pressure *float64 `json:"pressure,omitempty"`
	// Rain is rainfall since previous packet (inches)
	Rain *float64 `json:"rain,omitempty"`
}

// CalculateRain converts cumulative rain counter readings into the amount of rain
// fallen between two packets. Returns nil when either total is unknown or when the
// counter has moved backwards (station reset or counter wrap), as the delta can not
// be known in those cases.
func CalculateRain(current *float64, previous *float64) *float64 {
	if current == nil || previous == nil {
		return nil
	}
	if *current < *previous {
		return nil
	}
	delta := *current - *previous
	return &delta
}
