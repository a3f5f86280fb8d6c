package digiwx

import (
	"bytes"
	"strconv"
	"strings"
)

// Station lines are plain comma separated values, 53 fields long, newline terminated.
// There is no quoting or escaping. Example:
//
//	DW,-004,-013,053,290,000,999,999,30.07,+99999,+04200,004,000,001,000,000,44,04.22,N,068,49.10,W,ME55 ,VINALHAVEN,122.7000,00,U,000,999,999,+024,+009,10,NA,NA,000000,159,01024,00,0,99999,99999,99999,0,CLR,999,CLR,999,CLR,999,CLR,999,77
//
// Known fields by index:
//
//	 0  DW          record marker
//	 1  -004        temperature (C)
//	 2  -013        dewpoint (C) in the layout table, but see fieldDewpoint
//	 3  053         relative humidity (%)
//	 4  290         wind direction (degrees)
//	 5  000         wind speed (knots)
//	 8  30.07       barometric pressure (inHg)
//	10  +04200      condensation altitude (feet)
//	16  44          latitude (degrees)
//	17  04.22       latitude (decimal minutes)
//	18  N           latitude (hemisphere)
//	19  068         longitude (degrees)
//	20  49.10       longitude (decimal minutes)
//	21  W           longitude (hemisphere)
//	22  ME55        airport code
//	23  VINALHAVEN  airport description
//	30  +024        indicated runway?
//	32  10          visibility?
//	35  000000      cumulative precipitation counter (0.01 in)
//	44  CLR         ceiling, cloud layer/altitude pairs through index 51
//
// Numeric tokens may carry a sign and leading zeros. Sensors with nothing to report
// produce placeholder tokens (NA, CLR, 999 variants). Non-numeric placeholders fail
// numeric parse like any other garbage, numeric ones come through as values. There
// is no placeholder table.
const (
	fieldTemperature   = 1
	fieldHumidity      = 3
	fieldWindDirection = 4
	fieldWindSpeed     = 5
	fieldPressure      = 8
	// fieldDewpoint is 21, not 2 where the layout table has dewpoint. Deployed
	// station firmware is read at 21 and existing installations depend on it.
	fieldDewpoint = 21
	// fieldRainCounter is the cumulative precipitation counter in hundredths of an
	// inch. Consumed by the Driver, not by ParseRecord.
	fieldRainCounter = 35
)

// ParseRecord parses one station line into a Record. Parsing is total: a malformed
// token or a line too short to hold an index leaves that field nil and is never an
// error. Feeding the same line twice gives the same Record.
func ParseRecord(line []byte) Record {
	tokens := splitRecord(line)
	return Record{
		Temperature:   intAt(tokens, fieldTemperature),
		Dewpoint:      intAt(tokens, fieldDewpoint),
		Humidity:      intAt(tokens, fieldHumidity),
		WindDirection: intAt(tokens, fieldWindDirection),
		WindSpeed:     intAt(tokens, fieldWindSpeed),
		Pressure:      floatAt(tokens, fieldPressure),
	}
}

// rainTotal reads the cumulative precipitation counter from a station line and
// converts it to inches. Nil when the line has no parseable counter.
func rainTotal(line []byte) *float64 {
	raw := intAt(splitRecord(line), fieldRainCounter)
	if raw == nil {
		return nil
	}
	inches := float64(*raw) / 100.0
	return &inches
}

// splitRecord strips a single trailing line terminator and splits on commas. No other
// trimming happens at line level, token level parsing tolerates surrounding spaces.
func splitRecord(line []byte) []string {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return strings.Split(string(line), ",")
}

func intAt(tokens []string, index int) *int {
	if index >= len(tokens) {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(tokens[index]))
	if err != nil {
		return nil
	}
	return &v
}

func floatAt(tokens []string, index int) *float64 {
	if index >= len(tokens) {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(tokens[index]), 64)
	if err != nil {
		return nil
	}
	return &v
}
