package digiwx

import (
	"context"
	"log/slog"
	"time"
)

// DefaultModel is the station model label used when configuration does not name one.
const DefaultModel = "WRL"

// DriverConfig is configuration for Driver
type DriverConfig struct {
	// Model is the station model label, carried for identification in logs and host
	// engine metadata (defaults to DefaultModel)
	Model string
	// Logger receives debug/info/error events (defaults to slog.Default())
	Logger *slog.Logger
}

// Driver polls a station connection and converts its records to observation packets.
// It carries the previous cumulative rain total between cycles so packets report
// incremental rainfall instead of the raw counter.
//
// Note: is not go-routine safe. The host engine polls from a single goroutine.
type Driver struct {
	conn   StationConnection
	model  string
	logger *slog.Logger

	// lastRainTotal is the counter value of the previous cycle. It moves forward
	// only after a packet has been constructed so a failed cycle can not make rain
	// disappear from the next delta.
	lastRainTotal *float64

	timeNow func() time.Time
}

// NewDriver creates a Driver polling given connection with default configuration.
func NewDriver(conn StationConnection) *Driver {
	return NewDriverWithConfig(conn, DriverConfig{})
}

// NewDriverWithConfig creates a Driver polling given connection with given config.
func NewDriverWithConfig(conn StationConnection, config DriverConfig) *Driver {
	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{
		conn:    conn,
		model:   model,
		logger:  logger,
		timeNow: time.Now,
	}
	d.logger.Info("driver starting",
		slog.String("hardware", HardwareName),
		slog.String("model", model),
		slog.String("version", Version),
	)
	return d
}

// Model is the configured station model label.
func (d *Driver) Model() string {
	return d.model
}

// NextObservation blocks until the station produces a record and returns it as an
// observation packet. Read cycles that time out with no data produce no packet and
// polling continues. Returns the context error on cancellation and
// station.RetriesExhaustedError when the link is declared dead. Both are fatal to
// the caller's loop, the connection should be closed after either.
func (d *Driver) NextObservation(ctx context.Context) (Observation, error) {
	for {
		select {
		case <-ctx.Done():
			return Observation{}, ctx.Err()
		default:
		}

		raw, err := d.conn.ReadLineWithRetry(ctx)
		if err != nil {
			return Observation{}, err
		}
		if len(raw) == 0 {
			continue
		}
		d.logger.Debug("station record", slog.String("raw", string(raw)))

		record := ParseRecord(raw)
		d.logger.Debug("parsed record", slog.Any("record", record))

		return d.toObservation(record, rainTotal(raw)), nil
	}
}

// Close releases the underlying station connection.
func (d *Driver) Close() error {
	return d.conn.Close()
}

func (d *Driver) toObservation(record Record, currentRainTotal *float64) Observation {
	obs := Observation{
		// rounded to the nearest second
		DateTime:    d.timeNow().Add(500 * time.Millisecond).Unix(),
		Units:       UnitsUS,
		WindDir:     intToFloat(record.WindDirection),
		WindSpeed:   intToFloat(record.WindSpeed),
		OutTemp:     intToFloat(record.Temperature),
		OutHumidity: intToFloat(record.Humidity),
		Pressure:    record.Pressure,
		Rain:        CalculateRain(currentRainTotal, d.lastRainTotal),
	}
	d.lastRainTotal = currentRainTotal
	return obs
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
