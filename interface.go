package digiwx

import (
	"context"
)

// StationConnection is the link a Driver polls raw record lines from.
// station.Connection is the serial implementation.
type StationConnection interface {
	// ReadLineWithRetry reads the next record line, retrying transport faults up to
	// the connection's attempt budget. An empty line with nil error means the read
	// timeout elapsed without a complete record and is not a failure.
	ReadLineWithRetry(ctx context.Context) ([]byte, error)
	// Close releases the link
	Close() error
}

// ObservationSource produces normalized observation packets. *Driver is the serial
// station implementation.
type ObservationSource interface {
	// NextObservation blocks until a packet is available or the link is dead
	NextObservation(ctx context.Context) (Observation, error)
	// Close releases resources backing the source
	Close() error
}
