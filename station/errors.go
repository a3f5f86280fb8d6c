package station

import (
	"errors"
	"fmt"
)

// ErrAlreadyOpen is returned by Open when the connection already holds a port.
var ErrAlreadyOpen = errors.New("station: connection is already open")

// ErrNotOpen is returned when reading from a connection that is not open.
var ErrNotOpen = errors.New("station: connection is not open")

// ConnectionError means the serial port could not be opened.
type ConnectionError struct {
	Port string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("station: failed to open port %v: %v", e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TransportError means a read on an open link failed. Transport errors are the only
// errors ReadLineWithRetry retries.
type TransportError struct {
	Port string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("station: read failed on port %v: %v", e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RetriesExhaustedError means every read attempt in the configured budget failed and
// the link should be considered dead. It wraps the last transport error.
type RetriesExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("station: %v attempts to get readings exhausted: %v", e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}
