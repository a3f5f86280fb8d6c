// Package station manages the serial link to a DigiWX weather station. The station
// needs no commands or handshake, it unconditionally emits one record line roughly
// every 5 seconds and the link is read only.
package station

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aldas/go-digiwx-client/internal/utils"
	"github.com/tarm/serial"
)

const (
	// DefaultPort is the serial device DigiWX stations are conventionally wired to.
	DefaultPort = "/dev/ttyS0"
	// DefaultBaudRate is the only line speed DigiWX station firmware speaks.
	DefaultBaudRate = 19200
	// DefaultReadTimeout is how long one read cycle waits for a complete record.
	DefaultReadTimeout = 3 * time.Second
	// DefaultMaxAttempts is the read attempt budget before the link is declared dead.
	DefaultMaxAttempts = 5
	// DefaultRetryDelay is the pause between failed read attempts.
	DefaultRetryDelay = 10 * time.Second

	// portPollInterval limits how long a single port read blocks. Reads must block
	// only a small amount of time to be able to check if context was cancelled
	// during the read, ReadTimeout bounds the whole cycle. Can not be smaller
	// than 100ms.
	portPollInterval = 100 * time.Millisecond

	// readBufferSize is enough for several records, one line is ~230 bytes.
	readBufferSize = 4096
	// readChunkSize is how much a single port read can return. Must be smaller than
	// readBufferSize.
	readChunkSize = 512
)

// Config is configuration for station Connection
type Config struct {
	// Port is the serial device path (defaults to DefaultPort)
	Port string
	// BaudRate is the serial line speed (defaults to DefaultBaudRate)
	BaudRate int
	// ReadTimeout is the maximum duration ReadLine waits for a complete record
	// before yielding an empty read (defaults to DefaultReadTimeout)
	ReadTimeout time.Duration
	// MaxAttempts is how many times ReadLineWithRetry attempts a failing read before
	// returning RetriesExhaustedError (defaults to DefaultMaxAttempts)
	MaxAttempts int
	// RetryDelay is the pause between failed read attempts (defaults to
	// DefaultRetryDelay)
	RetryDelay time.Duration
	// Logger receives debug/info/error events (defaults to slog.Default())
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.BaudRate <= 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// Connection is a serial link to a DigiWX station. It is created closed, Open
// establishes the transport and Close releases it.
//
// Note: is not go-routine safe
type Connection struct {
	config Config
	logger *slog.Logger
	port   io.ReadWriteCloser

	// readBuffer carries bytes between ReadLine calls so a record split across read
	// cycles is not lost. readIndex is how much of it is filled.
	readBuffer []byte
	readIndex  int

	openPortFunc func(config *serial.Config) (io.ReadWriteCloser, error)
	sleepFunc    func(timeout time.Duration)
	timeNow      func() time.Time
}

// NewConnection creates a closed Connection to given serial port with default
// configuration.
func NewConnection(port string) *Connection {
	return NewConnectionWithConfig(Config{Port: port})
}

// NewConnectionWithConfig creates a closed Connection with given configuration.
func NewConnectionWithConfig(config Config) *Connection {
	config = config.withDefaults()
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Connection{
		config:     config,
		logger:     logger,
		readBuffer: make([]byte, readBufferSize),
		openPortFunc: func(config *serial.Config) (io.ReadWriteCloser, error) {
			return serial.OpenPort(config)
		},
		sleepFunc: time.Sleep,
		timeNow:   time.Now,
	}
}

// Open establishes the serial link. The port is set to 8 data bits and short
// blocking reads (see portPollInterval). Returns ConnectionError when the device
// can not be opened.
func (c *Connection) Open() error {
	if c.port != nil {
		return ErrAlreadyOpen
	}
	c.logger.Debug("opening station port",
		slog.String("port", c.config.Port),
		slog.Int("baud_rate", c.config.BaudRate),
	)
	port, err := c.openPortFunc(&serial.Config{
		Name:        c.config.Port,
		Baud:        c.config.BaudRate,
		Size:        8,
		ReadTimeout: portPollInterval,
	})
	if err != nil {
		return &ConnectionError{Port: c.config.Port, Err: err}
	}
	c.port = port
	c.readIndex = 0
	return nil
}

// Close releases the serial port. It is safe to call multiple times and on a
// connection that never opened, cleanup paths may call it unconditionally.
func (c *Connection) Close() error {
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil
	c.logger.Debug("station port closed", slog.String("port", c.config.Port))
	return err
}

// ReadLine blocks up to the configured read timeout waiting for a complete record
// line and returns it with the line terminator stripped. An empty line with nil
// error means the timeout elapsed without a complete record, which is normal when
// polling faster than the station emits. Partial data stays buffered for the next
// call. Device faults are returned as TransportError.
func (c *Connection) ReadLine(ctx context.Context) ([]byte, error) {
	if c.port == nil {
		return nil, ErrNotOpen
	}

	buf := make([]byte, readChunkSize)
	deadline := c.timeNow().Add(c.config.ReadTimeout)
	for {
		if line, ok := c.takeLine(); ok {
			c.logger.Debug("station said", slog.String("data", utils.FormatControl(line)))
			return line, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, err := c.port.Read(buf)
		// reads against a port with a read timeout surface io.EOF or
		// os.ErrDeadlineExceeded when nothing arrived in time, neither means the
		// link is dead
		if err != nil && !(errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded)) {
			return nil, &TransportError{Port: c.config.Port, Err: err}
		}
		if n > 0 {
			c.buffer(buf[0:n])
			continue
		}
		if c.timeNow().After(deadline) {
			return nil, nil
		}
	}
}

// takeLine removes the first complete record from the read buffer. One trailing
// carriage return is stripped along with the newline.
func (c *Connection) takeLine() ([]byte, bool) {
	end := bytes.IndexByte(c.readBuffer[0:c.readIndex], '\n')
	if end == -1 {
		return nil, false
	}
	line := make([]byte, end)
	copy(line, c.readBuffer[0:end])

	// keep whatever was read past this record, could be the start of the next one
	copy(c.readBuffer, c.readBuffer[end+1:c.readIndex])
	c.readIndex -= end + 1

	if k := len(line); k > 0 && line[k-1] == '\r' {
		line = line[0 : k-1]
	}
	return line, true
}

// buffer appends a chunk of read data. Unterminated garbage (line noise, wrong baud
// rate) could fill the buffer, in that case buffered bytes are discarded instead of
// overflowing.
func (c *Connection) buffer(chunk []byte) {
	if c.readIndex+len(chunk) > len(c.readBuffer) {
		c.logger.Debug("read buffer overflow, discarding buffered bytes",
			slog.Int("discarded", c.readIndex),
		)
		c.readIndex = 0
	}
	copy(c.readBuffer[c.readIndex:], chunk)
	c.readIndex += len(chunk)
}

// ReadLineWithRetry reads the next record line, retrying transport faults up to the
// configured attempt budget with the configured delay between attempts. There is no
// delay after the final failed attempt. An empty read (timeout with no data) is a
// success and is never retried. Context cancellation is returned as is, without
// retries. Exhausting the budget returns RetriesExhaustedError wrapping the last
// transport error.
func (c *Connection) ReadLineWithRetry(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		line, err := c.ReadLine(ctx)
		if err == nil {
			return line, nil
		}
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			return nil, err
		}
		lastErr = err
		c.logger.Info("failed attempt to get readings from station",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.config.MaxAttempts),
			slog.Any("error", err),
		)
		if attempt < c.config.MaxAttempts {
			c.sleepFunc(c.config.RetryDelay)
		}
	}
	err := &RetriesExhaustedError{Attempts: c.config.MaxAttempts, Err: lastErr}
	c.logger.Error("station is not responding",
		slog.Int("attempts", c.config.MaxAttempts),
		slog.Any("error", lastErr),
	)
	return nil, err
}
