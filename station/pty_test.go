package station

import (
	"context"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests in this file run the connection against a real pseudo terminal instead of a
// mocked port, so the tarm/serial open and timeout paths are exercised end to end.

func TestConnectionReadsRecordFromPort(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	conn := NewConnectionWithConfig(Config{
		Port:        slave.Name(),
		ReadTimeout: 500 * time.Millisecond,
		MaxAttempts: 2,
		RetryDelay:  10 * time.Millisecond,
	})
	require.NoError(t, conn.Open())
	t.Cleanup(func() { conn.Close() })

	_, err = master.Write([]byte("DW,-004,-013,053,290,000,005,008,30.07\r\n"))
	require.NoError(t, err)

	lines := make(chan []byte, 1)
	errs := make(chan error, 1)
	readLine := func() {
		line, err := conn.ReadLine(context.Background())
		if err != nil {
			errs <- err
			return
		}
		lines <- line
	}

	go readLine()
	select {
	case line := <-lines:
		assert.Equal(t, []byte("DW,-004,-013,053,290,000,005,008,30.07"), line)
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for record line")
	}

	// nothing more was written, the next read times out with an empty line
	go readLine()
	select {
	case line := <-lines:
		assert.Empty(t, line)
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for empty read")
	}
}

func TestConnectionRetriesExhaustedWhenPortDies(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { slave.Close() })

	conn := NewConnectionWithConfig(Config{
		Port:        slave.Name(),
		ReadTimeout: 200 * time.Millisecond,
		MaxAttempts: 2,
		RetryDelay:  10 * time.Millisecond,
	})
	require.NoError(t, conn.Open())
	t.Cleanup(func() { conn.Close() })

	// closing the master end makes slave reads fail the way an unplugged device does
	require.NoError(t, master.Close())

	errs := make(chan error, 1)
	go func() {
		_, err := conn.ReadLineWithRetry(context.Background())
		errs <- err
	}()

	select {
	case err := <-errs:
		var exhausted *RetriesExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 2, exhausted.Attempts)

		var transportErr *TransportError
		assert.ErrorAs(t, err, &transportErr)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for retries to exhaust")
	}
}

func TestConnectionOpenMissingDevice(t *testing.T) {
	conn := NewConnection("/dev/digiwx-does-not-exist")

	err := conn.Open()

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "/dev/digiwx-does-not-exist", connErr.Port)
}
