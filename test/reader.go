package test_test

import (
	"io"
)

// ReadResult is single scripted result for MockReaderWriter.Read
type ReadResult struct {
	// Read is data the device produces for this read call
	Read []byte
	// Err is error the read call returns alongside the data
	Err error
}

// MockReaderWriter scripts device reads so read loops can be tested without actual
// hardware. When the script is exhausted reads return io.EOF, which is what an idle
// serial port with a read timeout produces.
type MockReaderWriter struct {
	Reads     []ReadResult
	ReadIndex int

	Writes     [][]byte
	WriteErr   error
	CloseCalls int
	CloseErr   error
}

func (m *MockReaderWriter) Read(p []byte) (int, error) {
	if m.ReadIndex >= len(m.Reads) {
		return 0, io.EOF
	}
	result := m.Reads[m.ReadIndex]
	m.ReadIndex++
	n := copy(p, result.Read)
	return n, result.Err
}

func (m *MockReaderWriter) Write(p []byte) (int, error) {
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	b := make([]byte, len(p))
	copy(b, p)
	m.Writes = append(m.Writes, b)
	return len(p), nil
}

func (m *MockReaderWriter) Close() error {
	m.CloseCalls++
	return m.CloseErr
}
