package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	digiwx "github.com/aldas/go-digiwx-client"
	"github.com/aldas/go-digiwx-client/forward"
	"github.com/aldas/go-digiwx-client/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResult struct {
	obs digiwx.Observation
	err error
}

// stubSource plays scripted observations. An exhausted script reports cancellation,
// which is how a stopped reader looks to the loop.
type stubSource struct {
	results    []stubResult
	reads      int
	closeCalls int
}

func (s *stubSource) NextObservation(ctx context.Context) (digiwx.Observation, error) {
	s.reads++
	if s.reads > len(s.results) {
		return digiwx.Observation{}, context.Canceled
	}
	result := s.results[s.reads-1]
	return result.obs, result.err
}

func (s *stubSource) Close() error {
	s.closeCalls++
	return nil
}

func TestReadLoop(t *testing.T) {
	observation := digiwx.Observation{DateTime: 1665488842, Units: digiwx.UnitsUS}
	deadLink := &station.RetriesExhaustedError{Attempts: 5, Err: errors.New("input/output error")}

	var testCases = []struct {
		name         string
		givenCtx     func() context.Context
		results      []stubResult
		expectReads  int
		expectErrors uint64
		expectError  string
	}{
		{
			name: "ok, stops cleanly when the source reports cancellation",
			results: []stubResult{
				{obs: observation},
				{obs: observation},
			},
			expectReads:  3,
			expectErrors: 0,
		},
		{
			name: "ok, cancelled context stops the loop after the packet in hand",
			givenCtx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			results: []stubResult{
				{obs: observation},
			},
			expectReads:  1,
			expectErrors: 0,
		},
		{
			name: "nok, dead link error stops the loop and is returned",
			results: []stubResult{
				{err: deadLink},
			},
			expectReads:  1,
			expectErrors: 1,
			expectError:  "station: 5 attempts to get readings exhausted: input/output error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			if tc.givenCtx != nil {
				ctx = tc.givenCtx()
			}
			source := &stubSource{results: tc.results}
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			errorsBefore := errorCount.Get()

			err := readLoop(ctx, logger, source, nil, time.Millisecond)

			assert.Equal(t, tc.expectReads, source.reads)
			assert.Equal(t, tc.expectErrors, errorCount.Get()-errorsBefore)
			if tc.expectError != "" {
				assert.EqualError(t, err, tc.expectError)

				var exhausted *station.RetriesExhaustedError
				assert.ErrorAs(t, err, &exhausted)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReadLoopCountsPublishFailuresAndContinues(t *testing.T) {
	// never connected, every publish fails fast
	publisher, err := forward.NewPublisher(forward.Config{
		BrokerURL: "tcp://localhost:1883",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	observation := digiwx.Observation{DateTime: 1665488842, Units: digiwx.UnitsUS}
	source := &stubSource{results: []stubResult{
		{obs: observation},
		{obs: observation},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorsBefore := errorCount.Get()

	err = readLoop(context.Background(), logger, source, publisher, time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, 3, source.reads)
	assert.Equal(t, errorsBefore+2, errorCount.Get())
}

func TestObserveMetricsToleratesAbsentFields(t *testing.T) {
	ptrFloat := func(v float64) *float64 { return &v }

	before := observationCount.Get()

	observeMetrics(digiwx.Observation{DateTime: 1665488842, Units: digiwx.UnitsUS})
	observeMetrics(digiwx.Observation{
		DateTime:    1665488842,
		Units:       digiwx.UnitsUS,
		WindDir:     ptrFloat(290),
		WindSpeed:   ptrFloat(0),
		OutTemp:     ptrFloat(-4),
		OutHumidity: ptrFloat(53),
		Pressure:    ptrFloat(30.07),
		Rain:        ptrFloat(0.25),
	})

	assert.Equal(t, before+2, observationCount.Get())
}

func TestObserveMetricsRecordsSubZeroTemperature(t *testing.T) {
	ptrFloat := func(v float64) *float64 { return &v }

	observeMetrics(digiwx.Observation{
		DateTime: 1665488842,
		Units:    digiwx.UnitsUS,
		OutTemp:  ptrFloat(-4),
	})
	assert.Equal(t, -4.0, outTemperature.Get())

	observeMetrics(digiwx.Observation{
		DateTime: 1665488847,
		Units:    digiwx.UnitsUS,
		OutTemp:  ptrFloat(4),
	})
	assert.Equal(t, 4.0, outTemperature.Get())
}
