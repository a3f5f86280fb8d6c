package main

import (
	"context"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
	digiwx "github.com/aldas/go-digiwx-client"
)

const metricsPushInterval = 10 * time.Second

var (
	observationCount = metrics.NewCounter("digiwx_observations_total")
	errorCount       = metrics.NewCounter("digiwx_errors_total")

	// Histogram.Update ignores values below zero, so temperature (the one field
	// that can go sub-zero) is exported as a last-reading gauge.
	outTemperature = metrics.NewFloatCounter("digiwx_out_temperature_celsius")

	outHumidity   = metrics.NewHistogram("digiwx_out_humidity_percent")
	windSpeed     = metrics.NewHistogram("digiwx_wind_speed_knots")
	windDirection = metrics.NewHistogram("digiwx_wind_direction_degrees")
	pressure      = metrics.NewHistogram("digiwx_pressure_inhg")
	rainFallen    = metrics.NewFloatCounter("digiwx_rain_inches_total")
)

// initMetricsPush starts pushing collected metrics to given URL until the context is
// cancelled.
func initMetricsPush(ctx context.Context, pushURL string) error {
	writeMetrics := func(w io.Writer) {
		metrics.WritePrometheus(w, true)
	}
	opts := &metrics.PushOptions{
		ExtraLabels: `service_name="digiwxreader"`,
	}
	return metrics.InitPushExtWithOptions(ctx, pushURL, metricsPushInterval, writeMetrics, opts)
}

// observeMetrics records one observation packet. Absent fields record nothing.
func observeMetrics(obs digiwx.Observation) {
	observationCount.Inc()
	if obs.OutTemp != nil {
		outTemperature.Set(*obs.OutTemp)
	}
	if obs.OutHumidity != nil {
		outHumidity.Update(*obs.OutHumidity)
	}
	if obs.WindSpeed != nil {
		windSpeed.Update(*obs.WindSpeed)
	}
	if obs.WindDir != nil {
		windDirection.Update(*obs.WindDir)
	}
	if obs.Pressure != nil {
		pressure.Update(*obs.Pressure)
	}
	if obs.Rain != nil {
		rainFallen.Add(*obs.Rain)
	}
}
