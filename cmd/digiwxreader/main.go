package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	digiwx "github.com/aldas/go-digiwx-client"
	"github.com/aldas/go-digiwx-client/forward"
	"github.com/aldas/go-digiwx-client/station"
	"github.com/lmittmann/tint"
)

func main() {
	port := flag.String("port", station.DefaultPort, "path to station serial device")
	baudRate := flag.Int("baud", station.DefaultBaudRate, "serial line baud rate")
	readTimeout := flag.Duration("timeout", station.DefaultReadTimeout, "how long one read cycle waits for a complete record")
	maxAttempts := flag.Int("max-attempts", station.DefaultMaxAttempts, "read attempts before the link is declared dead")
	retryDelay := flag.Duration("retry-delay", station.DefaultRetryDelay, "pause between failed read attempts")
	interval := flag.Duration("interval", 5*time.Second, "packet print interval. station emits a record every 5 seconds")
	model := flag.String("model", digiwx.DefaultModel, "station model label")
	debug := flag.Bool("debug", false, "log at debug level. shows raw and parsed records")
	version := flag.Bool("version", false, "print driver version and exit")
	brokerURL := flag.String("broker", "", "MQTT broker URL to forward packets to, e.g. tcp://localhost:1883. empty disables forwarding")
	topic := flag.String("topic", forward.DefaultTopic, "MQTT topic packets are published to")
	pushURL := flag.String("metrics-push", "", "URL to push observation metrics to, e.g. http://localhost:8428/api/v1/import/prometheus. empty disables push")
	flag.Parse()

	if *version {
		fmt.Printf("digiwx driver version %v\n", digiwx.Version)
		return
	}

	logger := newLogger(*debug)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := runConfig{
		station: station.Config{
			Port:        *port,
			BaudRate:    *baudRate,
			ReadTimeout: *readTimeout,
			MaxAttempts: *maxAttempts,
			RetryDelay:  *retryDelay,
			Logger:      logger,
		},
		model:     *model,
		interval:  *interval,
		brokerURL: *brokerURL,
		topic:     *topic,
		pushURL:   *pushURL,
	}
	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("reader failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
	return slog.New(handler).With(slog.String("app", "digiwxreader"))
}

type runConfig struct {
	station   station.Config
	model     string
	interval  time.Duration
	brokerURL string
	topic     string
	pushURL   string
}

func run(ctx context.Context, logger *slog.Logger, cfg runConfig) error {
	conn := station.NewConnectionWithConfig(cfg.station)
	if err := conn.Open(); err != nil {
		return err
	}

	driver := digiwx.NewDriverWithConfig(conn, digiwx.DriverConfig{
		Model:  cfg.model,
		Logger: logger,
	})
	// driver owns the connection, closing it releases the port on every exit path
	defer driver.Close()

	var publisher *forward.Publisher
	if cfg.brokerURL != "" {
		var err error
		publisher, err = forward.NewPublisher(forward.Config{
			BrokerURL: cfg.brokerURL,
			Topic:     cfg.topic,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		if err := publisher.Connect(ctx); err != nil {
			return err
		}
		defer publisher.Close()
	}

	if cfg.pushURL != "" {
		if err := initMetricsPush(ctx, cfg.pushURL); err != nil {
			return err
		}
	}

	logger.Info("starting to read station", slog.String("port", cfg.station.Port))
	return readLoop(ctx, logger, driver, publisher, cfg.interval)
}

// readLoop prints one observation packet per line to stdout until the context is
// cancelled or the link is declared dead.
func readLoop(ctx context.Context, logger *slog.Logger, source digiwx.ObservationSource, publisher *forward.Publisher, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		obs, err := source.NextObservation(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			errorCount.Inc()
			return err
		}

		b, err := json.Marshal(obs)
		if err != nil {
			errorCount.Inc()
			return err
		}
		fmt.Printf("%s\n", b)
		observeMetrics(obs)

		if publisher != nil {
			if err := publisher.PublishObservation(obs); err != nil {
				errorCount.Inc()
				logger.Error("failed to forward observation", slog.Any("error", err))
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
