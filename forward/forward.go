// Package forward publishes observation packets to an MQTT broker so consumers other
// than the host engine (dashboards, archivers) can follow the station feed.
package forward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	digiwx "github.com/aldas/go-digiwx-client"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTopic is the topic observation packets are published to when configuration
// does not name one.
const DefaultTopic = "digiwx/loop"

const publishTimeout = 5 * time.Second

// Config is configuration for Publisher
type Config struct {
	// BrokerURL is the broker address, for example tcp://localhost:1883
	BrokerURL string
	// ClientID identifies this publisher to the broker (defaults to "digiwx-reader")
	ClientID string
	// Topic is the topic packets are published to (defaults to DefaultTopic)
	Topic string
	// Logger receives debug/info/error events (defaults to slog.Default())
	Logger *slog.Logger
}

// Publisher forwards observation packets to an MQTT broker as JSON with QoS 1.
// Absent packet fields are omitted from the payload.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger

	stopOnce sync.Once
}

// NewPublisher creates a Publisher for given broker. The broker connection is not
// established until Connect.
func NewPublisher(config Config) (*Publisher, error) {
	if config.BrokerURL == "" {
		return nil, errors.New("forward: broker URL is required")
	}
	clientID := config.ClientID
	if clientID == "" {
		clientID = "digiwx-reader"
	}
	topic := config.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Publisher{
		topic:  topic,
		logger: logger,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.BrokerURL)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", slog.String("broker", config.BrokerURL))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", slog.Any("error", err))
	})

	p.client = mqtt.NewClient(opts)
	return p, nil
}

// Connect establishes the broker connection and waits for it to come up, honoring
// context cancellation. The client keeps reconnecting on its own afterwards.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("forward: mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// PublishObservation publishes one observation packet.
func (p *Publisher) PublishObservation(obs digiwx.Observation) error {
	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("forward: marshal observation: %w", err)
	}

	token := p.client.Publish(p.topic, 1, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("forward: publish timeout for topic %v", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("forward: publish observation: %w", err)
	}

	p.logger.Debug("published observation", slog.String("topic", p.topic))
	return nil
}

// Close disconnects from the broker. Safe to call multiple times.
func (p *Publisher) Close() {
	p.stopOnce.Do(func() {
		p.client.Disconnect(250)
		p.logger.Info("mqtt disconnected")
	})
}
