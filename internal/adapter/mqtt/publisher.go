package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/weather-reading-service/internal/config"
	"github.com/couchcryptid/weather-reading-service/internal/domain"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	qos          = byte(1) // at least once
	tokenTimeout = 5 * time.Second
	pollInterval = 200 * time.Millisecond
)

var errNotConnected = errors.New("mqtt client not connected")

// client is the subset of paho.Client used by Publisher.
type client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
	IsConnectionOpen() bool
}

// Publisher sends reports to an MQTT broker, one message per report on
// <prefix>/<station>/reports. It implements pipeline.BatchLoader.
type Publisher struct {
	client client
	prefix string
	logger *slog.Logger
}

// NewPublisher configures a paho client. Call Connect before LoadBatch.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetConnectTimeout(cfg.MQTTConnectTimeout)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	return &Publisher{
		client: paho.NewClient(opts),
		prefix: cfg.MQTTTopicPrefix,
		logger: logger,
	}
}

// Connect waits for the broker connection, giving up when ctx is done.
func (p *Publisher) Connect(ctx context.Context) error {
	if p.client.IsConnectionOpen() {
		return nil
	}

	token := p.client.Connect()
	for !token.WaitTimeout(pollInterval) {
		select {
		case <-ctx.Done():
			p.client.Disconnect(0)
			return fmt.Errorf("mqtt connect: %w", ctx.Err())
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// LoadBatch publishes every report and waits for each acknowledgement.
func (p *Publisher) LoadBatch(ctx context.Context, reports []domain.Report) error {
	for _, r := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("serialize report: %w", err)
		}

		topic := Topic(p.prefix, r.StationID)
		token := p.client.Publish(topic, qos, false, payload)
		if !token.WaitTimeout(tokenTimeout) {
			return fmt.Errorf("publish to %s: timed out after %s", topic, tokenTimeout)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}

	p.logger.Debug("reports published", "prefix", p.prefix, "count", len(reports))
	return nil
}

// Close disconnects, allowing in-flight messages 250ms to complete.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

// Topic builds the report topic for a station. MQTT wildcard and separator
// characters in the station ID are replaced with '_'.
func Topic(prefix, stationID string) string {
	station := strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#':
			return '_'
		}
		return r
	}, stationID)
	if station == "" {
		station = "_"
	}
	return prefix + "/" + station + "/reports"
}

// Ping reports whether the broker connection is currently open.
func (p *Publisher) Ping(_ context.Context) error {
	if !p.client.IsConnectionOpen() {
		return errNotConnected
	}
	return nil
}
