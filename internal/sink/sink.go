// Package sink opens the report destination selected by configuration.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weather-reading-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-reading-service/internal/adapter/mqtt"
	"github.com/couchcryptid/weather-reading-service/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-reading-service/internal/config"
	"github.com/couchcryptid/weather-reading-service/internal/domain"
	"github.com/couchcryptid/weather-reading-service/internal/pipeline"
)

// Lister returns recently stored reports for a station.
type Lister interface {
	Recent(ctx context.Context, stationID string, limit int) ([]domain.Report, error)
}

// Sink is an opened report destination.
type Sink struct {
	Kind   string
	Loader pipeline.BatchLoader
	Lister Lister // nil unless the destination can be queried
	ping   func(ctx context.Context) error
	close  func() error
}

// Open builds the sink named by cfg.Sink. MQTT connections are established
// before returning.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Sink, error) {
	logger = logger.With("sink", cfg.Sink)

	switch cfg.Sink {
	case config.SinkKafka:
		w := kafka.NewWriter(cfg, logger)
		logger.Info("kafka sink ready", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
		return &Sink{Kind: cfg.Sink, Loader: w, ping: w.Ping, close: w.Close}, nil

	case config.SinkSQLite:
		s, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite sink: %w", err)
		}
		return &Sink{Kind: cfg.Sink, Loader: s, Lister: s, ping: s.Ping, close: s.Close}, nil

	case config.SinkMQTT:
		p := mqtt.NewPublisher(cfg, logger)
		connectCtx, cancel := context.WithTimeout(ctx, cfg.MQTTConnectTimeout)
		defer cancel()
		if err := p.Connect(connectCtx); err != nil {
			return nil, fmt.Errorf("open mqtt sink: %w", err)
		}
		return &Sink{Kind: cfg.Sink, Loader: p, ping: p.Ping, close: p.Close}, nil

	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}

// Ping checks that the destination can currently accept reports. It backs
// the service readiness probe.
func (s *Sink) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return nil
	}
	if err := s.ping(ctx); err != nil {
		return fmt.Errorf("%s sink: %w", s.Kind, err)
	}
	return nil
}

// Close releases the sink's connections or files.
func (s *Sink) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}
