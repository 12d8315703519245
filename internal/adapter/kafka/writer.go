package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-reading-service/internal/config"
	"github.com/couchcryptid/weather-reading-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// metadataConn is the subset of *kafkago.Conn used by Ping.
type metadataConn interface {
	SetDeadline(t time.Time) error
	ReadPartitions(topics ...string) ([]kafkago.Partition, error)
	Close() error
}

type dialFunc func(ctx context.Context, address string) (metadataConn, error)

const pingTimeout = 2 * time.Second

// Writer produces reports to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer  messageWriter
	dial    dialFunc
	brokers []string
	topic   string
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{
		writer:  w,
		dial:    dialBroker,
		brokers: cfg.KafkaBrokers,
		topic:   cfg.KafkaReportTopic,
		logger:  logger,
	}
}

func dialBroker(ctx context.Context, address string) (metadataConn, error) {
	dialer := &kafkago.Dialer{Timeout: pingTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Ping succeeds when any broker answers a metadata request for the report
// topic with at least one partition.
func (w *Writer) Ping(ctx context.Context) error {
	if len(w.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	var errs []error
	for _, broker := range w.brokers {
		err := w.pingBroker(ctx, broker)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", broker, err))
	}
	return fmt.Errorf("kafka topic %s unreachable: %w", w.topic, errors.Join(errs...))
}

func (w *Writer) pingBroker(ctx context.Context, broker string) error {
	conn, err := w.dial(ctx, broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(pingTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}

	partitions, err := conn.ReadPartitions(w.topic)
	if err != nil {
		return err
	}
	if len(partitions) == 0 {
		return errors.New("topic has no partitions")
	}
	return nil
}

// LoadBatch publishes the reports in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, reports []domain.Report) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(reports))
	for i := range reports {
		msg, err := serializeToMessage(reports[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d reports to %s: %w", len(msgs), w.topic, err)
	}
	w.logger.Debug("reports written", "topic", w.topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Report into a Kafka message keyed by report ID.
func serializeToMessage(report domain.Report) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station_id", Value: []byte(report.StationID)},
			{Key: "processed_at", Value: []byte(report.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
