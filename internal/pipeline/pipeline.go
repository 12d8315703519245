package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-reading-service/internal/domain"
	"github.com/couchcryptid/weather-reading-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Transformer converts a raw observation into a report.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Report, error)
}

// BatchLoader writes multiple reports to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, reports []domain.Report) error
}

// Rejection records an observation that did not produce a report.
type Rejection struct {
	Index     int
	StationID string
	Err       error
}

// Result is the outcome of a Publish call.
type Result struct {
	Reports  []domain.Report
	Rejected []Rejection
}

// Publisher turns raw observations into reports and loads them in chunks.
// It is safe for concurrent use.
type Publisher struct {
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
	maxAttempts int
	backoff     time.Duration
}

// New creates a Publisher. batchSize and maxAttempts below 1 are treated as 1.
func New(t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize, maxAttempts int) *Publisher {
	return &Publisher{
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   max(batchSize, 1),
		maxAttempts: max(maxAttempts, 1),
		backoff:     initialBackoff,
	}
}

// Publish transforms every event and loads the resulting reports. Invalid
// observations are returned as rejections, not errors. An error is returned
// only when a chunk cannot be loaded; Result then holds the reports loaded
// before it.
func (p *Publisher) Publish(ctx context.Context, events []domain.RawEvent) (Result, error) {
	start := time.Now()
	p.metrics.ObservationsReceived.Add(float64(len(events)))

	reports, rejected := p.transform(ctx, events)
	result := Result{Rejected: rejected}

	for lo := 0; lo < len(reports); lo += p.batchSize {
		hi := min(lo+p.batchSize, len(reports))
		chunk := reports[lo:hi]

		if err := p.loadWithRetry(ctx, chunk); err != nil {
			return result, err
		}
		result.Reports = append(result.Reports, chunk...)
	}

	if len(result.Reports) > 0 {
		p.metrics.PublishDuration.Observe(time.Since(start).Seconds())
	}
	return result, nil
}

func (p *Publisher) transform(ctx context.Context, events []domain.RawEvent) ([]domain.Report, []Rejection) {
	reports := make([]domain.Report, 0, len(events))
	var rejected []Rejection

	for i, raw := range events {
		report, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			station := domain.StationHint(raw)
			reason := domain.RejectReason(err)
			p.logger.Warn("observation rejected",
				"error", err,
				"index", i,
				"station_id", station,
				"reason", reason,
				"source", raw.Source,
			)
			p.metrics.ObservationsRejected.WithLabelValues(reason).Inc()
			rejected = append(rejected, Rejection{Index: i, StationID: station, Err: err})
			continue
		}
		reports = append(reports, report)
	}
	return reports, rejected
}

// loadWithRetry loads one chunk, retrying with exponential backoff until
// maxAttempts is reached or the context is done.
func (p *Publisher) loadWithRetry(ctx context.Context, chunk []domain.Report) error {
	backoff := p.backoff
	var err error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err = p.loader.LoadBatch(ctx, chunk); err == nil {
			p.metrics.BatchSize.Observe(float64(len(chunk)))
			p.metrics.ReportsPublished.Add(float64(len(chunk)))
			p.metrics.SinkReady.Set(1)
			return nil
		}

		p.metrics.LoadFailures.Inc()
		p.metrics.SinkReady.Set(0)
		p.logger.Error("load batch failed",
			"error", err,
			"batch_size", len(chunk),
			"attempt", attempt,
			"max_attempts", p.maxAttempts,
		)

		if attempt == p.maxAttempts {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return fmt.Errorf("load batch: %w", errors.Join(err, ctx.Err()))
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("load batch after %d attempts: %w", p.maxAttempts, err)
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
