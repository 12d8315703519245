package pipeline

import (
	"context"

	"github.com/couchcryptid/weather-reading-service/internal/domain"
)

// ReadingTransformer implements Transformer by parsing the observation and
// building its report.
type ReadingTransformer struct{}

// NewTransformer creates a ReadingTransformer.
func NewTransformer() *ReadingTransformer {
	return &ReadingTransformer{}
}

func (t *ReadingTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Report, error) {
	obs, err := domain.ParseObservation(raw)
	if err != nil {
		return domain.Report{}, err
	}
	return domain.ReportFromObservation(obs), nil
}
