package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DecodeObservations splits a JSON array of observations, or a single
// observation object, into RawEvents stamped with source and receivedAt.
// The individual observations are not validated.
func DecodeObservations(body []byte, source string, receivedAt time.Time) ([]RawEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrMalformedObservation)
	}

	var items []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedObservation, err)
		}
	case '{':
		if !json.Valid(body) {
			return nil, fmt.Errorf("%w: invalid JSON object", ErrMalformedObservation)
		}
		items = []json.RawMessage{body}
	default:
		return nil, fmt.Errorf("%w: expected a JSON object or array of objects", ErrMalformedObservation)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no observations submitted", ErrMalformedObservation)
	}

	events := make([]RawEvent, len(items))
	for i, item := range items {
		events[i] = RawEvent{Value: item, Source: source, Timestamp: receivedAt}
	}
	return events, nil
}
