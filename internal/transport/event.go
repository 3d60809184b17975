// Package transport carries stats events between hoststats processes over
// websockets.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rileyhilliard/hoststats/internal/metrics"
)

// EventStatsUpdate is the only event the pipeline exchanges.
const EventStatsUpdate = "stats_update"

// Event is one named message. Data is opaque text; for stats_update it is
// the JSON encoding of a metrics.Sample.
type Event struct {
	Name string `json:"event"`
	Data string `json:"data"`
}

// NewStatsUpdate wraps a sample in a stats_update event.
func NewStatsUpdate(s metrics.Sample) (Event, error) {
	text, err := s.Encode()
	if err != nil {
		return Event{}, err
	}
	return Event{Name: EventStatsUpdate, Data: text}, nil
}

// Sample decodes the payload of a stats_update event.
func (e Event) Sample() (metrics.Sample, error) {
	if e.Name != EventStatsUpdate {
		return metrics.Sample{}, fmt.Errorf("event %q does not carry a sample", e.Name)
	}
	return metrics.Decode(e.Data)
}

// ErrBadFrame marks a frame that is not a well-formed event.
var ErrBadFrame = errors.New("malformed event frame")

// Encode renders the event as a single text frame.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a text frame into an event.
func Decode(frame []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(frame, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if e.Name == "" {
		return Event{}, fmt.Errorf("%w: missing event name", ErrBadFrame)
	}
	return e, nil
}
