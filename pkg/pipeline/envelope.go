// Package pipeline implements the event-driven plumbing that connects the
// simulation and evaluation engines: a versioned envelope, topic producer,
// a retrying/deduping/DLQ-ing consumer framework, and the three concrete
// consumers that chain conversation completion -> evaluation -> metrics
// aggregation -> run completion.
package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventEnvelope is the versioned wire format for every event on every
// topic: {"version":1,"event_type":"...","payload":{...}}.
type EventEnvelope struct {
	Version   int            `json:"version"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
}

// Encode serializes the envelope to its wire JSON form.
func (e EventEnvelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses the wire JSON form back into an EventEnvelope.
func DecodeEnvelope(data []byte) (EventEnvelope, error) {
	var e EventEnvelope
	if err := json.Unmarshal(data, &e); err != nil {
		return EventEnvelope{}, fmt.Errorf("decode event envelope: %w", err)
	}
	return e, nil
}

// EventID returns the payload's event_id field, or "" if absent/non-string.
func (e EventEnvelope) EventID() string {
	id, _ := e.Payload["event_id"].(string)
	return id
}

// newEventID generates a time-ordered, globally unique event identifier
// whose lexicographic order approximates creation order.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the global entropy/time source is broken,
		// which would make every other UUID call fail too; a random v4
		// keeps event production from ever stalling.
		return uuid.NewString()
	}
	return id.String()
}

func nowISO8601() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
