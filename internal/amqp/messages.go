package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"sumator/internal/core"
)

// EventMessage is the wire form of a store change event. It carries no record
// data; consumers reload the store to see the current state.
type EventMessage struct {
	ID        string         `json:"id"`
	Type      core.EventType `json:"type"`
	RecordID  int64          `json:"record_id,omitempty"`
	UserName  string         `json:"user_name,omitempty"`
	Revision  uint64         `json:"revision"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEventMessage wraps ev with a fresh message id.
func NewEventMessage(ev core.Event) *EventMessage {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &EventMessage{
		ID:        uuid.NewString(),
		Type:      ev.Type,
		RecordID:  ev.RecordID,
		UserName:  ev.UserName,
		Revision:  ev.Revision,
		Timestamp: ts,
	}
}

// Event returns the domain event carried by the message.
func (m *EventMessage) Event() core.Event {
	return core.Event{
		Type:      m.Type,
		RecordID:  m.RecordID,
		UserName:  m.UserName,
		Revision:  m.Revision,
		Timestamp: m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON creates a message from JSON bytes
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, errors.New("event message without type")
	}
	return &msg, nil
}
