package event

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event emitted by the approval engine. Subscribers
// (notification senders, export feeds) attach through the dispatcher.
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	RequestID     int64                  `json:"request_id"`
	RequestNumber string                 `json:"request_number"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// New creates a domain event with a generated id and timestamp
func New(eventType Type, requestID int64, requestNumber string, payload map[string]interface{}) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		RequestID:     requestID,
		RequestNumber: requestNumber,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// WithCorrelation creates an event linked to an existing correlation chain
func WithCorrelation(eventType Type, requestID int64, requestNumber string, payload map[string]interface{}, correlationID string) *Event {
	e := New(eventType, requestID, requestNumber, payload)
	e.CorrelationID = correlationID
	return e
}

// PayloadString retrieves a string value from the payload
func (e *Event) PayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
