// Package events publishes booking lifecycle events to Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicDeliveryEvents carries all delivery lifecycle events.
const TopicDeliveryEvents = "delivery.events"

// Event types published on TopicDeliveryEvents.
const (
	BookingCreated         = "delivery.booking.created"
	BookingRequestReceived = "delivery.booking_request.received"
)

// Envelope wraps event data with routing metadata, one envelope per message.
type Envelope struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Type   string          `json:"type"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

// NewEnvelope wraps data in an Envelope of the given type.
func NewEnvelope(source, eventType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return Envelope{
		ID:     uuid.NewString(),
		Source: source,
		Type:   eventType,
		Time:   time.Now().UTC(),
		Data:   raw,
	}, nil
}

// ParseData unmarshals the envelope data into v.
func (e Envelope) ParseData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// BookingCreatedEvent is published after a booking is persisted.
type BookingCreatedEvent struct {
	BookingID      uuid.UUID `json:"booking_id"`
	BookingNumber  string    `json:"booking_number"`
	QuoteID        uuid.UUID `json:"quote_id"`
	UserID         uuid.UUID `json:"user_id"`
	ServiceLevel   string    `json:"service_level"`
	ProductType    string    `json:"product_type"`
	EstimatedPrice float64   `json:"estimated_price"`
	UsedFallback   bool      `json:"used_fallback"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// BookingRequestReceivedEvent is published after a public booking request is persisted.
type BookingRequestReceivedEvent struct {
	RequestID    uuid.UUID `json:"request_id"`
	ServiceLevel string    `json:"service_level"`
	ProductType  string    `json:"product_type"`
	PriceTotal   float64   `json:"price_total"`
	OccurredAt   time.Time `json:"occurred_at"`
}
