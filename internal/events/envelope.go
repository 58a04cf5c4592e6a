// internal/events/envelope.go

// Package events publishes order lifecycle events for downstream consumers
// (fulfilment, analytics). Publishing happens after the database commit and
// never affects the outcome of the request.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

const producerName = "b2b-marketplace-api"

type Envelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	EventVersion  int             `json:"eventVersion"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderItemPayload struct {
	ProductID  string `json:"productId"`
	SupplierID string `json:"supplierId"`
	Quantity   int    `json:"quantity"`
	Price      string `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	UserID      string             `json:"userId"`
	Items       []OrderItemPayload `json:"items"`
	Total       string             `json:"total"`
}

type OrderStatusChangedPayload struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	From        string `json:"from"`
	To          string `json:"to"`
	ChangedBy   string `json:"changedBy"`
}

// NewEnvelope wraps payload; correlationID is usually the order id.
func NewEnvelope(eventType, correlationID string, payload interface{}) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}
