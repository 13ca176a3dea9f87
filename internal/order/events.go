package order

import (
	"time"

	"github.com/fjod/coffee_cart/internal/domain"
)

type EventType string

const (
	EventOrderPlaced   EventType = "order.placed"
	EventStatusChanged EventType = "order.status_changed"
)

// Event describes one lifecycle change. Order is a detached copy.
type Event struct {
	Type           EventType          `json:"type"`
	SessionID      string             `json:"session_id,omitempty"`
	Order          domain.PlacedOrder `json:"order"`
	PreviousStatus domain.OrderStatus `json:"previous_status,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// Notifier receives lifecycle events after the manager has released its lock.
// Implementations must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }
