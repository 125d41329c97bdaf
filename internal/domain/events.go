package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderCreatedEvent struct {
	Type      string          `json:"type"`
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	Type      string       `json:"type"`
	OrderID   string       `json:"order_id"`
	ActorID   string       `json:"actor_id"`
	Action    StatusAction `json:"action"`
	From      OrderStatus  `json:"from"`
	To        OrderStatus  `json:"to"`
	Timestamp time.Time    `json:"timestamp"`
}

func (e OrderCreatedEvent) EventType() string { return e.Type }

func (e OrderStatusChangedEvent) EventType() string { return e.Type }

// DeliveryConfirmedEvent is published by the delivery collaborator once an
// order has been handed over.
type DeliveryConfirmedEvent struct {
	OrderID     string    `json:"order_id"`
	CourierID   string    `json:"courier_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}
