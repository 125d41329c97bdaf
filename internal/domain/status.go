package domain

import "fmt"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusDelivered:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered
}

// StatusAction names an operation that may move an order between statuses.
type StatusAction string

const (
	ActionAdvance   StatusAction = "advance"
	ActionMarkReady StatusAction = "mark_ready"
	ActionUndoReady StatusAction = "undo_ready"
	ActionDeliver   StatusAction = "deliver"
)

// transitions is the only place legal status changes are defined.
// A from-status mapped to itself is an accepted no-op.
var transitions = map[StatusAction]map[OrderStatus]OrderStatus{
	ActionAdvance: {
		OrderStatusPending:   OrderStatusPreparing,
		OrderStatusPreparing: OrderStatusReady,
	},
	ActionMarkReady: {
		OrderStatusPending:   OrderStatusReady,
		OrderStatusPreparing: OrderStatusReady,
		OrderStatusReady:     OrderStatusReady,
	},
	ActionUndoReady: {
		OrderStatusReady: OrderStatusPreparing,
	},
	ActionDeliver: {
		OrderStatusReady: OrderStatusDelivered,
	},
}

// Transition returns the status an order in status from ends up in after
// action, or ErrIllegalTransition.
func Transition(from OrderStatus, action StatusAction) (OrderStatus, error) {
	edges, ok := transitions[action]
	if !ok {
		return from, fmt.Errorf("unknown action %q: %w", action, ErrIllegalTransition)
	}

	to, ok := edges[from]
	if !ok {
		return from, fmt.Errorf("%s from %s: %w", action, from, ErrIllegalTransition)
	}

	return to, nil
}
