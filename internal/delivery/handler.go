// Package delivery applies delivery confirmations from the courier feed to
// orders.
package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/campuseats/internal/domain"
)

type Deliverer interface {
	Deliver(ctx context.Context, orderID, courierID string) (domain.Order, error)
}

type Handler struct {
	orders Deliverer
	logger *slog.Logger
}

func NewHandler(orders Deliverer, logger *slog.Logger) *Handler {
	return &Handler{orders: orders, logger: logger}
}

// Handle marks the confirmed order DELIVERED. Confirmations that can never
// apply are logged and dropped; anything else is returned so the message is
// retried.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.DeliveryConfirmedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("dropping malformed delivery confirmation", "error", err)
		return nil
	}
	if event.OrderID == "" {
		h.logger.Error("dropping delivery confirmation without order id", "courier_id", event.CourierID)
		return nil
	}

	h.logger.Info("processing delivery confirmation", "order_id", event.OrderID, "courier_id", event.CourierID, "delivered_at", event.DeliveredAt)

	order, err := h.orders.Deliver(ctx, event.OrderID, event.CourierID)
	switch {
	case err == nil:
		h.logger.Info("order delivered", "order_id", order.ID, "courier_id", event.CourierID)
		return nil
	case errors.Is(err, domain.ErrNotFound):
		h.logger.Warn("delivery confirmation for unknown order", "order_id", event.OrderID)
		return nil
	case errors.Is(err, domain.ErrIllegalTransition):
		h.logger.Warn("delivery confirmation rejected", "error", err, "order_id", event.OrderID, "status", order.Status)
		return nil
	default:
		return fmt.Errorf("deliver order %s: %w", event.OrderID, err)
	}
}
