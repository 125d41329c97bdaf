package orders

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/joao-fontenele/campuseats/internal/domain"
	"github.com/joao-fontenele/campuseats/internal/telemetry"
)

const maxStatusAttempts = 3

type StatusRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	CompareAndSetStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
}

type OwnerDirectory interface {
	CafesOwnedBy(ctx context.Context, ownerID string) ([]string, error)
}

// StatusMachine applies status actions to orders. Every change is a
// compare-and-set against the stored status, so a concurrent change makes
// it re-read and re-validate instead of overwriting.
type StatusMachine struct {
	repo      StatusRepository
	owners    OwnerDirectory
	publisher Publisher
	metrics   *telemetry.StorefrontMetrics
	logger    *slog.Logger
}

func NewStatusMachine(repo StatusRepository, owners OwnerDirectory, publisher Publisher, metrics *telemetry.StorefrontMetrics, logger *slog.Logger) *StatusMachine {
	return &StatusMachine{
		repo:      repo,
		owners:    owners,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// MarkReady moves a non-terminal order to READY. Marking a READY order
// again is a no-op.
func (m *StatusMachine) MarkReady(ctx context.Context, orderID, actorID string) (domain.Order, error) {
	return m.apply(ctx, orderID, actorID, domain.ActionMarkReady, true)
}

// UndoReady moves a READY order back to PREPARING.
func (m *StatusMachine) UndoReady(ctx context.Context, orderID, actorID string) (domain.Order, error) {
	return m.apply(ctx, orderID, actorID, domain.ActionUndoReady, true)
}

// Advance moves an order one step forward, PENDING to PREPARING to READY.
func (m *StatusMachine) Advance(ctx context.Context, orderID, actorID string) (domain.Order, error) {
	return m.apply(ctx, orderID, actorID, domain.ActionAdvance, true)
}

// Deliver is used by the delivery collaborator, not by café owners, and
// skips the owner check.
func (m *StatusMachine) Deliver(ctx context.Context, orderID, courierID string) (domain.Order, error) {
	return m.apply(ctx, orderID, courierID, domain.ActionDeliver, false)
}

// apply returns the latest known order alongside any error, so callers can
// show the authoritative status after a rejected change.
func (m *StatusMachine) apply(ctx context.Context, orderID, actorID string, action domain.StatusAction, checkOwner bool) (domain.Order, error) {
	order, err := m.transition(ctx, orderID, actorID, action, checkOwner)
	m.metrics.Transition(ctx, string(action), err)
	return order, err
}

func (m *StatusMachine) transition(ctx context.Context, orderID, actorID string, action domain.StatusAction, checkOwner bool) (domain.Order, error) {
	var current domain.Order

	for range maxStatusAttempts {
		order, err := m.repo.GetByID(ctx, orderID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("repo.GetByID: %w", err)
		}
		current = *order

		if checkOwner {
			if err := m.authorize(ctx, current, actorID); err != nil {
				return current, err
			}
		}

		to, err := domain.Transition(current.Status, action)
		if err != nil {
			return current, fmt.Errorf("order %s: %w", orderID, err)
		}

		if to == current.Status {
			return current, nil
		}

		ok, err := m.repo.CompareAndSetStatus(ctx, orderID, current.Status, to)
		if err != nil {
			return current, fmt.Errorf("repo.CompareAndSetStatus: %w", err)
		}
		if !ok {
			m.logger.Info("order status changed concurrently, retrying", "order_id", orderID, "action", action)
			continue
		}

		from := current.Status
		current.Status = to
		m.logger.Info("order status updated", "order_id", orderID, "actor_id", actorID, "action", action, "from", from, "to", to)
		m.publish(ctx, current, actorID, action, from)
		return current, nil
	}

	return current, fmt.Errorf("order %s kept changing during %s: %w", orderID, action, domain.ErrIllegalTransition)
}

// authorize requires actorID to own the café of every item in the order.
func (m *StatusMachine) authorize(ctx context.Context, order domain.Order, actorID string) error {
	if actorID == "" {
		return fmt.Errorf("anonymous actor: %w", domain.ErrForbidden)
	}

	owned, err := m.owners.CafesOwnedBy(ctx, actorID)
	if err != nil {
		return fmt.Errorf("owners.CafesOwnedBy: %w", err)
	}

	for _, cafeID := range order.CafeIDs() {
		if !slices.Contains(owned, cafeID) {
			return fmt.Errorf("actor %s does not own cafe %s: %w", actorID, cafeID, domain.ErrForbidden)
		}
	}

	return nil
}

func (m *StatusMachine) publish(ctx context.Context, order domain.Order, actorID string, action domain.StatusAction, from domain.OrderStatus) {
	if m.publisher == nil {
		return
	}

	event := domain.OrderStatusChangedEvent{
		Type:      domain.EventOrderStatusChanged,
		OrderID:   order.ID,
		ActorID:   actorID,
		Action:    action,
		From:      from,
		To:        order.Status,
		Timestamp: time.Now().UTC(),
	}
	if err := m.publisher.Publish(ctx, order.ID, event); err != nil {
		m.logger.Error("failed to publish status changed event", "error", err, "order_id", order.ID)
	}
}
