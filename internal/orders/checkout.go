package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/campuseats/internal/cart"
	"github.com/joao-fontenele/campuseats/internal/domain"
	"github.com/joao-fontenele/campuseats/internal/pricing"
	"github.com/joao-fontenele/campuseats/internal/telemetry"
)

type CheckoutRepository interface {
	Checkout(ctx context.Context, userID string, build func([]cart.Line) (domain.Order, error)) (domain.Order, error)
}

// Publisher delivers order events. Failures are logged, never returned to
// the caller.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type CheckoutService struct {
	repo      CheckoutRepository
	pricer    *pricing.Pricer
	publisher Publisher
	mirror    cart.CountMirror
	metrics   *telemetry.StorefrontMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewCheckoutService builds a CheckoutService. publisher, mirror and
// metrics may be nil.
func NewCheckoutService(repo CheckoutRepository, pricer *pricing.Pricer, publisher Publisher, mirror cart.CountMirror, metrics *telemetry.StorefrontMetrics, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		repo:      repo,
		pricer:    pricer,
		publisher: publisher,
		mirror:    mirror,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Checkout turns the user's whole cart into one PENDING order and empties
// the cart. Either both happen or neither does.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (domain.Order, error) {
	order, err := s.repo.Checkout(ctx, userID, func(lines []cart.Line) (domain.Order, error) {
		return s.buildOrder(userID, lines)
	})
	s.metrics.Checkout(ctx, order.Total, err)
	if err != nil {
		return domain.Order{}, fmt.Errorf("checkout for user %s: %w", userID, err)
	}

	s.logger.Info("order created", "order_id", order.ID, "user_id", userID, "total", order.Total.String(), "items", len(order.Items))

	if s.mirror != nil {
		if err := s.mirror.Seed(ctx, userID, 0); err != nil {
			s.logger.Warn("failed to reset cart badge", "error", err, "user_id", userID)
		}
	}

	if s.publisher != nil {
		event := domain.OrderCreatedEvent{
			Type:      domain.EventOrderCreated,
			OrderID:   order.ID,
			UserID:    order.UserID,
			Items:     order.Items,
			Total:     order.Total,
			Timestamp: order.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	return order, nil
}

func (s *CheckoutService) buildOrder(userID string, lines []cart.Line) (domain.Order, error) {
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Food == nil {
			return domain.Order{}, fmt.Errorf("food %s is no longer on the menu: %w", line.FoodID, domain.ErrNotFound)
		}

		snap, err := s.pricer.Snapshot(*line.Food, line.Quantity)
		if err != nil {
			return domain.Order{}, fmt.Errorf("price line %s: %w", line.ID, err)
		}

		items = append(items, domain.OrderItem{
			FoodID:    line.Food.ID,
			FoodName:  line.Food.Name,
			CafeID:    line.Food.CafeID,
			Quantity:  line.Quantity,
			UnitPrice: snap.UnitPrice,
		})
	}

	return domain.NewOrder(uuid.New().String(), userID, items, s.now())
}
