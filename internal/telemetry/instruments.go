package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StorefrontMetrics are the business counters of the cart and order flows.
type StorefrontMetrics struct {
	cartMutations  metric.Int64Counter
	checkouts      metric.Int64Counter
	checkoutAmount metric.Float64Histogram
	transitions    metric.Int64Counter
}

// NewStorefrontMetrics registers instruments on the global MeterProvider,
// which is a no-op until InitMeterProvider runs.
func NewStorefrontMetrics() (*StorefrontMetrics, error) {
	meter := otel.Meter("campuseats/storefront")

	cartMutations, err := meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation and result"))
	if err != nil {
		return nil, err
	}

	checkouts, err := meter.Int64Counter("storefront.checkouts",
		metric.WithDescription("Checkout attempts by result"))
	if err != nil {
		return nil, err
	}

	checkoutAmount, err := meter.Float64Histogram("storefront.checkout.amount",
		metric.WithDescription("Total of successfully created orders"))
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter("storefront.order.transitions",
		metric.WithDescription("Order status change attempts by action and result"))
	if err != nil {
		return nil, err
	}

	return &StorefrontMetrics{
		cartMutations:  cartMutations,
		checkouts:      checkouts,
		checkoutAmount: checkoutAmount,
		transitions:    transitions,
	}, nil
}

func (m *StorefrontMetrics) CartMutation(ctx context.Context, op string, err error) {
	if m == nil {
		return
	}
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", result(err)),
	))
}

func (m *StorefrontMetrics) Checkout(ctx context.Context, total decimal.Decimal, err error) {
	if m == nil {
		return
	}
	m.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result(err))))
	if err == nil {
		m.checkoutAmount.Record(ctx, total.InexactFloat64())
	}
}

func (m *StorefrontMetrics) Transition(ctx context.Context, action string, err error) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("result", result(err)),
	))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
