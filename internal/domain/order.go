package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	FoodID    string          `json:"food_id"`
	FoodName  string          `json:"food_name"`
	CafeID    string          `json:"cafe_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal uses the price frozen at checkout, never the live menu price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewOrder builds a PENDING order and computes its total from the items.
func NewOrder(id, userID string, items []OrderItem, createdAt time.Time) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Quantity < 1 {
			return Order{}, ErrInvalidQuantity
		}
		total = total.Add(item.LineTotal())
	}

	return Order{
		ID:        id,
		UserID:    userID,
		Items:     items,
		Total:     total,
		Status:    OrderStatusPending,
		CreatedAt: createdAt,
	}, nil
}

// Contains reports whether any item in the order was sold by cafeID.
func (o Order) Contains(cafeID string) bool {
	for _, item := range o.Items {
		if item.CafeID == cafeID {
			return true
		}
	}
	return false
}

// CafeIDs returns the distinct cafés whose items appear in the order.
func (o Order) CafeIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	var ids []string
	for _, item := range o.Items {
		if _, ok := seen[item.CafeID]; ok {
			continue
		}
		seen[item.CafeID] = struct{}{}
		ids = append(ids, item.CafeID)
	}
	return ids
}

// CafeOrder is an order as seen by one café: only its own items, with a
// subtotal computed from the frozen item prices.
type CafeOrder struct {
	Order
	CafeID       string          `json:"cafe_id"`
	CafeSubtotal decimal.Decimal `json:"cafe_subtotal"`
}

func (o Order) ForCafe(cafeID string) CafeOrder {
	view := CafeOrder{Order: o, CafeID: cafeID, CafeSubtotal: decimal.Zero}
	view.Items = make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.CafeID != cafeID {
			continue
		}
		view.Items = append(view.Items, item)
		view.CafeSubtotal = view.CafeSubtotal.Add(item.LineTotal())
	}
	return view
}
