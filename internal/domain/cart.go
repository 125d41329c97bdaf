package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartLine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FoodID    string    `json:"food_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartEntry is a cart line joined with the food it references. An entry
// whose food left the menu is not Available and carries no price.
type CartEntry struct {
	CartLine
	Food      Food            `json:"food"`
	Available bool            `json:"available"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Cart struct {
	UserID string          `json:"user_id"`
	Lines  []CartEntry     `json:"lines"`
	Total  decimal.Decimal `json:"total"`
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

// MaxQuantity is the largest quantity a single cart line can hold, matching
// the INTEGER column it is stored in.
const MaxQuantity = 1<<31 - 1
