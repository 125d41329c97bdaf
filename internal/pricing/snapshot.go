// Package pricing computes what a cart line is worth at a point in time.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/joao-fontenele/campuseats/internal/domain"
)

type Snapshot struct {
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Pricer rounds line totals to the minor unit of a single currency.
type Pricer struct {
	unit  currency.Unit
	scale int32
}

func NewPricer(unit currency.Unit) *Pricer {
	scale, _ := currency.Standard.Rounding(unit)
	return &Pricer{unit: unit, scale: int32(scale)}
}

// ParseCurrency accepts an ISO 4217 code such as "USD".
func ParseCurrency(code string) (currency.Unit, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	return unit, nil
}

func (p *Pricer) Currency() currency.Unit {
	return p.unit
}

// Snapshot copies the food's current price, rounded to the currency's minor
// unit, and multiplies it by quantity. LineTotal is always exactly
// UnitPrice*quantity, so cart and order totals agree.
func (p *Pricer) Snapshot(food domain.Food, quantity int) (Snapshot, error) {
	if quantity < 1 {
		return Snapshot{}, fmt.Errorf("quantity %d: %w", quantity, domain.ErrInvalidQuantity)
	}

	unitPrice := food.Price.Round(p.scale)
	lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	return Snapshot{UnitPrice: unitPrice, LineTotal: lineTotal}, nil
}
