package domain

import "github.com/shopspring/decimal"

type Cafe struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

type Food struct {
	ID          string          `json:"id"`
	CafeID      string          `json:"cafe_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url,omitempty"`
}
