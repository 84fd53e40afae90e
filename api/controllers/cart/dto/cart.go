package dto

import "github.com/shopspring/decimal"

// AddItemRequest adds a catalog product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// ChangeQuantityRequest moves a line's quantity by Delta.
type ChangeQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// CartLine is one cart line as returned to clients.
type CartLine struct {
	Index        int             `json:"index"`
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	StockCeiling int             `json:"stock_ceiling"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ImageURL     *string         `json:"image_url,omitempty"`
}

type CartTotals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// CartView is the cart payload for fetches and SSE frames.
type CartView struct {
	Items  []CartLine `json:"items"`
	Totals CartTotals `json:"totals"`
}

// MutationResult follows every cart change. ItemCount feeds the header badge.
type MutationResult struct {
	ItemCount int      `json:"item_count"`
	Cart      CartView `json:"cart"`
}
