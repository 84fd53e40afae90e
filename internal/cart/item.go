package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
)

// Item is one cart line. UnitPrice is the price seen when the line was
// added and is never refreshed from the catalog.
type Item struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	StockCeiling int             `json:"stock_ceiling"`
	ImageURL     *string         `json:"image_url"`
}

// Subtotal is UnitPrice times Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Same reports whether two lines hold the same values, comparing prices
// numerically.
func (i Item) Same(other Item) bool {
	if i.ProductID != other.ProductID || i.Name != other.Name ||
		i.Quantity != other.Quantity || i.StockCeiling != other.StockCeiling ||
		!i.UnitPrice.Equal(other.UnitPrice) {
		return false
	}
	if i.ImageURL == nil || other.ImageURL == nil {
		return i.ImageURL == other.ImageURL
	}
	return *i.ImageURL == *other.ImageURL
}

func sameItems(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Same(b[i]) {
			return false
		}
	}
	return true
}

// Totals is the derived summary of a cart. Total equals Subtotal: there are
// no taxes, fees or discounts.
type Totals struct {
	Subtotal  decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
}

// ComputeTotals sums items without touching any state.
func ComputeTotals(items []Item) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
		count += item.Quantity
	}
	return Totals{Subtotal: subtotal, Total: subtotal, ItemCount: count}
}

// MergeLine is a line merged into the cart from an earlier order.
type MergeLine struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageURL  *string
}

// LinesFromOrder converts the line items of an order into merge lines.
func LinesFromOrder(order models.Order) []MergeLine {
	lines := make([]MergeLine, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		lines = append(lines, MergeLine{
			ProductID: li.ProductID,
			Name:      li.Nombre,
			UnitPrice: li.Precio,
			Quantity:  li.Cantidad,
		})
	}
	return lines
}

// Ceiling bounds a merged line. Only a Live ceiling, read from current
// stock, replaces the ceiling already recorded on a cart line.
type Ceiling struct {
	Max  int
	Live bool
}

// CeilingFunc returns the stock ceiling for a product. ok=false means the
// product can no longer be added.
type CeilingFunc func(productID string) (ceiling Ceiling, ok bool)

// FixedCeiling applies the same placeholder ceiling to every product.
func FixedCeiling(limit int) CeilingFunc {
	return func(string) (Ceiling, bool) { return Ceiling{Max: limit}, true }
}

// LiveCeiling bounds each product by the given stock levels. Products missing
// from stock or sold out cannot be merged.
func LiveCeiling(stock map[string]int) CeilingFunc {
	return func(productID string) (Ceiling, bool) {
		n, ok := stock[productID]
		return Ceiling{Max: n, Live: true}, ok && n > 0
	}
}
