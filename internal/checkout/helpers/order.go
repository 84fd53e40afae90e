package helpers

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forrajeria-backend/internal/cart"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
)

// LineItemsFromCart copies cart lines into order line items, in cart order.
func LineItemsFromCart(items []cart.Item) []models.OrderLineItem {
	lines := make([]models.OrderLineItem, 0, len(items))
	for i, item := range items {
		lines = append(lines, models.OrderLineItem{
			Position:  i,
			ProductID: item.ProductID,
			Nombre:    item.Name,
			Precio:    item.UnitPrice,
			Cantidad:  item.Quantity,
			Subtotal:  item.Subtotal(),
		})
	}
	return lines
}

// SumLineItems returns the order total and item count.
func SumLineItems(lines []models.OrderLineItem) (decimal.Decimal, int) {
	total := decimal.Zero
	count := 0
	for _, line := range lines {
		total = total.Add(line.Subtotal)
		count += line.Cantidad
	}
	return total, count
}

// OrderNumber is the human-facing order reference, ECM-<unix millis>.
func OrderNumber(now time.Time) string {
	return fmt.Sprintf("ECM-%d", now.UnixMilli())
}

// PickupDisplay joins date and time the way the shop reads them.
func PickupDisplay(date, clock string) string {
	return strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
}

// DisplayNumber is the last eight characters of id, uppercased.
func DisplayNumber(id string) string {
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}
