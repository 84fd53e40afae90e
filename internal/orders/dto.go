package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forrajeria-backend/internal/checkout/helpers"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
)

// LineItemDTO is one product line of an order.
type LineItemDTO struct {
	ProductID string          `json:"product_id"`
	Nombre    string          `json:"nombre"`
	Precio    decimal.Decimal `json:"precio"`
	Cantidad  int             `json:"cantidad"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the customer-facing view of an order.
type OrderDTO struct {
	ID            string            `json:"id"`
	DisplayNumber string            `json:"display_number"`
	OrderNumber   string            `json:"order_number"`
	Status        enums.OrderStatus `json:"status"`
	PickupDate    string            `json:"pickup_date"`
	PickupTime    string            `json:"pickup_time"`
	PickupAt      string            `json:"pickup_at"`
	Comments      string            `json:"comments,omitempty"`
	Total         decimal.Decimal   `json:"total"`
	TotalItems    int               `json:"total_items"`
	SubmittedAt   time.Time         `json:"submitted_at"`
	UpdatedAt     *time.Time        `json:"updated_at,omitempty"`
	Repeatable    bool              `json:"repeatable"`
	LineItems     []LineItemDTO     `json:"line_items"`
}

// FromModel maps an order into its DTO.
func FromModel(o models.Order) OrderDTO {
	lines := make([]LineItemDTO, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		lines = append(lines, LineItemDTO{
			ProductID: li.ProductID,
			Nombre:    li.Nombre,
			Precio:    li.Precio,
			Cantidad:  li.Cantidad,
			Subtotal:  li.Subtotal,
		})
	}
	return OrderDTO{
		ID:            o.ID,
		DisplayNumber: helpers.DisplayNumber(o.ID),
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PickupDate:    o.PickupDate,
		PickupTime:    o.PickupTime,
		PickupAt:      o.PickupAt,
		Comments:      o.Comments,
		Total:         o.Total,
		TotalItems:    o.TotalItems,
		SubmittedAt:   o.SubmittedAt,
		UpdatedAt:     o.UpdatedAt,
		Repeatable:    CanRepeat(o),
		LineItems:     lines,
	}
}

// FromModels maps a list of orders.
func FromModels(list []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, FromModel(o))
	}
	return out
}
