package models

import "github.com/shopspring/decimal"

// OrderLineItem captures the snapshot of each cart line within an order.
type OrderLineItem struct {
	OrderID   string          `gorm:"column:order_id;type:text;primaryKey"`
	Position  int             `gorm:"column:position;primaryKey;autoIncrement:false"`
	ProductID string          `gorm:"column:product_id;not null"`
	Nombre    string          `gorm:"column:nombre;not null"`
	Precio    decimal.Decimal `gorm:"column:precio;type:numeric(12,2);not null"`
	Cantidad  int             `gorm:"column:cantidad;not null"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
}
