package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog listing. The storefront only ever reads it.
type Product struct {
	ID        string          `gorm:"column:id;type:text;primaryKey"`
	Nombre    string          `gorm:"column:nombre;not null"`
	Precio    decimal.Decimal `gorm:"column:precio;type:numeric(12,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	Imagen    *string         `gorm:"column:imagen"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// InStock reports whether at least one unit can be sold.
func (p Product) InStock() bool {
	return p.Stock > 0
}
