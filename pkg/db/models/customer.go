package models

import "time"

// Customer is a storefront shopper identified by phone number.
type Customer struct {
	ID           string    `gorm:"column:id;type:text;primaryKey"`
	Nombre       string    `gorm:"column:nombre;not null"`
	Apellido     string    `gorm:"column:apellido;not null"`
	Celular      string    `gorm:"column:celular;not null;uniqueIndex:idx_customers_celular"`
	Email        string    `gorm:"column:email;not null;default:''"`
	RegisteredAt time.Time `gorm:"column:registered_at;not null"`
	Active       bool      `gorm:"column:active;not null;default:true"`
}
