package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
)

// OrderCustomer is the customer snapshot frozen into an order.
type OrderCustomer struct {
	ID       string `gorm:"column:id"`
	Nombre   string `gorm:"column:nombre"`
	Apellido string `gorm:"column:apellido"`
	Celular  string `gorm:"column:celular"`
	Email    string `gorm:"column:email"`
}

// Order is an immutable copy of a cart handed to the shop for in-person pickup.
type Order struct {
	ID          string            `gorm:"column:id;type:text;primaryKey"`
	OrderNumber string            `gorm:"column:order_number;not null"`
	Customer    OrderCustomer     `gorm:"embedded;embeddedPrefix:customer_"`
	LineItems   []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PickupDate  string            `gorm:"column:pickup_date;not null"`
	PickupTime  string            `gorm:"column:pickup_time;not null"`
	PickupAt    string            `gorm:"column:pickup_at;not null"`
	Comments    string            `gorm:"column:comments;not null;default:''"`
	Total       decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	TotalItems  int               `gorm:"column:total_items;not null"`
	Status      enums.OrderStatus `gorm:"column:status;not null;default:'Pending'"`
	SubmittedAt time.Time         `gorm:"column:submitted_at;not null;index:idx_orders_submitted_at"`
	UpdatedAt   *time.Time        `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName pins the table name so the embedded customer prefix does not leak into it.
func (Order) TableName() string {
	return "orders"
}
