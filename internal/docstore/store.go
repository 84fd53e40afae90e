// Package docstore is the remote document database holding products,
// customers and orders.
package docstore

import (
	"context"
	"errors"

	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrDuplicatePhone is returned by CreateCustomer when the phone is already registered.
var ErrDuplicatePhone = errors.New("phone already registered")

// Store is the remote document database.
type Store interface {
	// ListProductsInStock returns products with stock > 0 ordered by name.
	ListProductsInStock(ctx context.Context) ([]models.Product, error)
	FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, bool, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) (string, error)
	CreateOrder(ctx context.Context, order *models.Order) (string, error)
	// ListOrders returns orders newest first, optionally restricted to status.
	ListOrders(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status enums.OrderStatus) error
	Ping(ctx context.Context) error
}
