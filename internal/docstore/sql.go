package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/forrajeria-backend/pkg/db"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SQLStore keeps documents in relational tables through GORM.
type SQLStore struct {
	db  *gorm.DB
	tx  txRunner
	now func() time.Time
}

// NewSQLStore binds the store to a database client.
func NewSQLStore(client *db.Client) (*SQLStore, error) {
	if client == nil || client.DB() == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &SQLStore{db: client.DB(), tx: client, now: time.Now}, nil
}

func (s *SQLStore) ListProductsInStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("stock > ?", 0).
		Order("nombre ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *SQLStore) FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, bool, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).Where("celular = ?", phone).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &customer, true, nil
}

func (s *SQLStore) CreateCustomer(ctx context.Context, customer *models.Customer) (string, error) {
	if customer == nil {
		return "", fmt.Errorf("customer required")
	}
	if strings.TrimSpace(customer.ID) == "" {
		customer.ID = uuid.NewString()
	}
	if customer.RegisteredAt.IsZero() {
		customer.RegisteredAt = s.now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(customer).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return "", ErrDuplicatePhone
		}
		return "", err
	}
	return customer.ID, nil
}

func (s *SQLStore) CreateOrder(ctx context.Context, order *models.Order) (string, error) {
	if order == nil {
		return "", fmt.Errorf("order required")
	}
	if strings.TrimSpace(order.ID) == "" {
		order.ID = uuid.NewString()
	}
	for i := range order.LineItems {
		order.LineItems[i].OrderID = order.ID
		order.LineItems[i].Position = i
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

func (s *SQLStore) ListOrders(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error) {
	query := s.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("submitted_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *SQLStore) UpdateOrderStatus(ctx context.Context, id string, status enums.OrderStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid order status %q", status)
	}
	now := s.now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
