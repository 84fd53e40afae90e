package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/forrajeria-backend/pkg/config"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
)

// FirestoreStore reads and writes the collections shared with the shop's
// admin panel.
type FirestoreStore struct {
	client *firestore.Client
	cfg    config.FirestoreConfig
	now    func() time.Time
}

func NewFirestoreStore(client *firestore.Client, cfg config.FirestoreConfig) (*FirestoreStore, error) {
	if client == nil {
		return nil, errors.New("firestore client is nil")
	}
	return &FirestoreStore{client: client, cfg: cfg, now: time.Now}, nil
}

func (s *FirestoreStore) products() *firestore.CollectionRef {
	return s.client.Collection(s.cfg.ProductsCollection)
}

func (s *FirestoreStore) customers() *firestore.CollectionRef {
	return s.client.Collection(s.cfg.CustomersCollection)
}

func (s *FirestoreStore) orders() *firestore.CollectionRef {
	return s.client.Collection(s.cfg.OrdersCollection)
}

// ListProductsInStock filters in memory: stock may be stored as text, which a
// range query would miss.
func (s *FirestoreStore) ListProductsInStock(ctx context.Context) ([]models.Product, error) {
	iter := s.products().Documents(ctx)
	defer iter.Stop()

	var products []models.Product
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		product := productFromDoc(snap.Ref.ID, snap.Data())
		if product.InStock() {
			products = append(products, product)
		}
	}

	sort.SliceStable(products, func(i, j int) bool {
		return strings.ToLower(products[i].Nombre) < strings.ToLower(products[j].Nombre)
	})
	return products, nil
}

func (s *FirestoreStore) FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, bool, error) {
	iter := s.customers().Where(fieldCelular, "==", phone).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find customer: %w", err)
	}
	customer := customerFromDoc(snap.Ref.ID, snap.Data())
	return &customer, true, nil
}

// CreateCustomer does not enforce phone uniqueness; Firestore has no unique
// index, so callers check with FindCustomerByPhone first.
func (s *FirestoreStore) CreateCustomer(ctx context.Context, customer *models.Customer) (string, error) {
	if customer == nil {
		return "", errors.New("customer required")
	}
	if customer.RegisteredAt.IsZero() {
		customer.RegisteredAt = s.now().UTC()
	}

	ref := s.customers().NewDoc()
	if _, err := ref.Create(ctx, customerToDoc(*customer)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return "", ErrDuplicatePhone
		}
		return "", fmt.Errorf("create customer: %w", err)
	}
	customer.ID = ref.ID
	return ref.ID, nil
}

func (s *FirestoreStore) CreateOrder(ctx context.Context, order *models.Order) (string, error) {
	if order == nil {
		return "", errors.New("order required")
	}

	ref := s.orders().NewDoc()
	if _, err := ref.Create(ctx, orderToDoc(*order)); err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	order.ID = ref.ID
	for i := range order.LineItems {
		order.LineItems[i].OrderID = ref.ID
		order.LineItems[i].Position = i
	}
	return ref.ID, nil
}

// ListOrders filters statuses in memory so documents written with the legacy
// Spanish labels still match.
func (s *FirestoreStore) ListOrders(ctx context.Context, filter *enums.OrderStatus) ([]models.Order, error) {
	iter := s.orders().Documents(ctx)
	defer iter.Stop()

	var orders []models.Order
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		order := orderFromDoc(snap.Ref.ID, snap.Data())
		if filter != nil && order.Status != *filter {
			continue
		}
		orders = append(orders, order)
	}

	sortNewestFirst(orders)
	return orders, nil
}

func (s *FirestoreStore) UpdateOrderStatus(ctx context.Context, id string, next enums.OrderStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("invalid order status %q", next)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}

	_, err := s.orders().Doc(id).Update(ctx, []firestore.Update{
		{Path: fieldEstado, Value: next.Legacy()},
		{Path: fieldActualizacion, Value: s.now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.products().Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].SubmittedAt.After(orders[j].SubmittedAt)
	})
}
