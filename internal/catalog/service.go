package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
)

type productSource interface {
	ListProductsInStock(ctx context.Context) ([]models.Product, error)
}

// Query narrows and orders the catalog listing.
type Query struct {
	Search string
	Sort   enums.ProductSort
}

// Service is the read-only view of products available for sale.
type Service interface {
	List(ctx context.Context, q Query) ([]models.Product, error)
	Get(ctx context.Context, productID string) (*models.Product, error)
}

type service struct {
	store productSource
}

func NewService(store productSource) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("product store required")
	}
	return &service{store: store}, nil
}

func (s *service) List(ctx context.Context, q Query) ([]models.Product, error) {
	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Nombre), needle) {
			continue
		}
		filtered = append(filtered, p)
	}

	sortProducts(filtered, q.Sort)
	return filtered, nil
}

// Get returns a product that is currently in stock.
func (s *service) Get(ctx context.Context, productID string) (*models.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == productID {
			return &products[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
}

func (s *service) load(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.ListProductsInStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "load catalog")
	}
	return products, nil
}

func sortProducts(products []models.Product, by enums.ProductSort) {
	var less func(a, b models.Product) bool
	switch by {
	case enums.ProductSortPriceAsc:
		less = func(a, b models.Product) bool { return a.Precio.LessThan(b.Precio) }
	case enums.ProductSortPriceDesc:
		less = func(a, b models.Product) bool { return a.Precio.GreaterThan(b.Precio) }
	case enums.ProductSortStock:
		less = func(a, b models.Product) bool { return a.Stock > b.Stock }
	default:
		less = func(a, b models.Product) bool { return strings.ToLower(a.Nombre) < strings.ToLower(b.Nombre) }
	}
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })
}
