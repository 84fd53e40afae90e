package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/forrajeria-backend/internal/cart"
	"github.com/angelmondragon/forrajeria-backend/internal/catalog"
	"github.com/angelmondragon/forrajeria-backend/internal/docstore"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
	"github.com/angelmondragon/forrajeria-backend/pkg/pubsub"
)

// DefaultRepeatCeiling is the stock ceiling given to repeated lines when live
// stock is not consulted. It is effectively unbounded; submission re-checks.
const DefaultRepeatCeiling = 999

type orderStore interface {
	ListOrders(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status enums.OrderStatus) error
}

type eventPublisher interface {
	PublishOrderEvent(ctx context.Context, event pubsub.OrderEvent) error
}

// Service exposes order history and order administration.
type Service interface {
	ListForCustomer(ctx context.Context, customerID, statusFilter string) ([]models.Order, error)
	Repeat(ctx context.Context, customerID, orderID string, engine *cart.Engine) (int, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
}

// ServiceParams bundles the dependencies required by the orders service.
type ServiceParams struct {
	Store         orderStore
	Catalog       catalog.Service
	Publisher     eventPublisher
	Logger        *logger.Logger
	RepeatCeiling int
	ValidateStock bool
}

type service struct {
	store         orderStore
	catalog       catalog.Service
	publisher     eventPublisher
	logg          *logger.Logger
	repeatCeiling int
	validateStock bool
	now           func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.ValidateStock && params.Catalog == nil {
		return nil, fmt.Errorf("catalog required when repeat stock validation is enabled")
	}
	ceiling := params.RepeatCeiling
	if ceiling <= 0 {
		ceiling = DefaultRepeatCeiling
	}
	return &service{
		store:         params.Store,
		catalog:       params.Catalog,
		publisher:     params.Publisher,
		logg:          params.Logger,
		repeatCeiling: ceiling,
		validateStock: params.ValidateStock,
		now:           time.Now,
	}, nil
}

// ListForCustomer returns the customer's orders newest first. An empty,
// "all" or "todos" filter returns every status.
func (s *service) ListForCustomer(ctx context.Context, customerID, statusFilter string) ([]models.Order, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer required")
	}

	var status *enums.OrderStatus
	if !enums.IsAllOrderStatuses(statusFilter) {
		parsed, err := enums.ParseOrderStatus(statusFilter)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
				WithDetails(map[string]any{"field": "status"})
		}
		status = &parsed
	}

	all, err := s.store.ListOrders(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "list orders")
	}

	mine := make([]models.Order, 0, len(all))
	for _, o := range all {
		if o.Customer.ID != customerID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		mine = append(mine, o)
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].SubmittedAt.After(mine[j].SubmittedAt)
	})
	return mine, nil
}

// CanRepeat reports whether an order may be copied back into the cart.
func CanRepeat(o models.Order) bool {
	return o.Status == enums.OrderStatusPending
}

// Repeat merges the line items of one of the customer's orders into engine.
// Returns the new cart item count.
func (s *service) Repeat(ctx context.Context, customerID, orderID string, engine *cart.Engine) (int, error) {
	if engine == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "cart required")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	list, err := s.ListForCustomer(ctx, customerID, "")
	if err != nil {
		return 0, err
	}
	var order *models.Order
	for i := range list {
		if list[i].ID == orderID {
			order = &list[i]
			break
		}
	}
	if order == nil {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !CanRepeat(*order) {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be repeated").
			WithDetails(map[string]any{"status": order.Status})
	}

	ceiling, err := s.ceilingFor(ctx)
	if err != nil {
		return 0, err
	}
	return engine.MergeLines(ctx, cart.LinesFromOrder(*order), ceiling)
}

func (s *service) ceilingFor(ctx context.Context) (cart.CeilingFunc, error) {
	if !s.validateStock {
		return cart.FixedCeiling(s.repeatCeiling), nil
	}
	products, err := s.catalog.List(ctx, catalog.Query{})
	if err != nil {
		return nil, err
	}
	stock := make(map[string]int, len(products))
	for _, p := range products {
		stock[p.ID] = p.Stock
	}
	return cart.LiveCeiling(stock), nil
}

// UpdateStatus moves an order to a new status and announces the change.
func (s *service) UpdateStatus(ctx context.Context, orderID, status string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	parsed, err := enums.ParseOrderStatus(status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
			WithDetails(map[string]any{"field": "status"})
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, parsed); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "update order status")
	}

	if s.publisher != nil {
		event := pubsub.OrderEvent{
			Type:       pubsub.EventOrderStatusChanged,
			OrderID:    orderID,
			Status:     string(parsed),
			OccurredAt: s.now().UTC(),
		}
		if err := s.publisher.PublishOrderEvent(ctx, event); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "publish order status change failed")
		}
	}
	return nil
}
