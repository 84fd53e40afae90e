package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forrajeria-backend/internal/cart"
	"github.com/angelmondragon/forrajeria-backend/internal/catalog"
	"github.com/angelmondragon/forrajeria-backend/internal/docstore"
	"github.com/angelmondragon/forrajeria-backend/internal/localstore"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
	"github.com/angelmondragon/forrajeria-backend/pkg/pubsub"
)

var base = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type stubOrderStore struct {
	orders    []models.Order
	listErr   error
	updateErr error
	updated   map[string]enums.OrderStatus
}

func (s *stubOrderStore) ListOrders(_ context.Context, status *enums.OrderStatus) ([]models.Order, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *stubOrderStore) UpdateOrderStatus(_ context.Context, id string, status enums.OrderStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.updated == nil {
		s.updated = map[string]enums.OrderStatus{}
	}
	s.updated[id] = status
	return nil
}

type stubProducts struct {
	products []models.Product
}

func (s stubProducts) ListProductsInStock(context.Context) ([]models.Product, error) {
	return s.products, nil
}

type stubPublisher struct {
	events []pubsub.OrderEvent
}

func (s *stubPublisher) PublishOrderEvent(_ context.Context, event pubsub.OrderEvent) error {
	s.events = append(s.events, event)
	return nil
}

func order(id, customerID string, status enums.OrderStatus, offset time.Duration, lines ...models.OrderLineItem) models.Order {
	return models.Order{
		ID:          id,
		Customer:    models.OrderCustomer{ID: customerID},
		Status:      status,
		SubmittedAt: base.Add(offset),
		LineItems:   lines,
	}
}

func line(productID string, price int64, qty int) models.OrderLineItem {
	return models.OrderLineItem{
		ProductID: productID,
		Nombre:    "Producto " + productID,
		Precio:    decimal.NewFromInt(price),
		Cantidad:  qty,
		Subtotal:  decimal.NewFromInt(price * int64(qty)),
	}
}

func sampleStore() *stubOrderStore {
	return &stubOrderStore{orders: []models.Order{
		order("o1", "c1", enums.OrderStatusDelivered, 0, line("A", 100, 1)),
		order("o2", "c2", enums.OrderStatusPending, time.Hour, line("A", 100, 1)),
		order("o3", "c1", enums.OrderStatusPending, 2*time.Hour, line("A", 100, 2), line("B", 50, 3)),
		order("o4", "c1", enums.OrderStatusReady, time.Hour),
	}}
}

func newService(t *testing.T, params ServiceParams) Service {
	t.Helper()
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func ids(list []models.Order) []string {
	out := make([]string, 0, len(list))
	for _, o := range list {
		out = append(out, o.ID)
	}
	return out
}

func TestListForCustomer(t *testing.T) {
	svc := newService(t, ServiceParams{Store: sampleStore()})
	ctx := context.Background()

	cases := []struct {
		filter string
		want   []string
	}{
		{"", []string{"o3", "o4", "o1"}},
		{"todos", []string{"o3", "o4", "o1"}},
		{"all", []string{"o3", "o4", "o1"}},
		{"Pending", []string{"o3"}},
		{"Entregado", []string{"o1"}},
	}
	for _, tc := range cases {
		got, err := svc.ListForCustomer(ctx, "c1", tc.filter)
		if err != nil {
			t.Fatalf("filter %q: %v", tc.filter, err)
		}
		gotIDs := ids(got)
		if len(gotIDs) != len(tc.want) {
			t.Fatalf("filter %q: expected %v, got %v", tc.filter, tc.want, gotIDs)
		}
		for i := range gotIDs {
			if gotIDs[i] != tc.want[i] {
				t.Fatalf("filter %q: expected %v, got %v", tc.filter, tc.want, gotIDs)
			}
		}
	}
}

func TestListForCustomerErrors(t *testing.T) {
	store := sampleStore()
	svc := newService(t, ServiceParams{Store: store})
	ctx := context.Background()

	if _, err := svc.ListForCustomer(ctx, "c1", "shipped"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.ListForCustomer(ctx, "", ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	store.listErr = errors.New("offline")
	if _, err := svc.ListForCustomer(ctx, "c1", ""); !pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable) {
		t.Fatalf("expected remote unavailable, got %v", err)
	}
}

func openCart(t *testing.T) *cart.Engine {
	t.Helper()
	engine, err := cart.Open(context.Background(), localstore.NewMemory(), "fj:cart:c1")
	if err != nil {
		t.Fatalf("open cart: %v", err)
	}
	return engine
}

func TestRepeatMergesIntoCart(t *testing.T) {
	svc := newService(t, ServiceParams{Store: sampleStore()})
	engine := openCart(t)
	ctx := context.Background()

	_, _ = engine.AddOrMerge(ctx, models.Product{ID: "A", Nombre: "Producto A", Precio: decimal.NewFromInt(90), Stock: 10}, 1)

	count, err := svc.Repeat(ctx, "c1", "o3", engine)
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6 items, got %d", count)
	}
	items := engine.Items()
	if items[0].Quantity != 3 || items[0].StockCeiling != 10 {
		t.Fatalf("existing line keeps its stock ceiling, got %+v", items[0])
	}
	if items[1].ProductID != "B" || items[1].Quantity != 3 || items[1].StockCeiling != DefaultRepeatCeiling {
		t.Fatalf("unexpected appended line %+v", items[1])
	}
}

func TestRepeatRules(t *testing.T) {
	svc := newService(t, ServiceParams{Store: sampleStore()})
	ctx := context.Background()

	if _, err := svc.Repeat(ctx, "c1", "o1", openCart(t)); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("delivered orders cannot be repeated, got %v", err)
	}
	if _, err := svc.Repeat(ctx, "c1", "o2", openCart(t)); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("another customer's order must not be found, got %v", err)
	}
	if _, err := svc.Repeat(ctx, "c1", "missing", openCart(t)); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepeatWithLiveStock(t *testing.T) {
	products := stubProducts{products: []models.Product{
		{ID: "A", Nombre: "Producto A", Precio: decimal.NewFromInt(100), Stock: 5},
		{ID: "B", Nombre: "Producto B", Precio: decimal.NewFromInt(50), Stock: 2},
	}}
	catalogSvc, err := catalog.NewService(products)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	svc := newService(t, ServiceParams{Store: sampleStore(), Catalog: catalogSvc, ValidateStock: true})
	engine := openCart(t)

	_, err = svc.Repeat(context.Background(), "c1", "o3", engine)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStockExceeded) {
		t.Fatalf("expected stock exceeded for B, got %v", err)
	}
	if !engine.IsEmpty() {
		t.Fatal("rejected repeat must leave the cart unchanged")
	}
}

func TestUpdateStatus(t *testing.T) {
	store := sampleStore()
	publisher := &stubPublisher{}
	svc := newService(t, ServiceParams{Store: store, Publisher: publisher})
	ctx := context.Background()

	if err := svc.UpdateStatus(ctx, "o3", "preparado"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if store.updated["o3"] != enums.OrderStatusReady {
		t.Fatalf("expected Ready, got %v", store.updated)
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != pubsub.EventOrderStatusChanged {
		t.Fatalf("expected status changed event, got %+v", publisher.events)
	}

	if err := svc.UpdateStatus(ctx, "o3", "lost"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	store.updateErr = docstore.ErrNotFound
	if err := svc.UpdateStatus(ctx, "zz", "Ready"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	store.updateErr = errors.New("offline")
	if err := svc.UpdateStatus(ctx, "o3", "Ready"); !pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable) {
		t.Fatalf("expected remote unavailable, got %v", err)
	}
}

func TestFromModelMarksRepeatable(t *testing.T) {
	dto := FromModel(order("abcdefgh12345678", "c1", enums.OrderStatusPending, 0, line("A", 100, 2)))
	if !dto.Repeatable || dto.DisplayNumber != "12345678" || len(dto.LineItems) != 1 {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if FromModel(order("o1", "c1", enums.OrderStatusReady, 0)).Repeatable {
		t.Fatal("ready orders are not repeatable")
	}
}
