package docstore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
)

func TestProductFromDocCoercesLegacyValues(t *testing.T) {
	tests := []struct {
		name      string
		data      map[string]any
		wantStock int
		wantPrice string
		wantImage bool
	}{
		{name: "typed", data: map[string]any{"nombre": "Maíz", "precio": 500.5, "stock": int64(10), "imagen": "a.png"}, wantStock: 10, wantPrice: "500.5", wantImage: true},
		{name: "string stock", data: map[string]any{"nombre": "Avena", "precio": "300", "stock": "12 kg"}, wantStock: 12, wantPrice: "300"},
		{name: "float stock", data: map[string]any{"nombre": "Sal", "precio": int64(90), "stock": 7.9}, wantStock: 7, wantPrice: "90"},
		{name: "garbage stock", data: map[string]any{"nombre": "X", "stock": "n/a", "imagen": ""}, wantStock: 0, wantPrice: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := productFromDoc("id-1", tt.data)
			if p.Stock != tt.wantStock {
				t.Fatalf("expected stock %d, got %d", tt.wantStock, p.Stock)
			}
			if !p.Precio.Equal(decimal.RequireFromString(tt.wantPrice)) {
				t.Fatalf("expected price %s, got %s", tt.wantPrice, p.Precio)
			}
			if (p.Imagen != nil) != tt.wantImage {
				t.Fatalf("unexpected image %v", p.Imagen)
			}
		})
	}
}

func TestOrderDocRoundTrip(t *testing.T) {
	submitted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := models.Order{
		OrderNumber: "ECM-1",
		Customer:    models.OrderCustomer{ID: "c1", Nombre: "Ana", Apellido: "Gómez", Celular: "1122334455"},
		LineItems: []models.OrderLineItem{
			{ProductID: "p1", Nombre: "Maíz", Precio: decimal.NewFromInt(500), Cantidad: 2, Subtotal: decimal.NewFromInt(1000)},
		},
		PickupDate:  "2026-03-03",
		PickupTime:  "10:00",
		PickupAt:    "2026-03-03 10:00",
		Total:       decimal.NewFromInt(1000),
		TotalItems:  2,
		Status:      enums.OrderStatusPending,
		SubmittedAt: submitted,
	}

	doc := orderToDoc(order)
	if doc["estado"] != "Pendiente" {
		t.Fatalf("expected legacy status label, got %v", doc["estado"])
	}
	cliente := doc["cliente"].(map[string]any)
	if cliente["telefono"] != "1122334455" {
		t.Fatalf("expected phone stored as telefono, got %v", cliente["telefono"])
	}

	// Firestore hands nested arrays back as []any of map[string]any.
	items := doc["productos"].([]map[string]any)
	raw := make([]any, 0, len(items))
	for _, item := range items {
		raw = append(raw, item)
	}
	doc["productos"] = raw

	decoded := orderFromDoc("order-1", doc)
	if decoded.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %s", decoded.Status)
	}
	if decoded.Customer.Celular != "1122334455" || decoded.Customer.ID != "c1" {
		t.Fatalf("unexpected customer %+v", decoded.Customer)
	}
	if len(decoded.LineItems) != 1 || decoded.LineItems[0].Cantidad != 2 || decoded.LineItems[0].OrderID != "order-1" {
		t.Fatalf("unexpected lines %+v", decoded.LineItems)
	}
	if !decoded.Total.Equal(decimal.NewFromInt(1000)) || decoded.TotalItems != 2 {
		t.Fatalf("unexpected totals %s %d", decoded.Total, decoded.TotalItems)
	}
	if !decoded.SubmittedAt.Equal(submitted) {
		t.Fatalf("unexpected submitted at %v", decoded.SubmittedAt)
	}
}

func TestOrderFromDocDefaults(t *testing.T) {
	decoded := orderFromDoc("o", map[string]any{
		"estado":    "Entregado",
		"productos": []any{map[string]any{"id": "p", "precio": 10.0, "cantidad": int64(3)}},
	})
	if decoded.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected legacy Entregado to decode to Delivered, got %s", decoded.Status)
	}
	if !decoded.LineItems[0].Subtotal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected missing subtotal to be derived, got %s", decoded.LineItems[0].Subtotal)
	}

	unknown := orderFromDoc("o", map[string]any{"estado": "???"})
	if unknown.Status != enums.OrderStatusPending {
		t.Fatalf("unknown status should fall back to Pending, got %s", unknown.Status)
	}
}

func TestCustomerFromDocDefaultsActive(t *testing.T) {
	c := customerFromDoc("c", map[string]any{"nombre": "Ana", "celular": "1122334455"})
	if !c.Active {
		t.Fatal("expected missing activo to default to true")
	}
	roundTrip := customerFromDoc("c", customerToDoc(models.Customer{Nombre: "Ana", Active: false}))
	if roundTrip.Active {
		t.Fatal("expected explicit inactive flag to survive")
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Now()
	orders := []models.Order{{ID: "a", SubmittedAt: base}, {ID: "b", SubmittedAt: base.Add(time.Minute)}, {ID: "c"}}
	sortNewestFirst(orders)
	if orders[0].ID != "b" || orders[1].ID != "a" || orders[2].ID != "c" {
		t.Fatalf("unexpected order %v %v %v", orders[0].ID, orders[1].ID, orders[2].ID)
	}
}

func TestLeadingInt(t *testing.T) {
	cases := map[string]int{"42": 42, " 7 ": 7, "12.9": 12, "-3": -3, "abc": 0, "": 0, "+5u": 5}
	for in, want := range cases {
		if got := leadingInt(in); got != want {
			t.Fatalf("leadingInt(%q) = %d, want %d", in, got, want)
		}
	}
}
