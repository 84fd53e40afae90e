package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forrajeria-backend/internal/localstore"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
)

const testKey = "fj:cart:cust-1"

func product(id string, price int64, stock int) models.Product {
	return models.Product{ID: id, Nombre: "Producto " + id, Precio: decimal.NewFromInt(price), Stock: stock}
}

func openEngine(t *testing.T, store localstore.Store) *Engine {
	t.Helper()
	engine, err := Open(context.Background(), store, testKey)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return engine
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if !pkgerrors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestAddOrMergeOnEmptyCart(t *testing.T) {
	engine := openEngine(t, localstore.NewMemory())

	count, err := engine.AddOrMerge(context.Background(), product("A", 500, 10), 3)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected item count 3, got %d", count)
	}
	items := engine.Items()
	if len(items) != 1 || items[0].Quantity != 3 || items[0].StockCeiling != 10 {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestAddOrMergeClampsRequestedQuantity(t *testing.T) {
	engine := openEngine(t, localstore.NewMemory())
	ctx := context.Background()

	if _, err := engine.AddOrMerge(ctx, product("A", 100, 4), 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := engine.Items()[0].Quantity; got != 1 {
		t.Fatalf("expected quantity clamped up to 1, got %d", got)
	}

	if _, err := engine.AddOrMerge(ctx, product("B", 100, 4), 50); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := engine.Items()[1].Quantity; got != 4 {
		t.Fatalf("expected quantity clamped down to stock 4, got %d", got)
	}
}

func TestAddOrMergeRejectsOutOfStockProduct(t *testing.T) {
	engine := openEngine(t, localstore.NewMemory())
	_, err := engine.AddOrMerge(context.Background(), product("A", 100, 0), 1)
	requireCode(t, err, pkgerrors.CodeStockExceeded)
	if !engine.IsEmpty() {
		t.Fatal("cart should stay empty")
	}
}

func TestAddOrMergeMergesQuantities(t *testing.T) {
	engine := openEngine(t, localstore.NewMemory())
	ctx := context.Background()
	p := product("A", 500, 10)

	if _, err := engine.AddOrMerge(ctx, p, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := engine.AddOrMerge(ctx, p, 4); err != nil {
		t.Fatalf("merge: %v", err)
	}
	items := engine.Items()
	if len(items) != 1 || items[0].Quantity != 7 {
		t.Fatalf("expected one line with quantity 7, got %+v", items)
	}
}

func TestAddOrMergeRejectsMergeBeyondStock(t *testing.T) {
	store := localstore.NewMemory()
	engine := openEngine(t, store)
	ctx := context.Background()
	p := product("A", 500, 10)

	if _, err := engine.AddOrMerge(ctx, p, 8); err != nil {
		t.Fatalf("add: %v", err)
	}
	before, _, _ := store.Get(ctx, testKey)

	_, err := engine.AddOrMerge(ctx, p, 5)
	requireCode(t, err, pkgerrors.CodeStockExceeded)
	details, _ := pkgerrors.As(err).Details().(map[string]any)
	if details["max"] != 10 {
		t.Fatalf("expected max 10 in details, got %v", details)
	}

	if got := engine.Items()[0].Quantity; got != 8 {
		t.Fatalf("expected quantity to stay 8, got %d", got)
	}
	after, _, _ := store.Get(ctx, testKey)
	if string(before) != string(after) {
		t.Fatal("rejected merge must not touch storage")
	}
}

func TestAddOrMergeKeepsPriceSnapshot(t *testing.T) {
	engine := openEngine(t, localstore.NewMemory())
	ctx := context.Background()

	if _, err := engine.AddOrMerge(ctx, product("A", 500, 10), 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	repriced := product("A", 900, 12)
	if _, err := engine.AddOrMerge(ctx, repriced, 1); err != nil {
		t.Fatalf("merge: %v", err)
	}
	item := engine.Items()[0]
	if !item.UnitPrice.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unit price must not be refreshed, got %s", item.UnitPrice)
	}
	if item.StockCeiling != 12 {
		t.Fatalf("stock ceiling should follow live stock, got %d", item.StockCeiling)
	}
}

func TestChangeQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("to zero removes the line", func(t *testing.T) {
		engine := openEngine(t, localstore.NewMemory())
		_, _ = engine.AddOrMerge(ctx, product("A", 500, 10), 1)
		count, err := engine.ChangeQuantity(ctx, 0, -1)
		if err != nil {
			t.Fatalf("change: %v", err)
		}
		if count != 0 || !engine.IsEmpty() {
			t.Fatalf("expected empty cart, got %+v", engine.Items())
		}
	})

	t.Run("above ceiling is rejected", func(t *testing.T) {
		engine := openEngine(t, localstore.NewMemory())
		_, _ = engine.AddOrMerge(ctx, product("A", 500, 5), 5)
		_, err := engine.ChangeQuantity(ctx, 0, 1)
		requireCode(t, err, pkgerrors.CodeStockExceeded)
		if pkgerrors.As(err).Message() != "maximum stock: 5 units" {
			t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
		}
		if engine.Items()[0].Quantity != 5 {
			t.Fatal("quantity must stay unchanged")
		}
	})

	t.Run("within range updates", func(t *testing.T) {
		engine := openEngine(t, localstore.NewMemory())
		_, _ = engine.AddOrMerge(ctx, product("A", 500, 5), 2)
		count, err := engine.ChangeQuantity(ctx, 0, 2)
		if err != nil || count != 4 {
			t.Fatalf("expected count 4, got %d err=%v", count, err)
		}
	})

	t.Run("bad index", func(t *testing.T) {
		engine := openEngine(t, localstore.NewMemory())
		_, err := engine.ChangeQuantity(ctx, 3, 1)
		requireCode(t, err, pkgerrors.CodeValidation)
	})
}

func TestRemoveAndClear(t *testing.T) {
	store := localstore.NewMemory()
	engine := openEngine(t, store)
	ctx := context.Background()

	_, _ = engine.AddOrMerge(ctx, product("A", 100, 5), 1)
	_, _ = engine.AddOrMerge(ctx, product("B", 200, 5), 2)

	if err := engine.Remove(ctx, 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items := engine.Items()
	if len(items) != 1 || items[0].ProductID != "B" {
		t.Fatalf("unexpected items after remove %+v", items)
	}
	requireCode(t, engine.Remove(ctx, 5), pkgerrors.CodeValidation)

	if err := engine.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Get(ctx, testKey); ok {
		t.Fatal("clear should delete the persisted cart")
	}
}

func TestTotals(t *testing.T) {
	engine := openEngine(t, localstore.NewMemory())
	ctx := context.Background()

	empty := engine.Totals()
	if !empty.Subtotal.IsZero() || !empty.Total.IsZero() || empty.ItemCount != 0 {
		t.Fatalf("expected zero totals for empty cart, got %+v", empty)
	}

	_, _ = engine.AddOrMerge(ctx, product("A", 500, 10), 2)
	_, _ = engine.AddOrMerge(ctx, product("B", 1000, 10), 1)
	price, _ := decimal.NewFromString("12.50")
	_, _ = engine.AddOrMerge(ctx, models.Product{ID: "C", Nombre: "Sal", Precio: price, Stock: 9}, 4)

	first := engine.Totals()
	if !first.Subtotal.Equal(decimal.NewFromInt(2050)) {
		t.Fatalf("expected subtotal 2050, got %s", first.Subtotal)
	}
	if !first.Total.Equal(first.Subtotal) {
		t.Fatal("total must equal subtotal")
	}
	if first.ItemCount != 7 {
		t.Fatalf("expected 7 items, got %d", first.ItemCount)
	}

	second := engine.Totals()
	if !second.Subtotal.Equal(first.Subtotal) || second.ItemCount != first.ItemCount {
		t.Fatal("totals must be idempotent")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	store := localstore.NewMemory()
	ctx := context.Background()
	img := "https://cdn.example/a.png"

	engine := openEngine(t, store)
	_, _ = engine.AddOrMerge(ctx, models.Product{ID: "A", Nombre: "Maíz", Precio: decimal.RequireFromString("499.99"), Stock: 10, Imagen: &img}, 2)
	_, _ = engine.AddOrMerge(ctx, product("B", 100, 3), 1)

	reopened := openEngine(t, store)
	got, want := reopened.Items(), engine.Items()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ProductID != want[i].ProductID || got[i].Quantity != want[i].Quantity ||
			got[i].StockCeiling != want[i].StockCeiling || !got[i].UnitPrice.Equal(want[i].UnitPrice) {
			t.Fatalf("line %d differs: %+v vs %+v", i, got[i], want[i])
		}
	}
	if got[0].ImageURL == nil || *got[0].ImageURL != img {
		t.Fatal("image url lost in round trip")
	}
	if got[1].ImageURL != nil {
		t.Fatal("missing image must stay nil")
	}
}

func TestOpenDiscardsMalformedData(t *testing.T) {
	store := localstore.NewMemory()
	ctx := context.Background()

	_ = store.Set(ctx, testKey, []byte("{definitely not a cart"))
	engine := openEngine(t, store)
	if !engine.IsEmpty() {
		t.Fatal("malformed data should yield an empty cart")
	}

	_ = store.Set(ctx, testKey, []byte(`[{"product_id":"","quantity":1},{"product_id":"A","quantity":0},{"product_id":"B","quantity":2,"stock_ceiling":3,"unit_price":"10"}]`))
	engine = openEngine(t, store)
	items := engine.Items()
	if len(items) != 1 || items[0].ProductID != "B" {
		t.Fatalf("expected only the valid line to survive, got %+v", items)
	}
}

type failingStore struct {
	*localstore.Memory
	failSet bool
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("storage full")
	}
	return f.Memory.Set(ctx, key, value)
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	store := &failingStore{Memory: localstore.NewMemory()}
	engine := openEngine(t, store)
	ctx := context.Background()

	_, _ = engine.AddOrMerge(ctx, product("A", 100, 5), 1)
	store.failSet = true

	_, err := engine.AddOrMerge(ctx, product("A", 100, 5), 1)
	requireCode(t, err, pkgerrors.CodeDependency)
	if engine.Items()[0].Quantity != 1 {
		t.Fatal("failed persist must not change the in-memory cart")
	}
}

func TestValidate(t *testing.T) {
	store := localstore.NewMemory()
	ctx := context.Background()
	_ = store.Set(ctx, testKey, []byte(`[{"product_id":"A","name":"Maíz","quantity":6,"stock_ceiling":5,"unit_price":"10"}]`))

	engine := openEngine(t, store)
	err := engine.Validate()
	requireCode(t, err, pkgerrors.CodeStockInsufficient)
	details, _ := pkgerrors.As(err).Details().(map[string]any)
	if details["name"] != "Maíz" {
		t.Fatalf("expected product named in details, got %v", details)
	}
}

func TestMergeLines(t *testing.T) {
	ctx := context.Background()
	lines := []MergeLine{
		{ProductID: "A", Name: "Maíz", UnitPrice: decimal.NewFromInt(500), Quantity: 2},
		{ProductID: "B", Name: "Alfalfa", UnitPrice: decimal.NewFromInt(800), Quantity: 1},
	}

	t.Run("placeholder ceiling merges everything", func(t *testing.T) {
		engine := openEngine(t, localstore.NewMemory())
		_, _ = engine.AddOrMerge(ctx, product("A", 450, 3), 3)

		count, err := engine.MergeLines(ctx, lines, FixedCeiling(999))
		if err != nil {
			t.Fatalf("merge: %v", err)
		}
		if count != 6 {
			t.Fatalf("expected 6 items, got %d", count)
		}
		items := engine.Items()
		if items[0].Quantity != 5 || items[0].StockCeiling != 3 {
			t.Fatalf("existing line keeps its stock ceiling, got %+v", items[0])
		}
		if !items[0].UnitPrice.Equal(decimal.NewFromInt(450)) {
			t.Fatal("existing line keeps its price snapshot")
		}
		if items[1].ProductID != "B" || items[1].StockCeiling != 999 {
			t.Fatalf("unexpected appended line %+v", items[1])
		}
	})

	t.Run("live ceiling rejects the whole merge", func(t *testing.T) {
		engine := openEngine(t, localstore.NewMemory())
		_, err := engine.MergeLines(ctx, lines, LiveCeiling(map[string]int{"A": 10}))
		requireCode(t, err, pkgerrors.CodeStockExceeded)
		if !engine.IsEmpty() {
			t.Fatal("rejected merge must leave the cart unchanged")
		}
	})

	t.Run("placeholder over known stock fails validation", func(t *testing.T) {
		engine := openEngine(t, localstore.NewMemory())
		_, _ = engine.AddOrMerge(ctx, product("A", 450, 3), 3)

		if _, err := engine.MergeLines(ctx, lines[:1], FixedCeiling(999)); err != nil {
			t.Fatalf("merge: %v", err)
		}
		requireCode(t, engine.Validate(), pkgerrors.CodeStockInsufficient)
	})

	t.Run("live ceiling refreshes an existing line", func(t *testing.T) {
		engine := openEngine(t, localstore.NewMemory())
		_, _ = engine.AddOrMerge(ctx, product("A", 450, 3), 3)

		if _, err := engine.MergeLines(ctx, lines[:1], LiveCeiling(map[string]int{"A": 8})); err != nil {
			t.Fatalf("merge: %v", err)
		}
		if got := engine.Items()[0]; got.Quantity != 5 || got.StockCeiling != 8 {
			t.Fatalf("unexpected merged line %+v", got)
		}
		if err := engine.Validate(); err != nil {
			t.Fatalf("validate: %v", err)
		}
	})
}

func TestSyncAdoptsExternalWrites(t *testing.T) {
	store := localstore.NewMemory()
	ctx := context.Background()

	first := openEngine(t, store)
	second := openEngine(t, store)

	_, _ = first.AddOrMerge(ctx, product("A", 100, 5), 2)

	changed, err := second.Sync(ctx)
	if err != nil || !changed {
		t.Fatalf("expected change, got %v %v", changed, err)
	}
	if second.Totals().ItemCount != 2 {
		t.Fatal("second engine should see the new line")
	}

	changed, _ = second.Sync(ctx)
	if changed {
		t.Fatal("no further change expected")
	}

	_ = first.Clear(ctx)
	changed, _ = second.Sync(ctx)
	if !changed || !second.IsEmpty() {
		t.Fatal("clearing from another engine should empty the view")
	}
}

func TestSyncIgnoresReformattedCart(t *testing.T) {
	store := localstore.NewMemory()
	ctx := context.Background()
	_ = store.Set(ctx, testKey, []byte(`[{"product_id":"A","name":"Maíz","unit_price":"10","quantity":2,"stock_ceiling":5,"image_url":null}]`))
	engine := openEngine(t, store)

	_ = store.Set(ctx, testKey, []byte(`[ {"quantity":2, "stock_ceiling":5, "unit_price":"10.00", "name":"Maíz", "product_id":"A"} ]`))
	changed, err := engine.Sync(ctx)
	if err != nil || changed {
		t.Fatalf("same lines in another layout must not count as a change, got %v %v", changed, err)
	}

	_ = store.Set(ctx, testKey, []byte(`[{"product_id":"A","name":"Maíz","unit_price":"10","quantity":3,"stock_ceiling":5}]`))
	changed, _ = engine.Sync(ctx)
	if !changed || engine.Totals().ItemCount != 3 {
		t.Fatal("a quantity change must be adopted")
	}
}

func TestWatchPushesExternalChanges(t *testing.T) {
	store := localstore.NewMemory()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	watcher := openEngine(t, store)
	writer := openEngine(t, store)

	var mu sync.Mutex
	var seen [][]Item
	got := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx, time.Hour, func(items []Item) {
			mu.Lock()
			seen = append(seen, items)
			mu.Unlock()
			select {
			case got <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to subscribe before writing.
	time.Sleep(50 * time.Millisecond)
	if _, err := writer.AddOrMerge(context.Background(), product("A", 100, 5), 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	select {
	case <-got:
	case <-ctx.Done():
		t.Fatal("watcher did not observe the change")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen[0]) != 1 || seen[0][0].Quantity != 3 {
		t.Fatalf("unexpected snapshot %+v", seen[0])
	}
}

type pollOnlyStore struct {
	inner *localstore.Memory
}

func (p pollOnlyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.inner.Get(ctx, key)
}
func (p pollOnlyStore) Set(ctx context.Context, key string, value []byte) error {
	return p.inner.Set(ctx, key, value)
}
func (p pollOnlyStore) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, key)
}

func TestWatchFallsBackToPolling(t *testing.T) {
	store := pollOnlyStore{inner: localstore.NewMemory()}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	watcher := openEngine(t, store)
	writer := openEngine(t, store)

	got := make(chan []Item, 1)
	go func() {
		_ = watcher.Watch(ctx, 10*time.Millisecond, func(items []Item) {
			select {
			case got <- items:
			default:
			}
		})
	}()

	_, _ = writer.AddOrMerge(context.Background(), product("A", 100, 5), 1)

	select {
	case items := <-got:
		if len(items) != 1 {
			t.Fatalf("unexpected items %+v", items)
		}
	case <-ctx.Done():
		t.Fatal("polling did not pick up the change")
	}
}

type prefixKeyer struct{}

func (prefixKeyer) CartKey(customerID string) string { return "fj:cart:" + customerID }

func TestProviderOpensCustomerCart(t *testing.T) {
	store := localstore.NewMemory()
	provider, err := NewProvider(store, prefixKeyer{})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	ctx := context.Background()

	engine, err := provider.Open(ctx, "cust-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if engine.Key() != testKey {
		t.Fatalf("unexpected key %q", engine.Key())
	}
	if _, err := provider.Open(ctx, " "); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for blank customer, got %v", err)
	}
}
