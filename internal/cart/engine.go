package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/angelmondragon/forrajeria-backend/internal/localstore"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
	"github.com/angelmondragon/forrajeria-backend/pkg/metrics"
)

const (
	opAdd            = "add"
	opChangeQuantity = "change_quantity"
	opRemove         = "remove"
	opClear          = "clear"
	opMerge          = "merge"
)

type mutationRecorder interface {
	IncCartMutation(op, outcome string)
}

// Engine owns one customer's cart. Every mutation is persisted before it
// returns; a rejected mutation leaves both memory and storage untouched.
type Engine struct {
	mu       sync.Mutex
	store    localstore.Store
	key      string
	items    []Item
	snapshot []byte
	logg     *logger.Logger
	metrics  mutationRecorder
}

type Option func(*Engine)

func WithLogger(logg *logger.Logger) Option {
	return func(e *Engine) {
		if logg != nil {
			e.logg = logg
		}
	}
}

func WithMetrics(m mutationRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// Open loads the cart persisted under key. Missing or malformed data yields an
// empty cart.
func Open(ctx context.Context, store localstore.Store, key string, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("local store required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("cart key required")
	}

	e := &Engine{
		store: store,
		key:   key,
		logg:  logger.New(logger.Options{ServiceName: "cart", Output: io.Discard}),
	}
	for _, opt := range opts {
		opt(e)
	}

	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if ok {
		e.snapshot = raw
		e.items = e.decode(ctx, raw)
	}
	return e, nil
}

// Key is the storage key of the cart.
func (e *Engine) Key() string {
	return e.key
}

// Items returns a copy of the cart lines.
func (e *Engine) Items() []Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneItems(e.items)
}

// Totals recomputes the summary from the current lines.
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ComputeTotals(e.items)
}

// IsEmpty reports whether the cart has no lines.
func (e *Engine) IsEmpty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items) == 0
}

// AddOrMerge adds product to the cart. The requested quantity is clamped to
// [1, product.Stock]; merging into an existing line must not exceed the live
// stock. Returns the new item count.
func (e *Engine) AddOrMerge(ctx context.Context, product models.Product, requested int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if strings.TrimSpace(product.ID) == "" {
		return 0, e.reject(opAdd, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
	}
	if product.Stock <= 0 {
		return 0, e.reject(opAdd, stockExceeded(product.ID, product.Nombre, 0, 0))
	}
	qty := clamp(requested, 1, product.Stock)

	next := cloneItems(e.items)
	if idx := indexOf(next, product.ID); idx >= 0 {
		merged := next[idx].Quantity + qty
		if merged > product.Stock {
			return 0, e.reject(opAdd, stockExceeded(product.ID, product.Nombre, product.Stock, next[idx].Quantity))
		}
		next[idx].Quantity = merged
		next[idx].StockCeiling = product.Stock
	} else {
		next = append(next, Item{
			ProductID:    product.ID,
			Name:         product.Nombre,
			UnitPrice:    product.Precio,
			Quantity:     qty,
			StockCeiling: product.Stock,
			ImageURL:     product.Imagen,
		})
	}

	if err := e.commit(ctx, next); err != nil {
		return 0, e.fail(opAdd, err)
	}
	e.record(opAdd, metrics.OutcomeSuccess)
	return ComputeTotals(e.items).ItemCount, nil
}

// ChangeQuantity adds delta to the line at index. A result of zero or less
// removes the line; a result above the line's stock ceiling is rejected.
func (e *Engine) ChangeQuantity(ctx context.Context, index, delta int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkIndex(index); err != nil {
		return 0, e.reject(opChangeQuantity, err)
	}

	next := cloneItems(e.items)
	line := next[index]
	updated := line.Quantity + delta
	switch {
	case updated <= 0:
		next = append(next[:index], next[index+1:]...)
	case updated > line.StockCeiling:
		err := pkgerrors.New(pkgerrors.CodeStockExceeded,
			fmt.Sprintf("maximum stock: %d units", line.StockCeiling)).
			WithDetails(map[string]any{"product_id": line.ProductID, "max": line.StockCeiling})
		return 0, e.reject(opChangeQuantity, err)
	default:
		next[index].Quantity = updated
	}

	if err := e.commit(ctx, next); err != nil {
		return 0, e.fail(opChangeQuantity, err)
	}
	e.record(opChangeQuantity, metrics.OutcomeSuccess)
	return ComputeTotals(e.items).ItemCount, nil
}

// Remove deletes the line at index. Asking the shopper to confirm is up to the caller.
func (e *Engine) Remove(ctx context.Context, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkIndex(index); err != nil {
		return e.reject(opRemove, err)
	}
	next := cloneItems(e.items)
	next = append(next[:index], next[index+1:]...)
	if err := e.commit(ctx, next); err != nil {
		return e.fail(opRemove, err)
	}
	e.record(opRemove, metrics.OutcomeSuccess)
	return nil
}

// Clear empties the cart and deletes its persisted entry.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.commit(ctx, nil); err != nil {
		return e.fail(opClear, err)
	}
	e.record(opClear, metrics.OutcomeSuccess)
	return nil
}

// MergeLines folds lines into the cart, summing quantities for products that
// are already present. The whole merge is rejected if any line exceeds its
// ceiling. Returns the new item count.
func (e *Engine) MergeLines(ctx context.Context, lines []MergeLine, ceilingFor CeilingFunc) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ceilingFor == nil {
		return 0, e.reject(opMerge, pkgerrors.New(pkgerrors.CodeValidation, "ceiling function required"))
	}

	next := cloneItems(e.items)
	for _, line := range lines {
		if line.Quantity <= 0 || strings.TrimSpace(line.ProductID) == "" {
			continue
		}
		ceiling, ok := ceilingFor(line.ProductID)
		if !ok {
			err := pkgerrors.New(pkgerrors.CodeStockExceeded,
				fmt.Sprintf("%s is no longer available", line.Name)).
				WithDetails(map[string]any{"product_id": line.ProductID, "max": 0})
			return 0, e.reject(opMerge, err)
		}

		idx := indexOf(next, line.ProductID)
		current := 0
		if idx >= 0 {
			current = next[idx].Quantity
		}
		merged := current + line.Quantity
		if merged > ceiling.Max {
			return 0, e.reject(opMerge, stockExceeded(line.ProductID, line.Name, ceiling.Max, current))
		}

		if idx >= 0 {
			// A placeholder keeps the line's known ceiling; Validate catches the overflow at submit.
			next[idx].Quantity = merged
			if ceiling.Live {
				next[idx].StockCeiling = ceiling.Max
			}
			continue
		}
		next = append(next, Item{
			ProductID:    line.ProductID,
			Name:         line.Name,
			UnitPrice:    line.UnitPrice,
			Quantity:     line.Quantity,
			StockCeiling: ceiling.Max,
			ImageURL:     line.ImageURL,
		})
	}

	if err := e.commit(ctx, next); err != nil {
		return 0, e.fail(opMerge, err)
	}
	e.record(opMerge, metrics.OutcomeSuccess)
	return ComputeTotals(e.items).ItemCount, nil
}

// Validate re-checks every line against its stock ceiling.
func (e *Engine) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, item := range e.items {
		if item.Quantity > item.StockCeiling {
			return pkgerrors.New(pkgerrors.CodeStockInsufficient,
				fmt.Sprintf("insufficient stock for %s", item.Name)).
				WithDetails(map[string]any{
					"product_id": item.ProductID,
					"name":       item.Name,
					"quantity":   item.Quantity,
					"max":        item.StockCeiling,
				})
		}
	}
	return nil
}

// Sync re-reads the persisted cart and adopts it when its lines differ from
// the in-memory view. Reports whether the view changed.
func (e *Engine) Sync(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	raw, ok, err := e.store.Get(ctx, e.key)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync cart")
	}
	if !ok {
		raw = nil
	}
	if bytes.Equal(raw, e.snapshot) {
		return false, nil
	}
	e.snapshot = raw
	items := e.decode(ctx, raw)
	if sameItems(items, e.items) {
		return false, nil
	}
	e.items = items
	return true, nil
}

func (e *Engine) commit(ctx context.Context, next []Item) error {
	if len(next) == 0 {
		if err := e.store.Delete(ctx, e.key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
		}
		e.items = nil
		e.snapshot = nil
		return nil
	}

	payload, err := json.Marshal(next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := e.store.Set(ctx, e.key, payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	e.items = next
	e.snapshot = payload
	return nil
}

func (e *Engine) decode(ctx context.Context, raw []byte) []Item {
	if len(raw) == 0 {
		return nil
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "cart_key", e.key), "discarding malformed cart data")
		return nil
	}
	kept := items[:0]
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" || item.Quantity <= 0 {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func (e *Engine) checkIndex(index int) error {
	if index < 0 || index >= len(e.items) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cart line %d does not exist", index))
	}
	return nil
}

func (e *Engine) reject(op string, err error) error {
	e.record(op, metrics.OutcomeRejected)
	return err
}

func (e *Engine) fail(op string, err error) error {
	e.record(op, metrics.OutcomeFailed)
	return err
}

func (e *Engine) record(op, outcome string) {
	if e.metrics != nil {
		e.metrics.IncCartMutation(op, outcome)
	}
}

func stockExceeded(productID, name string, max, inCart int) error {
	return pkgerrors.New(pkgerrors.CodeStockExceeded,
		fmt.Sprintf("insufficient stock for %s, maximum %d", name, max)).
		WithDetails(map[string]any{"product_id": productID, "max": max, "in_cart": inCart})
}

func indexOf(items []Item, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
