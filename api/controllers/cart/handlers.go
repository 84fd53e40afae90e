package cart

import (
	"context"
	"net/http"

	cartdto "github.com/angelmondragon/forrajeria-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/forrajeria-backend/api/middleware"
	"github.com/angelmondragon/forrajeria-backend/api/responses"
	"github.com/angelmondragon/forrajeria-backend/api/validators"
	cartsvc "github.com/angelmondragon/forrajeria-backend/internal/cart"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
)

// Opener opens the cart engine bound to a customer.
type Opener interface {
	Open(ctx context.Context, customerID string) (*cartsvc.Engine, error)
}

// ProductLookup returns a product that is currently in stock.
type ProductLookup interface {
	Get(ctx context.Context, productID string) (*models.Product, error)
}

// CartFetch returns the customer's cart and its totals.
func CartFetch(carts Opener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, newCartView(engine.Items()))
	}
}

// CartAddItem adds a product at its live stock, merging into an existing line.
func CartAddItem(carts Opener, products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}

		product, err := products.Get(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := engine.AddOrMerge(r.Context(), *product, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResult(count, engine))
	}
}

// CartChangeQuantity applies a signed delta to the line at {index}.
func CartChangeQuantity(carts Opener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartdto.ChangeQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}

		count, err := engine.ChangeQuantity(r.Context(), index, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResult(count, engine))
	}
}

// CartRemoveItem deletes the line at {index}. Requires ?confirm=true.
func CartRemoveItem(carts Opener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := validators.RequireConfirm(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}

		if err := engine.Remove(r.Context(), index); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResult(engine.Totals().ItemCount, engine))
	}
}

// CartClear empties the cart. Requires ?confirm=true.
func CartClear(carts Opener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := validators.RequireConfirm(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}

		if err := engine.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResult(0, engine))
	}
}

func openCart(w http.ResponseWriter, r *http.Request, carts Opener, logg *logger.Logger) (*cartsvc.Engine, bool) {
	if carts == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return nil, false
	}

	customerID := middleware.CustomerIDFromContext(r.Context())
	if customerID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
		return nil, false
	}

	engine, err := carts.Open(r.Context(), customerID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return engine, true
}
