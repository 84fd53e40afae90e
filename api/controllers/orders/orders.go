package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	cartcontroller "github.com/angelmondragon/forrajeria-backend/api/controllers/cart"
	"github.com/angelmondragon/forrajeria-backend/api/middleware"
	"github.com/angelmondragon/forrajeria-backend/api/responses"
	"github.com/angelmondragon/forrajeria-backend/api/validators"
	internalorders "github.com/angelmondragon/forrajeria-backend/internal/orders"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
)

// StatusUpdateRequest carries the admin's new status.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// RepeatResult reports the cart size after repeating an order.
type RepeatResult struct {
	OrderID   string `json:"order_id"`
	ItemCount int    `json:"item_count"`
}

// List returns the customer's order history, optionally filtered by ?status=.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		list, err := svc.ListForCustomer(r.Context(), middleware.CustomerIDFromContext(r.Context()), r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.FromModels(list))
	}
}

// Repeat merges the line items of a pending order back into the cart.
func Repeat(svc internalorders.Service, carts cartcontroller.Opener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID := middleware.CustomerIDFromContext(r.Context())
		if customerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
			return
		}
		orderID := chi.URLParam(r, "orderId")

		engine, err := carts.Open(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.Repeat(r.Context(), customerID, orderID, engine)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, RepeatResult{OrderID: orderID, ItemCount: count})
	}
}

// AdminUpdateStatus moves an order to the status in the request body.
func AdminUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var body StatusUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID := chi.URLParam(r, "orderId")
		if err := svc.UpdateStatus(r.Context(), orderID, body.Status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, _ := enums.ParseOrderStatus(body.Status)
		responses.WriteSuccess(w, map[string]string{"order_id": orderID, "status": status.String()})
	}
}
