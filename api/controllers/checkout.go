package controllers

import (
	"context"
	"net/http"

	cartcontroller "github.com/angelmondragon/forrajeria-backend/api/controllers/cart"
	"github.com/angelmondragon/forrajeria-backend/api/middleware"
	"github.com/angelmondragon/forrajeria-backend/api/responses"
	"github.com/angelmondragon/forrajeria-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/forrajeria-backend/internal/checkout"
	"github.com/angelmondragon/forrajeria-backend/internal/orders"
	"github.com/angelmondragon/forrajeria-backend/internal/session"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
)

// CheckoutRequest is the pickup form sent with an order submission.
type CheckoutRequest struct {
	PickupDate string `json:"pickup_date" validate:"required,datetime=2006-01-02"`
	PickupTime string `json:"pickup_time" validate:"required,datetime=15:04"`
	Comments   string `json:"comments"`
}

type sessionReader interface {
	Load(ctx context.Context, accessID string) (*session.Record, bool, error)
}

// Checkout turns the customer's cart into a pending order.
func Checkout(svc checkoutsvc.Service, sessions sessionReader, carts cartcontroller.Opener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || sessions == nil || carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body CheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, found, err := sessions.Load(r.Context(), middleware.AccessIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !found {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"))
			return
		}

		engine, err := carts.Open(r.Context(), record.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Submit(r.Context(), checkoutsvc.SubmitInput{
			Customer: record.Customer(),
			Cart:     engine,
			Pickup:   checkoutsvc.PickupSlot{Date: body.PickupDate, Time: body.PickupTime},
			Comments: body.Comments,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orders.FromModel(*order))
	}
}
