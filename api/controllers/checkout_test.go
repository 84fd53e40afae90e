package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forrajeria-backend/api/middleware"
	"github.com/angelmondragon/forrajeria-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/forrajeria-backend/internal/checkout"
	"github.com/angelmondragon/forrajeria-backend/internal/localstore"
	internalorders "github.com/angelmondragon/forrajeria-backend/internal/orders"
	"github.com/angelmondragon/forrajeria-backend/internal/session"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
)

type stubCheckoutService struct {
	order *models.Order
	err   error
	last  checkoutsvc.SubmitInput
}

func (s *stubCheckoutService) Submit(_ context.Context, input checkoutsvc.SubmitInput) (*models.Order, error) {
	s.last = input
	return s.order, s.err
}

type stubSessions struct {
	record *session.Record
	err    error
}

func (s stubSessions) Load(_ context.Context, _ string) (*session.Record, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return s.record, s.record != nil, nil
}

type controllerKeyer struct{}

func (controllerKeyer) CartKey(customerID string) string { return "cart:" + customerID }

func checkoutRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	ctx := middleware.WithAccessID(req.Context(), "access-1")
	ctx = middleware.WithCustomerID(ctx, "cust-1")
	return req.WithContext(ctx)
}

func newCartProvider(t *testing.T) *cart.Provider {
	t.Helper()
	provider, err := cart.NewProvider(localstore.NewMemory(), controllerKeyer{})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return provider
}

func TestCheckoutCreatesOrder(t *testing.T) {
	svc := &stubCheckoutService{order: &models.Order{
		ID:          "doc-abcdefgh",
		OrderNumber: "ECM-1772618400000",
		Status:      enums.OrderStatusPending,
		PickupDate:  "2026-03-05",
		PickupTime:  "10:00",
		Total:       decimal.NewFromInt(2000),
		TotalItems:  2,
		SubmittedAt: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}}
	sessions := stubSessions{record: &session.Record{CustomerID: "cust-1", Nombre: "Ana", Apellido: "Paz", Celular: "3511234567"}}
	handler := Checkout(svc, sessions, newCartProvider(t), nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequest(`{"pickup_date":"2026-03-05","pickup_time":"10:00","comments":"porton verde"}`))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.last.Customer.Celular != "3511234567" || svc.last.Customer.ID != "cust-1" {
		t.Fatalf("unexpected customer snapshot %+v", svc.last.Customer)
	}
	if svc.last.Pickup.Date != "2026-03-05" || svc.last.Pickup.Time != "10:00" || svc.last.Comments != "porton verde" {
		t.Fatalf("unexpected submit input %+v", svc.last)
	}
	if svc.last.Cart == nil {
		t.Fatal("expected cart engine to be passed")
	}

	var envelope struct {
		Data internalorders.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.DisplayNumber != "ABCDEFGH" {
		t.Fatalf("unexpected display number %q", envelope.Data.DisplayNumber)
	}
}

func TestCheckoutRejectsMalformedPickup(t *testing.T) {
	svc := &stubCheckoutService{}
	sessions := stubSessions{record: &session.Record{CustomerID: "cust-1"}}
	handler := Checkout(svc, sessions, newCartProvider(t), nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequest(`{"pickup_date":"05/03/2026","pickup_time":"10:00"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutExpiredSession(t *testing.T) {
	handler := Checkout(&stubCheckoutService{}, stubSessions{}, newCartProvider(t), nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequest(`{"pickup_date":"2026-03-05","pickup_time":"10:00"}`))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutSessionStoreDown(t *testing.T) {
	sessions := stubSessions{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("redis down"), "load session")}
	handler := Checkout(&stubCheckoutService{}, sessions, newCartProvider(t), nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequest(`{"pickup_date":"2026-03-05","pickup_time":"10:00"}`))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestCheckoutSurfacesDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"empty cart", pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty"), http.StatusBadRequest},
		{"pickup slot", pkgerrors.New(pkgerrors.CodeInvalidPickupSlot, "store closed on sunday"), http.StatusBadRequest},
		{"stock", pkgerrors.New(pkgerrors.CodeStockInsufficient, "not enough stock for Alfalfa"), http.StatusConflict},
		{"remote", pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "order store unavailable"), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCheckoutService{err: tc.err}
			sessions := stubSessions{record: &session.Record{CustomerID: "cust-1"}}
			handler := Checkout(svc, sessions, newCartProvider(t), nil)

			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, checkoutRequest(`{"pickup_date":"2026-03-05","pickup_time":"10:00"}`))

			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.Code)
			}
		})
	}
}
