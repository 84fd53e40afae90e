package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/forrajeria-backend/api/middleware"
	"github.com/angelmondragon/forrajeria-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
)

type stubAuthService struct {
	resp         *auth.LoginResponse
	err          error
	lastRegister auth.RegisterRequest
	lastLogin    auth.LoginRequest
	logoutAccess string
	logoutCust   string
}

func (s *stubAuthService) Register(_ context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	s.lastRegister = req
	return s.resp, s.err
}

func (s *stubAuthService) Login(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.lastLogin = req
	return s.resp, s.err
}

func (s *stubAuthService) Logout(_ context.Context, accessID, customerID string) error {
	s.logoutAccess = accessID
	s.logoutCust = customerID
	return s.err
}

func loginResponse() *auth.LoginResponse {
	return &auth.LoginResponse{
		AccessToken: "access-token",
		ExpiresAt:   time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Customer:    &auth.CustomerDTO{ID: "cust-1", Nombre: "Ana", Apellido: "Paz", Celular: "3511234567"},
	}
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubAuthService{resp: loginResponse()}
	handler := AuthRegister(svc, nil)

	body := `{"nombre":"  Ana ","apellido":"Paz","celular":"351 123 4567"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get(accessTokenHeader); got != "access-token" {
		t.Fatalf("expected token header, got %q", got)
	}
	if svc.lastRegister.Nombre != "Ana" {
		t.Fatalf("expected sanitized name, got %q", svc.lastRegister.Nombre)
	}

	var envelope struct {
		Data auth.LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Customer == nil || envelope.Data.Customer.ID != "cust-1" {
		t.Fatalf("unexpected customer %+v", envelope.Data.Customer)
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	handler := AuthRegister(&stubAuthService{resp: loginResponse()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"nombre":"Ana"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthRegisterDuplicatePhone(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")}
	handler := AuthRegister(svc, nil)

	body := `{"nombre":"Ana","apellido":"Paz","celular":"3511234567"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubAuthService{resp: loginResponse()}
	handler := AuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"celular":"3511234567"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastLogin.Celular != "3511234567" {
		t.Fatalf("unexpected login phone %q", svc.lastLogin.Celular)
	}
	if got := resp.Header().Get(accessTokenHeader); got != "access-token" {
		t.Fatalf("expected token header, got %q", got)
	}
}

func TestAuthLoginUnknownPhone(t *testing.T) {
	handler := AuthLogin(&stubAuthService{err: pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"celular":"3519999999"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAuthLogout(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	ctx := middleware.WithAccessID(req.Context(), "access-1")
	ctx = middleware.WithCustomerID(ctx, "cust-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req.WithContext(ctx))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.logoutAccess != "access-1" || svc.logoutCust != "cust-1" {
		t.Fatalf("unexpected logout args %q %q", svc.logoutAccess, svc.logoutCust)
	}
}

func TestAuthLogoutWithoutSession(t *testing.T) {
	handler := AuthLogout(&stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
