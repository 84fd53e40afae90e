package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/forrajeria-backend/internal/customers"
	"github.com/angelmondragon/forrajeria-backend/internal/session"
	pkgAuth "github.com/angelmondragon/forrajeria-backend/pkg/auth"
	"github.com/angelmondragon/forrajeria-backend/pkg/config"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessID, customerID string) error
}

type service struct {
	customers customers.Service
	sessions  sessionStore
	carts     cartDropper
	jwtCfg    config.JWTConfig
	now       func() time.Time
}

type sessionStore interface {
	Save(ctx context.Context, accessID string, record session.Record) error
	Clear(ctx context.Context, accessID string) error
	CartKey(customerID string) string
}

type cartDropper interface {
	Delete(ctx context.Context, key string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Customers customers.Service
	Sessions  sessionStore
	Carts     cartDropper
	JWTConfig config.JWTConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Customers == nil {
		return nil, fmt.Errorf("customers service is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store is required")
	}
	return &service{
		customers: params.Customers,
		sessions:  params.Sessions,
		carts:     params.Carts,
		jwtCfg:    params.JWTConfig,
		now:       time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	customer, err := s.customers.Register(ctx, customers.RegisterInput{
		Nombre:   req.Nombre,
		Apellido: req.Apellido,
		Celular:  req.Celular,
		Email:    req.Email,
	})
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, customer)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	customer, err := s.customers.Login(ctx, req.Celular)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, customer)
}

// Logout drops the session record and the customer's cart.
func (s *service) Logout(ctx context.Context, accessID, customerID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	if err := s.sessions.Clear(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session")
	}
	if strings.TrimSpace(customerID) != "" {
		if err := s.carts.Delete(ctx, s.sessions.CartKey(customerID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
	}
	return nil
}

func (s *service) startSession(ctx context.Context, customer *models.Customer) (*LoginResponse, error) {
	now := s.now().UTC()
	accessID := session.NewAccessID()

	if err := s.sessions.Save(ctx, accessID, session.FromCustomer(*customer, now)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		CustomerID: customer.ID,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		Customer:    customerFromModel(customer),
	}, nil
}
