package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/forrajeria-backend/internal/docstore"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
)

type customerStore interface {
	FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, bool, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) (string, error)
}

// RegisterInput carries the fields collected by the registration form.
type RegisterInput struct {
	Nombre   string
	Apellido string
	Celular  string
	Email    string
}

// Service registers and looks up storefront customers.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Customer, error)
	Login(ctx context.Context, celular string) (*models.Customer, error)
}

type service struct {
	store customerStore
	now   func() time.Time
}

func NewService(store customerStore) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("customer store required")
	}
	return &service{store: store, now: time.Now}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Customer, error) {
	nombre := strings.TrimSpace(input.Nombre)
	apellido := strings.TrimSpace(input.Apellido)
	if nombre == "" || apellido == "" || strings.TrimSpace(input.Celular) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre, apellido and celular are required")
	}
	phone, err := NormalizePhone(input.Celular)
	if err != nil {
		return nil, err
	}

	_, exists, err := s.store.FindCustomerByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "lookup customer")
	}
	if exists {
		return nil, phoneTaken()
	}

	customer := &models.Customer{
		Nombre:       nombre,
		Apellido:     apellido,
		Celular:      phone,
		Email:        strings.TrimSpace(input.Email),
		RegisteredAt: s.now().UTC(),
		Active:       true,
	}
	id, err := s.store.CreateCustomer(ctx, customer)
	if err != nil {
		if errors.Is(err, docstore.ErrDuplicatePhone) {
			return nil, phoneTaken()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "create customer")
	}
	customer.ID = id
	return customer, nil
}

func (s *service) Login(ctx context.Context, celular string) (*models.Customer, error) {
	phone, err := NormalizePhone(celular)
	if err != nil {
		return nil, err
	}
	customer, ok, err := s.store.FindCustomerByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "lookup customer")
	}
	if !ok || customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no customer registered with this phone")
	}
	return customer, nil
}

func phoneTaken() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
}
