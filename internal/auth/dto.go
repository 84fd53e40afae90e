package auth

import (
	"time"

	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
)

// RegisterRequest captures the registration form.
type RegisterRequest struct {
	Nombre   string `json:"nombre" validate:"required"`
	Apellido string `json:"apellido" validate:"required"`
	Celular  string `json:"celular" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// LoginRequest captures the phone sent to the login endpoint.
type LoginRequest struct {
	Celular string `json:"celular" validate:"required"`
}

// CustomerDTO is the public view of a customer.
type CustomerDTO struct {
	ID           string    `json:"id"`
	Nombre       string    `json:"nombre"`
	Apellido     string    `json:"apellido"`
	Celular      string    `json:"celular"`
	Email        string    `json:"email,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// LoginResponse contains the access token and the customer it belongs to.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	Customer    *CustomerDTO `json:"customer"`
}

func customerFromModel(c *models.Customer) *CustomerDTO {
	if c == nil {
		return nil
	}
	return &CustomerDTO{
		ID:           c.ID,
		Nombre:       c.Nombre,
		Apellido:     c.Apellido,
		Celular:      c.Celular,
		Email:        c.Email,
		RegisteredAt: c.RegisteredAt,
	}
}
