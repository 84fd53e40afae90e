package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/forrajeria-backend/internal/localstore"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
)

// Record is the customer snapshot kept for the lifetime of an access session.
type Record struct {
	CustomerID string    `json:"id"`
	Nombre     string    `json:"nombre"`
	Apellido   string    `json:"apellido"`
	Celular    string    `json:"celular"`
	Email      string    `json:"email,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// FromCustomer snapshots the identity fields of c.
func FromCustomer(c models.Customer, now time.Time) Record {
	return Record{
		CustomerID: c.ID,
		Nombre:     c.Nombre,
		Apellido:   c.Apellido,
		Celular:    c.Celular,
		Email:      c.Email,
		StartedAt:  now.UTC(),
	}
}

// Customer rebuilds the order-facing customer snapshot.
func (r Record) Customer() models.OrderCustomer {
	return models.OrderCustomer{
		ID:       r.CustomerID,
		Nombre:   r.Nombre,
		Apellido: r.Apellido,
		Celular:  r.Celular,
		Email:    r.Email,
	}
}

// Keyer names the storage keys of sessions and carts.
type Keyer interface {
	SessionKey(accessID string) string
	CartKey(customerID string) string
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Store reads and writes session records.
type Store struct {
	store localstore.Store
	keys  Keyer
}

func NewStore(store localstore.Store, keys Keyer) (*Store, error) {
	if store == nil {
		return nil, fmt.Errorf("local store required")
	}
	if keys == nil {
		return nil, fmt.Errorf("keyer required")
	}
	return &Store{store: store, keys: keys}, nil
}

// NewAccessID produces the identifier used as the JWT jti and session key suffix.
func NewAccessID() string {
	return uuid.NewString()
}

func (s *Store) Save(ctx context.Context, accessID string, record Record) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.store.Set(ctx, s.keys.SessionKey(accessID), payload)
}

// Load returns the session record. Missing or malformed records count as no session.
func (s *Store) Load(ctx context.Context, accessID string) (*Record, bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return nil, false, nil
	}
	raw, ok, err := s.store.Get(ctx, s.keys.SessionKey(accessID))
	if err != nil || !ok {
		return nil, false, err
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil || record.CustomerID == "" {
		return nil, false, nil
	}
	return &record, true, nil
}

func (s *Store) HasSession(ctx context.Context, accessID string) (bool, error) {
	_, ok, err := s.Load(ctx, accessID)
	return ok, err
}

// Clear removes the session record.
func (s *Store) Clear(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return s.store.Delete(ctx, s.keys.SessionKey(accessID))
}

// CartKey exposes the cart key of a customer so logout can drop both entries.
func (s *Store) CartKey(customerID string) string {
	return s.keys.CartKey(customerID)
}
