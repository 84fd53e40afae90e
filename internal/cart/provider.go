package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/forrajeria-backend/internal/localstore"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
)

type cartKeyer interface {
	CartKey(customerID string) string
}

// Provider opens the cart engine of a customer. Engines are short lived: one
// per request or streaming connection.
type Provider struct {
	store localstore.Store
	keys  cartKeyer
	opts  []Option
}

func NewProvider(store localstore.Store, keys cartKeyer, opts ...Option) (*Provider, error) {
	if store == nil {
		return nil, fmt.Errorf("local store required")
	}
	if keys == nil {
		return nil, fmt.Errorf("cart keyer required")
	}
	return &Provider{store: store, keys: keys, opts: opts}, nil
}

func (p *Provider) Open(ctx context.Context, customerID string) (*Engine, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer required")
	}
	return Open(ctx, p.store, p.keys.CartKey(customerID), p.opts...)
}
