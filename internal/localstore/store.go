// Package localstore holds the per-customer key/value storage used for carts
// and sessions.
package localstore

import "context"

// Store is a byte-oriented key/value store. Get reports ok=false for missing keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Notifier is implemented by stores that can announce writes to a key.
// The returned channel receives a signal after every Set or Delete of key and
// is closed once cancel is called or ctx ends.
type Notifier interface {
	Subscribe(ctx context.Context, key string) (<-chan struct{}, func(), error)
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// WithoutNotifications hides the Notifier side of s so watchers fall back to polling.
func WithoutNotifications(s Store) Store {
	return pollingStore{s}
}

type pollingStore struct {
	Store
}
