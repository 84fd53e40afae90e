package localstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	redisclient "github.com/angelmondragon/forrajeria-backend/pkg/redis"
)

type storeWithNotifier interface {
	Store
	Notifier
}

func newRedisStore(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisclient.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "fj")
	t.Cleanup(func() { _ = client.Close() })
	store, err := NewRedis(client, time.Hour)
	require.NoError(t, err)
	return store
}

func TestStores(t *testing.T) {
	cases := map[string]func(t *testing.T) storeWithNotifier{
		"memory": func(*testing.T) storeWithNotifier { return NewMemory() },
		"redis":  func(t *testing.T) storeWithNotifier { return newRedisStore(t) },
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			t.Run("round trip", func(t *testing.T) {
				store := build(t)
				ctx := context.Background()

				_, ok, err := store.Get(ctx, "cart:1")
				require.NoError(t, err)
				require.False(t, ok)

				require.NoError(t, store.Set(ctx, "cart:1", []byte(`[{"a":1}]`)))
				got, ok, err := store.Get(ctx, "cart:1")
				require.NoError(t, err)
				require.True(t, ok)
				require.Equal(t, `[{"a":1}]`, string(got))

				require.NoError(t, store.Delete(ctx, "cart:1"))
				_, ok, err = store.Get(ctx, "cart:1")
				require.NoError(t, err)
				require.False(t, ok)
			})

			t.Run("notifies writes", func(t *testing.T) {
				store := build(t)
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()

				changes, stop, err := store.Subscribe(ctx, "cart:2")
				require.NoError(t, err)
				defer stop()

				require.NoError(t, store.Set(ctx, "cart:2", []byte("[]")))
				select {
				case <-changes:
				case <-ctx.Done():
					t.Fatal("expected change notification")
				}
			})

			t.Run("cancel closes channel", func(t *testing.T) {
				store := build(t)
				changes, stop, err := store.Subscribe(context.Background(), "cart:3")
				require.NoError(t, err)
				stop()

				select {
				case _, open := <-changes:
					require.False(t, open)
				case <-time.After(2 * time.Second):
					t.Fatal("expected channel to close after cancel")
				}
			})
		})
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", []byte("abc")))

	got, _, _ := store.Get(ctx, "k")
	got[0] = 'z'

	again, _, _ := store.Get(ctx, "k")
	require.Equal(t, "abc", string(again))
}

func TestWithoutNotificationsHidesSubscribe(t *testing.T) {
	inner := NewMemory()
	wrapped := WithoutNotifications(inner)

	_, ok := wrapped.(Notifier)
	require.False(t, ok)

	ctx := context.Background()
	require.NoError(t, wrapped.Set(ctx, "k", []byte("v")))
	got, found, err := inner.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", string(got))
}
