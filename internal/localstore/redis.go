package localstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	redisclient "github.com/angelmondragon/forrajeria-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
)

type redisBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Publish(ctx context.Context, channel string, payload any) (int64, error)
	Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error)
	ChangesChannel(key string) string
}

// Redis persists values in Redis and announces every write on a per-key channel.
type Redis struct {
	client redisBackend
	ttl    time.Duration
}

// NewRedis builds a Redis-backed store; ttl <= 0 keeps keys without expiry.
func NewRedis(client *redisclient.Client, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, r.ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	r.announce(ctx, key)
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	r.announce(ctx, key)
	return nil
}

// announce is best effort: readers fall back to polling when a publish is lost.
func (r *Redis) announce(ctx context.Context, key string) {
	_, _ = r.client.Publish(ctx, r.client.ChangesChannel(key), "1")
}

func (r *Redis) Subscribe(ctx context.Context, key string) (<-chan struct{}, func(), error) {
	sub, err := r.client.Subscribe(ctx, r.client.ChangesChannel(key))
	if err != nil {
		return nil, nil, err
	}

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}

	go func() {
		defer close(out)
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				signal(out)
			}
		}
	}()

	return out, cancel, nil
}
