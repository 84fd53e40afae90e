package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/forrajeria-backend/internal/localstore"
)

// DefaultSyncInterval is how often Watch polls when no push arrives.
const DefaultSyncInterval = time.Second

// Watch keeps the engine aligned with writes made by other engines on the same
// key and calls onChange with the new lines after each detected divergence.
// Push notifications are used when the store supports them; polling every
// interval always runs as a fallback. Watch returns when ctx is done.
func (e *Engine) Watch(ctx context.Context, interval time.Duration, onChange func([]Item)) error {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	var pushes <-chan struct{}
	if notifier, ok := e.store.(localstore.Notifier); ok {
		ch, cancel, err := notifier.Subscribe(ctx, e.key)
		if err != nil {
			e.logg.Warn(e.logg.WithField(ctx, "cart_key", e.key), "cart change subscription failed, polling only")
		} else {
			pushes = ch
			defer cancel()
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, open := <-pushes:
			if !open {
				pushes = nil
				continue
			}
			e.syncAndNotify(ctx, onChange)
		case <-ticker.C:
			e.syncAndNotify(ctx, onChange)
		}
	}
}

func (e *Engine) syncAndNotify(ctx context.Context, onChange func([]Item)) {
	changed, err := e.Sync(ctx)
	if err != nil {
		if ctx.Err() == nil {
			e.logg.Warn(e.logg.WithField(ctx, "cart_key", e.key), "cart sync failed")
		}
		return
	}
	if changed && onChange != nil {
		onChange(e.Items())
	}
}
