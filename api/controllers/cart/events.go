package cart

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/forrajeria-backend/api/responses"
	cartsvc "github.com/angelmondragon/forrajeria-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
)

// CartEvents streams the cart as server-sent events. The current cart is sent
// first, then one frame per change written by another session or device.
func CartEvents(carts Opener, interval time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		engine, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		send := func(items []cartsvc.Item) {
			payload, err := json.Marshal(newCartView(items))
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}

		send(engine.Items())
		if err := engine.Watch(r.Context(), interval, send); err != nil && logg != nil {
			logg.Error(r.Context(), "cart event stream ended", err)
		}
	}
}
