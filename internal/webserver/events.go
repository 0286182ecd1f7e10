package webserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nikolayk812/storefront/internal/domain"
	"go.uber.org/zap"
)

const (
	eventBuffer       = 16
	keepAliveInterval = 30 * time.Second
)

// cartEvents streams the cart as server-sent events: the current state first,
// then one "cart" event per mutation until the client disconnects.
func (s *Server) cartEvents(c echo.Context) error {
	store := s.openCart(c)

	updates := make(chan domain.Cart, eventBuffer)
	unsubscribe := store.Subscribe(func(snapshot domain.Cart) {
		select {
		case updates <- snapshot:
		default:
			s.log.Warn("cart event dropped, slow subscriber", zap.String("owner_id", snapshot.OwnerID))
		}
	})
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, newCartView(store.Cart(), store.PersistErr())); err != nil {
		return nil
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot := <-updates:
			if err := writeEvent(w, newCartView(snapshot, store.PersistErr())); err != nil {
				return nil
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func writeEvent(w *echo.Response, view cartView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.Flush()
	return nil
}
