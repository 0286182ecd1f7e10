package webserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nikolayk812/storefront/internal/cart"
	"go.uber.org/zap"
)

const (
	sessionName = "storefront"
	ownerKey    = "owner_id"
)

// ownerMiddleware makes sure every API request carries a cart owner id,
// issuing a new one in the session cookie on first visit.
func (s *Server) ownerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := session.Get(sessionName, c)
		if err != nil {
			// a cookie signed with another secret still yields a usable new session
			s.log.Debug("session decode failed, starting new", zap.Error(err))
		}

		ownerID, _ := sess.Values[ownerKey].(string)
		if _, parseErr := uuid.Parse(ownerID); parseErr != nil {
			ownerID = uuid.NewString()
			sess.Values[ownerKey] = ownerID
			if err := sess.Save(c.Request(), c.Response()); err != nil {
				return fail(c, http.StatusInternalServerError, "SESSION_ERROR", "Failed to start session", err.Error())
			}
		}

		c.Set(ownerKey, ownerID)
		return next(c)
	}
}

func ownerID(c echo.Context) string {
	id, _ := c.Get(ownerKey).(string)
	return id
}

func (s *Server) openCart(c echo.Context) *cart.Store {
	return s.registry.Open(c.Request().Context(), ownerID(c))
}

// endSession forgets the cart and expires the session cookie.
func (s *Server) endSession(c echo.Context) error {
	if err := s.registry.Forget(c.Request().Context(), ownerID(c)); err != nil {
		return fail(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to clear cart", err.Error())
	}

	sess, _ := session.Get(sessionName, c)
	sess.Options.MaxAge = -1
	delete(sess.Values, ownerKey)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fail(c, http.StatusInternalServerError, "SESSION_ERROR", "Failed to end session", err.Error())
	}

	return ok(c, nil)
}
