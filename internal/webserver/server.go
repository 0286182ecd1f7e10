// Package webserver exposes the storefront JSON API over echo.
package webserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nikolayk812/storefront/internal/cart"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
)

type Config struct {
	Secret        string
	SessionMaxAge int
	Debug         bool
}

type Server struct {
	root     *echo.Echo
	registry *cart.Registry
	catalog  port.Catalog
	tracker  port.Tracker
	log      *zap.Logger
}

func NewServer(cfg Config, registry *cart.Registry, catalog port.Catalog, tracker port.Tracker, log *zap.Logger) (*Server, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		root:     echo.New(),
		registry: registry,
		catalog:  catalog,
		tracker:  tracker,
		log:      log.Named("web"),
	}

	s.root.HideBanner = true
	s.root.HidePort = true
	s.root.Debug = cfg.Debug
	s.root.JSONSerializer = jsonSerializer{}
	s.root.HTTPErrorHandler = s.errorHandler

	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	s.root.Use(middleware.Recover())
	s.root.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogMethod:  true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
			)
			return nil
		},
	}))

	s.root.GET("/healthz", func(c echo.Context) error {
		return ok(c, "ok")
	})

	api := s.root.Group("/api", session.Middleware(store), s.ownerMiddleware)

	api.GET("/home", s.home)
	api.GET("/categories/:category/products", s.category)
	api.GET("/products/:id", s.product)

	api.GET("/cart", s.getCart)
	api.GET("/cart/count", s.cartCount)
	api.POST("/cart/items", s.addItem)
	api.PUT("/cart/items/:id", s.updateQuantity)
	api.DELETE("/cart/items/:id", s.removeItem)
	api.DELETE("/cart", s.clearCart)
	api.GET("/cart/events", s.cartEvents)

	api.POST("/session/end", s.endSession)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.root.ServeHTTP(w, r)
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("web server listening", zap.String("addr", addr))

	err := s.root.Start(addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("root.Start: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.root.Shutdown(ctx); err != nil {
		return fmt.Errorf("root.Shutdown: %w", err)
	}
	return nil
}

func (s *Server) track(c echo.Context, view domain.PageView) {
	if err := s.tracker.Track(c.Request().Context(), view); err != nil {
		s.log.Warn("page view not tracked", zap.String("page_type", string(view.PageType)), zap.Error(err))
	}
}
