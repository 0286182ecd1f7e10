// Package app wires configuration, logging, storage and the cart registry
// into a running storefront.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nikolayk812/storefront/internal/cart"
	"github.com/nikolayk812/storefront/internal/catalog"
	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/tracking"
	"github.com/nikolayk812/storefront/internal/webserver"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

const beaconCloseTimeout = 5 * time.Second

type Application struct {
	appConfig *config.AppConfig
	log       *zap.Logger
	storage   *storage
	registry  *cart.Registry
	catalog   port.Catalog
	tracker   port.Tracker
	beacon    *tracking.Beacon
	web       *webserver.Server
	sched     *cron.Cron
}

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) Logger() *zap.Logger {
	return a.log
}

func (a *Application) Registry() *cart.Registry {
	return a.registry
}

func (a *Application) Web() *webserver.Server {
	return a.web
}

func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Init builds every component. On error the components created so far are
// released.
func (a *Application) Init(ctx context.Context) (err error) {
	cfg := a.appConfig

	if a.log == nil {
		a.log, err = newLogger(cfg.Logger)
		if err != nil {
			return fmt.Errorf("newLogger: %w", err)
		}
		zap.ReplaceGlobals(a.log)
	}

	defer func() {
		if err != nil {
			a.Release()
		}
	}()

	unit, err := currency.ParseISO(cfg.Cart.Currency)
	if err != nil {
		return fmt.Errorf("currency.ParseISO[%s]: %w", cfg.Cart.Currency, err)
	}

	a.storage, err = openStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("openStorage: %w", err)
	}
	a.log.Info("cart storage ready", zap.String("type", cfg.Storage.Type))

	a.registry = cart.NewRegistry(a.storage.repo, a.log.Named("cart"),
		cart.WithCurrency(unit),
		cart.WithSaveTimeout(cfg.Storage.SaveTimeout),
	)

	a.catalog = catalog.New(cfg.Catalog.BaseURL,
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithLogger(a.log.Named("catalog")),
	)

	if cfg.Tracking.Endpoint != "" {
		a.beacon, err = tracking.NewBeacon(cfg.Tracking.Endpoint, cfg.Tracking.Workers, a.log.Named("tracking"))
		if err != nil {
			return fmt.Errorf("tracking.NewBeacon: %w", err)
		}
		a.tracker = a.beacon
	} else {
		a.tracker = tracking.NewLog(a.log)
	}

	a.web, err = webserver.NewServer(webserver.Config{
		Secret:        cfg.Web.Secret,
		SessionMaxAge: cfg.Web.SessionMaxAge,
		Debug:         cfg.System.Debug,
	}, a.registry, a.catalog, a.tracker, a.log)
	if err != nil {
		return fmt.Errorf("webserver.NewServer: %w", err)
	}

	if err := a.initJob(); err != nil {
		return fmt.Errorf("initJob: %w", err)
	}

	return nil
}

// Release stops the scheduler and closes tracking and storage.
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
		a.sched = nil
	}

	if a.beacon != nil {
		if err := a.beacon.Close(beaconCloseTimeout); err != nil {
			a.log.Warn("tracking beacon close", zap.Error(err))
		}
		a.beacon = nil
	}

	if a.storage != nil {
		if err := a.storage.close(); err != nil {
			a.log.Warn("storage close", zap.Error(err))
		}
		a.storage = nil
	}

	if a.log != nil {
		_ = a.log.Sync()
	}
}
