package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikolayk812/storefront/internal/app"
	"github.com/nikolayk812/storefront/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgfile := flag.String("c", "storefront.yml", "config file")
	flag.Parse()

	if err := run(*cfgfile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgfile string) error {
	cfg, err := config.LoadConfig(cfgfile)
	if err != nil {
		return fmt.Errorf("config.LoadConfig: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.NewApplication(cfg)
	if err := application.Init(ctx); err != nil {
		return fmt.Errorf("application.Init: %w", err)
	}
	defer application.Release()

	log := application.Logger()
	application.StartBackgroundJobs()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return application.Web().Start(cfg.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return application.Web().Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("storefront stopped with error", zap.Error(err))
		return err
	}

	log.Info("bye")
	return nil
}
