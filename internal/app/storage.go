package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/migrations"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/repository"
	"go.etcd.io/bbolt"
)

type storage struct {
	repo  port.CartRepository
	close func() error
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (*storage, error) {
	switch cfg.Type {
	case "bolt":
		return openBolt(cfg.BoltPath)
	case "postgres":
		return openPostgres(ctx, cfg.PostgresURL)
	default:
		return nil, fmt.Errorf("storage type %q is not supported", cfg.Type)
	}
}

func openBolt(path string) (*storage, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt.Open[%s]: %w", path, err)
	}

	repo, err := repository.NewBoltCart(db)
	if err != nil {
		return nil, fmt.Errorf("repository.NewBoltCart: %w", err)
	}

	return &storage{repo: repo, close: db.Close}, nil
}

func openPostgres(ctx context.Context, url string) (*storage, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}

	if err := migrations.Up(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations.Up: %w", err)
	}

	return &storage{
		repo: repository.NewCart(pool),
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}
