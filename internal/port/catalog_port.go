package port

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
)

type Catalog interface {
	Products(ctx context.Context, limit int) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	Product(ctx context.Context, id domain.ProductID) (domain.Product, error)
}
