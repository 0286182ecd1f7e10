package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"golang.org/x/sync/errgroup"
)

const FeaturedLimit = 8

type Home struct {
	Featured   []domain.Product
	Categories []string
}

// LoadHome fetches featured products and the category list concurrently.
func LoadHome(ctx context.Context, c port.Catalog) (Home, error) {
	var home Home

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := c.Products(gctx, FeaturedLimit)
		if err != nil {
			return fmt.Errorf("c.Products: %w", err)
		}
		home.Featured = products
		return nil
	})
	g.Go(func() error {
		categories, err := c.Categories(gctx)
		if err != nil {
			return fmt.Errorf("c.Categories: %w", err)
		}
		home.Categories = FashionCategories(categories)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Home{}, err
	}
	return home, nil
}

// FashionCategories keeps the clothing categories and jewelery, in catalog order.
func FashionCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if strings.Contains(c, "clothing") || c == "jewelery" {
			out = append(out, c)
		}
	}
	return out
}

// ProductIDs returns the ids of products in order.
func ProductIDs(products []domain.Product) []domain.ProductID {
	ids := make([]domain.ProductID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}
