package webserver_test

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/nikolayk812/storefront/internal/catalog"
	"github.com/nikolayk812/storefront/internal/domain"
)

type fakeCatalog struct {
	products   []domain.Product
	categories []string
	down       bool
}

func (f *fakeCatalog) Products(_ context.Context, limit int) ([]domain.Product, error) {
	if f.down {
		return nil, catalog.ErrCatalogUnavailable
	}
	if limit > 0 && limit < len(f.products) {
		return f.products[:limit], nil
	}
	return f.products, nil
}

func (f *fakeCatalog) Categories(context.Context) ([]string, error) {
	if f.down {
		return nil, catalog.ErrCatalogUnavailable
	}
	return f.categories, nil
}

func (f *fakeCatalog) ProductsByCategory(_ context.Context, category string) ([]domain.Product, error) {
	if f.down {
		return nil, catalog.ErrCatalogUnavailable
	}
	if !slices.Contains(f.categories, category) {
		return nil, catalog.ErrCategoryNotFound
	}
	var out []domain.Product
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Product(_ context.Context, id domain.ProductID) (domain.Product, error) {
	if f.down {
		return domain.Product{}, catalog.ErrCatalogUnavailable
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, catalog.ErrProductNotFound
}

type fakeTracker struct {
	mu    sync.Mutex
	views []domain.PageView
}

func (f *fakeTracker) Track(_ context.Context, view domain.PageView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, view)
	return nil
}

func (f *fakeTracker) last() domain.PageView {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.views) == 0 {
		return domain.PageView{}
	}
	return f.views[len(f.views)-1]
}

var errStorageDown = errors.New("storage down")

type memRepo struct {
	mu      sync.Mutex
	carts   map[string]domain.Cart
	failSet bool
}

func newMemRepo() *memRepo {
	return &memRepo{carts: make(map[string]domain.Cart)}
}

func (r *memRepo) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.carts[ownerID].Clone(), nil
}

func (r *memRepo) SaveCart(_ context.Context, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet {
		return errStorageDown
	}
	r.carts[cart.OwnerID] = cart.Clone()
	return nil
}

func (r *memRepo) DeleteCart(_ context.Context, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.carts[ownerID]
	delete(r.carts, ownerID)
	return ok, nil
}

func (r *memRepo) setFailSet(v bool) {
	r.mu.Lock()
	r.failSet = v
	r.mu.Unlock()
}

func (r *memRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
