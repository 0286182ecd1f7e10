package cart_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
)

var errStorageDown = errors.New("storage down")

// memRepo is an in-memory port.CartRepository that can be told to fail.
type memRepo struct {
	mu      sync.Mutex
	carts   map[string]domain.Cart
	saves   int
	failGet bool
	failSet bool
	corrupt map[string]bool
	holds   map[string]*hold
}

// hold parks GetCart of one owner until released.
type hold struct {
	entered chan struct{}
	release chan struct{}
}

func newMemRepo() *memRepo {
	return &memRepo{
		carts:   make(map[string]domain.Cart),
		corrupt: make(map[string]bool),
		holds:   make(map[string]*hold),
	}
}

func (r *memRepo) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	r.mu.Lock()
	h := r.holds[ownerID]
	r.mu.Unlock()

	if h != nil {
		close(h.entered)
		<-h.release
	}

	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failGet {
		return domain.Cart{}, errStorageDown
	}
	if r.corrupt[ownerID] {
		return domain.Cart{}, fmt.Errorf("decode: %w", port.ErrCartCorrupt)
	}
	return r.carts[ownerID].Clone(), nil
}

func (r *memRepo) holdGet(ownerID string) *hold {
	h := &hold{entered: make(chan struct{}), release: make(chan struct{})}

	r.mu.Lock()
	r.holds[ownerID] = h
	r.mu.Unlock()

	return h
}

func (r *memRepo) setFailGet(v bool) {
	r.mu.Lock()
	r.failGet = v
	r.mu.Unlock()
}

func (r *memRepo) setCorrupt(ownerID string) {
	r.mu.Lock()
	r.corrupt[ownerID] = true
	r.mu.Unlock()
}

func (r *memRepo) SaveCart(_ context.Context, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failSet {
		return errStorageDown
	}
	r.saves++
	r.carts[cart.OwnerID] = cart.Clone()
	delete(r.corrupt, cart.OwnerID)
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

func (r *memRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *memRepo) stored(ownerID string) domain.Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.carts[ownerID].Clone()
}
