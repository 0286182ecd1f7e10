package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
)

// Registry is the creation point for stores: one live store per owner,
// restored from storage the first time the owner is seen.
type Registry struct {
	repo     port.CartRepository
	log      *zap.Logger
	now      func() time.Time
	storeOpt []Option

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(repo port.CartRepository, log *zap.Logger, opts ...Option) *Registry {
	if log == nil {
		log = zap.NewNop()
	}

	return &Registry{
		repo:     repo,
		log:      log,
		now:      time.Now,
		storeOpt: append([]Option{WithLogger(log)}, opts...),
		stores:   make(map[string]*Store),
	}
}

// Open returns the live store of ownerID, restoring it on first use. Storage
// is read outside the registry lock. A store whose restore failed is returned
// but not kept, so the next Open reads storage again.
func (r *Registry) Open(ctx context.Context, ownerID string) *Store {
	if s, ok := r.lookup(ownerID); ok {
		return s
	}

	opts := append(append([]Option{}, r.storeOpt...), withClock(r.now))
	s, err := restore(ctx, ownerID, r.repo, opts...)
	if err != nil {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if live, ok := r.stores[ownerID]; ok {
		live.touch()
		return live
	}
	r.stores[ownerID] = s
	r.log.Debug("cart opened", zap.String("owner_id", ownerID), zap.Int("items", s.TotalItems()))

	return s
}

func (r *Registry) lookup(ownerID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[ownerID]
	if ok {
		s.touch()
	}
	return s, ok
}

// Forget drops the live store of ownerID and deletes its persisted cart.
func (r *Registry) Forget(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	delete(r.stores, ownerID)
	r.mu.Unlock()

	if _, err := r.repo.DeleteCart(ctx, ownerID); err != nil {
		return fmt.Errorf("repo.DeleteCart: %w", err)
	}

	return nil
}

// EvictIdle drops stores not accessed for maxIdle and returns how many were
// dropped. Persisted carts are kept and restored on the next Open.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted int
	for ownerID, s := range r.stores {
		if s.idleSince().Before(cutoff) && s.subs.len() == 0 {
			delete(r.stores, ownerID)
			evicted++
		}
	}

	if evicted > 0 {
		r.log.Info("evicted idle carts", zap.Int("count", evicted), zap.Int("live", len(r.stores)))
	}

	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.stores)
}
