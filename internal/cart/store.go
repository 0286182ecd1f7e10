// Package cart holds the per-session cart state container and the registry
// that creates, restores and evicts stores.
package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

const defaultSaveTimeout = 3 * time.Second

// Store is the single owner of one cart. All mutations go through its methods;
// each effective mutation is persisted and then published to subscribers.
type Store struct {
	repo        port.CartRepository
	log         *zap.Logger
	saveTimeout time.Duration
	now         func() time.Time

	// pubMu orders persist+notify across mutations; mu guards state.
	pubMu      sync.Mutex
	mu         sync.RWMutex
	cart       domain.Cart
	persistErr error
	lastAccess time.Time

	// readOnly is set when the stored cart could not be read. Saving would
	// overwrite it with a partial view, so mutations stay in memory.
	readOnly bool

	subs subscribers
}

type Option func(*Store)

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.saveTimeout = d
		}
	}
}

func WithCurrency(unit currency.Unit) Option {
	return func(s *Store) {
		s.cart.Currency = unit
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty store for ownerID.
func NewStore(ownerID string, repo port.CartRepository, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		log:         zap.NewNop(),
		saveTimeout: defaultSaveTimeout,
		now:         time.Now,
		cart: domain.Cart{
			OwnerID:  ownerID,
			Currency: currency.USD,
		},
		subs: subscribers{byID: make(map[uint64]Listener)},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastAccess = s.now()

	return s
}

// Restore returns a store holding the persisted cart of ownerID. A cart that
// cannot be loaded is replaced by an empty one; the failure is logged and kept
// in PersistErr.
func Restore(ctx context.Context, ownerID string, repo port.CartRepository, opts ...Option) *Store {
	s, _ := restore(ctx, ownerID, repo, opts...)
	return s
}

// restore loads the persisted cart detached from ctx cancellation and bounded
// by the save timeout. A corrupt stored cart yields an empty store that may
// overwrite it. Any other read failure yields an empty read-only store along
// with the error, so the caller can retry later.
func restore(ctx context.Context, ownerID string, repo port.CartRepository, opts ...Option) (*Store, error) {
	s := NewStore(ownerID, repo, opts...)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()

	stored, err := repo.GetCart(ctx, ownerID)
	switch {
	case errors.Is(err, port.ErrCartCorrupt):
		s.log.Warn("stored cart is corrupt, starting empty",
			zap.String("owner_id", ownerID), zap.Error(err))
		s.persistErr = err
		return s, nil
	case err != nil:
		s.log.Warn("cart restore failed, starting empty",
			zap.String("owner_id", ownerID), zap.Error(err))
		s.persistErr = err
		s.readOnly = true
		return s, err
	}

	s.cart.Items = normalize(stored.Items, s.log)
	if stored.Currency != (currency.Unit{}) {
		s.cart.Currency = stored.Currency
	}

	return s, nil
}

// normalize drops items that would break the cart invariants, duplicate ids
// and quantities below one, and caps quantities at domain.MaxQuantity.
func normalize(items []domain.LineItem, log *zap.Logger) []domain.LineItem {
	seen := make(map[domain.ProductID]struct{}, len(items))
	out := make([]domain.LineItem, 0, len(items))

	for _, item := range items {
		item.Quantity = min(item.Quantity, domain.MaxQuantity)
		if item.Quantity < 1 {
			log.Warn("dropping stored item with non-positive quantity",
				zap.String("product_id", item.ID.String()), zap.Int("quantity", item.Quantity))
			continue
		}
		if _, ok := seen[item.ID]; ok {
			log.Warn("dropping duplicate stored item", zap.String("product_id", item.ID.String()))
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}

	return out
}

func (s *Store) OwnerID() string {
	return s.cart.OwnerID
}

// AddItem increments the quantity of an existing line or appends a new line
// with quantity 1. The snapshot fields of an existing line are kept.
func (s *Store) AddItem(p domain.Product) {
	if !p.Addable() {
		s.log.Warn("ignoring product that cannot be added",
			zap.String("owner_id", s.cart.OwnerID), zap.String("product_id", p.ID.String()))
		return
	}

	s.mutate(func(c *domain.Cart) bool {
		if i := c.IndexOf(p.ID); i >= 0 {
			if c.Items[i].Quantity >= domain.MaxQuantity {
				return false
			}
			c.Items[i].Quantity++
			return true
		}

		c.Items = append(c.Items, domain.LineItem{
			ID:       p.ID,
			Title:    p.Title,
			Price:    p.Price,
			Image:    p.Image,
			Quantity: 1,
		})
		return true
	})
}

func (s *Store) RemoveItem(id domain.ProductID) {
	s.mutate(func(c *domain.Cart) bool {
		i := c.IndexOf(id)
		if i < 0 {
			return false
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	})
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or below
// removes the line; one above domain.MaxQuantity is capped.
func (s *Store) UpdateQuantity(id domain.ProductID, quantity int) {
	quantity = min(quantity, domain.MaxQuantity)

	s.mutate(func(c *domain.Cart) bool {
		i := c.IndexOf(id)
		if i < 0 {
			return false
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
		if c.Items[i].Quantity == quantity {
			return false
		}
		c.Items[i].Quantity = quantity
		return true
	})
}

func (s *Store) ClearCart() {
	s.mutate(func(c *domain.Cart) bool {
		if len(c.Items) == 0 {
			return false
		}
		c.Items = nil
		return true
	})
}

func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cart.TotalItems()
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cart.TotalPrice()
}

func (s *Store) Total() domain.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cart.Total()
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cart.Clone()
}

func (s *Store) Items() []domain.LineItem {
	return s.Cart().Items
}

// PersistErr returns the last storage failure, or nil once a save succeeds.
func (s *Store) PersistErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.persistErr
}

func (s *Store) touch() {
	s.mu.Lock()
	s.lastAccess = s.now()
	s.mu.Unlock()
}

func (s *Store) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastAccess
}

// mutate applies fn to the cart. When fn reports a change the new state is
// saved and published in mutation order.
func (s *Store) mutate(fn func(c *domain.Cart) bool) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	s.lastAccess = s.now()
	changed := fn(&s.cart)
	snapshot := s.cart.Clone()
	s.mu.Unlock()

	if !changed {
		return
	}

	s.persist(snapshot)
	s.subs.publish(snapshot)
}

func (s *Store) persist(snapshot domain.Cart) {
	if s.readOnly {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	err := s.repo.SaveCart(ctx, snapshot)
	if err != nil {
		s.log.Warn("cart save failed, keeping in-memory state",
			zap.String("owner_id", snapshot.OwnerID), zap.Error(err))
	}

	s.mu.Lock()
	s.persistErr = err
	s.mu.Unlock()
}
