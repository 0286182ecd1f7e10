package port

import (
	"context"
	"errors"

	"github.com/nikolayk812/storefront/internal/domain"
)

// ErrCartCorrupt is returned by GetCart when a stored cart exists but cannot
// be decoded.
var ErrCartCorrupt = errors.New("stored cart is corrupt")

// CartRepository persists carts by owner. GetCart of an owner without items
// returns an empty cart with a zero currency unit.
type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (domain.Cart, error)
	SaveCart(ctx context.Context, cart domain.Cart) error
	DeleteCart(ctx context.Context, ownerID string) (bool, error)
}
