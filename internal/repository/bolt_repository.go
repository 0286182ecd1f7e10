package repository

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/shopspring/decimal"
	"go.etcd.io/bbolt"
	"golang.org/x/text/currency"
)

const cartsBucket = "carts"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// boltCart is the stored form of a cart, keyed by owner id.
type boltCart struct {
	Currency string     `json:"currency"`
	Items    []boltItem `json:"items"`
}

type boltItem struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

type boltCartRepository struct {
	db *bbolt.DB
}

func NewBoltCart(db *bbolt.DB) (port.CartRepository, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cartsBucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tx.CreateBucketIfNotExists: %w", err)
	}

	return &boltCartRepository{db: db}, nil
}

func (r *boltCartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, ErrOwnerIDEmpty
	}
	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}

	var stored *boltCart
	err := r.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(cartsBucket)).Get([]byte(ownerID))
		if raw == nil {
			return nil
		}

		stored = &boltCart{}
		if err := json.Unmarshal(raw, stored); err != nil {
			return fmt.Errorf("json.Unmarshal: %w: %w", port.ErrCartCorrupt, err)
		}
		return nil
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("db.View: %w", err)
	}

	if stored == nil || len(stored.Items) == 0 {
		return domain.Cart{OwnerID: ownerID}, nil
	}

	cart, err := mapBoltCartToDomain(ownerID, *stored)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mapBoltCartToDomain: %w: %w", port.ErrCartCorrupt, err)
	}

	return cart, nil
}

func (r *boltCartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	if cart.OwnerID == "" {
		return ErrOwnerIDEmpty
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(mapDomainToBoltCart(cart))
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	err = r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(cartsBucket)).Put([]byte(cart.OwnerID), raw)
	})
	if err != nil {
		return fmt.Errorf("db.Update: %w", err)
	}

	return nil
}

func (r *boltCartRepository) DeleteCart(ctx context.Context, ownerID string) (bool, error) {
	if ownerID == "" {
		return false, ErrOwnerIDEmpty
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var deleted bool
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(cartsBucket))
		if b.Get([]byte(ownerID)) == nil {
			return nil
		}
		deleted = true
		return b.Delete([]byte(ownerID))
	})
	if err != nil {
		return false, fmt.Errorf("db.Update: %w", err)
	}

	return deleted, nil
}

func mapDomainToBoltCart(cart domain.Cart) boltCart {
	items := make([]boltItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, boltItem{
			ID:       item.ID.String(),
			Title:    item.Title,
			Price:    item.Price,
			Image:    item.Image,
			Quantity: item.Quantity,
		})
	}

	return boltCart{
		Currency: cart.Currency.String(),
		Items:    items,
	}
}

func mapBoltCartToDomain(ownerID string, stored boltCart) (domain.Cart, error) {
	var unit currency.Unit
	if stored.Currency != "" {
		parsed, err := currency.ParseISO(stored.Currency)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("currency[%s] is not valid: %w", stored.Currency, err)
		}
		unit = parsed
	}

	cart := domain.Cart{
		OwnerID:  ownerID,
		Currency: unit,
	}
	for _, item := range stored.Items {
		cart.Items = append(cart.Items, domain.LineItem{
			ID:       domain.ProductID(item.ID),
			Title:    item.Title,
			Price:    item.Price,
			Image:    item.Image,
			Quantity: item.Quantity,
		})
	}

	return cart, nil
}
