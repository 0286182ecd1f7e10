package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"golang.org/x/text/currency"
)

var (
	ErrOwnerIDEmpty       = errors.New("ownerID is empty")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
)

type cartRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *cartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, ErrOwnerIDEmpty
	}

	rows, err := r.q.GetCart(ctx, ownerID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.GetCart: %w", err)
	}

	cart, err := mapGetCartRowsToDomain(ownerID, rows)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mapGetCartRowsToDomain: %w: %w", port.ErrCartCorrupt, err)
	}

	return cart, nil
}

// SaveCart replaces the persisted items of the owner with the given cart in a
// single transaction, keeping the item order.
func (r *cartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	if cart.OwnerID == "" {
		return ErrOwnerIDEmpty
	}

	for _, item := range cart.Items {
		if item.Quantity < 1 || item.Quantity > domain.MaxQuantity {
			return fmt.Errorf("item[%s] quantity %d: %w", item.ID, item.Quantity, ErrQuantityOutOfRange)
		}
	}

	_, err := withTx(ctx, r.pool, r.q, func(q *db.Queries) (struct{}, error) {
		if _, err := q.DeleteCart(ctx, cart.OwnerID); err != nil {
			return struct{}{}, fmt.Errorf("q.DeleteCart: %w", err)
		}

		for i, item := range cart.Items {
			err := q.AddItem(ctx, db.AddItemParams{
				OwnerID:       cart.OwnerID,
				Position:      int32(i),
				ProductID:     item.ID.String(),
				Title:         item.Title,
				PriceAmount:   item.Price,
				PriceCurrency: cart.Currency.String(),
				Image:         item.Image,
				Quantity:      int32(item.Quantity),
			})
			if err != nil {
				return struct{}{}, fmt.Errorf("q.AddItem[%s]: %w", item.ID, err)
			}
		}

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func (r *cartRepository) DeleteCart(ctx context.Context, ownerID string) (bool, error) {
	if ownerID == "" {
		return false, ErrOwnerIDEmpty
	}

	rowsAffected, err := r.q.DeleteCart(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("q.DeleteCart: %w", err)
	}

	return rowsAffected > 0, nil
}

func mapGetCartRowToDomain(row db.GetCartRow) (domain.LineItem, currency.Unit, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.LineItem{}, currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.LineItem{
		ID:       domain.ProductID(row.ProductID),
		Title:    row.Title,
		Price:    row.PriceAmount,
		Image:    row.Image,
		Quantity: int(row.Quantity),
	}, parsedCurrency, nil
}

func mapGetCartRowsToDomain(ownerID string, rows []db.GetCartRow) (domain.Cart, error) {
	cart := domain.Cart{
		OwnerID: ownerID,
	}

	for _, row := range rows {
		item, unit, err := mapGetCartRowToDomain(row)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("mapGetCartRowToDomain: %w", err)
		}

		cart.Currency = unit
		cart.Items = append(cart.Items, item)
	}

	return cart, nil
}
