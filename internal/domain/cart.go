package domain

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// MaxQuantity bounds the quantity of a single line item.
const MaxQuantity = math.MaxInt32

type Cart struct {
	OwnerID  string
	Currency currency.Unit
	Items    []LineItem
}

// LineItem is one distinct product held in a cart. Title, Price and Image are
// taken from the product when it is first added and never refreshed.
type LineItem struct {
	ID       ProductID
	Title    string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (c Cart) TotalItems() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c Cart) Total() Money {
	return Money{Amount: c.TotalPrice(), Currency: c.Currency}
}

func (c Cart) IndexOf(id ProductID) int {
	for i, item := range c.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (c Cart) Clone() Cart {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}
