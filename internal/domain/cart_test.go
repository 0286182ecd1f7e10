package domain_test

import (
	"testing"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

func TestCartTotals(t *testing.T) {
	c := domain.Cart{
		Currency: currency.USD,
		Items: []domain.LineItem{
			{ID: "1", Price: decimal.RequireFromString("10"), Quantity: 2},
			{ID: "2", Price: decimal.RequireFromString("5"), Quantity: 1},
		},
	}

	assert.Equal(t, 3, c.TotalItems())
	assert.True(t, decimal.NewFromInt(25).Equal(c.TotalPrice()))
	assert.Equal(t, 1, c.IndexOf("2"))
	assert.Equal(t, -1, c.IndexOf("3"))

	empty := domain.Cart{}
	assert.Zero(t, empty.TotalItems())
	assert.True(t, empty.TotalPrice().IsZero())
}

func TestCartClone(t *testing.T) {
	c := domain.Cart{Items: []domain.LineItem{{ID: "1", Quantity: 1}}}

	clone := c.Clone()
	clone.Items[0].Quantity = 9

	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.NotNil(t, domain.Cart{}.Clone().Items)
}

func TestMoneyDisplay(t *testing.T) {
	m := domain.Money{Amount: decimal.RequireFromString("25.004"), Currency: currency.USD}

	assert.Contains(t, m.Display(language.AmericanEnglish), "25.00")
	assert.Contains(t, m.String(), "$")
	// amount itself is not rounded
	assert.Equal(t, "25.004", m.Amount.String())
}

func TestPageView_JoinedProductIDs(t *testing.T) {
	v := domain.PageView{PageType: domain.PageCategory, ProductIDs: []domain.ProductID{"1", "2", "3"}}
	assert.Equal(t, "1,2,3", v.JoinedProductIDs())
	assert.Empty(t, domain.PageView{}.JoinedProductIDs())
}
