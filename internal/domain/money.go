package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// Display renders the amount rounded to the currency scale. Stored amounts
// are never rounded.
func (m Money) Display(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprint(currency.Symbol(m.Currency.Amount(m.Amount.InexactFloat64())))
}

func (m Money) String() string {
	return m.Display(language.AmericanEnglish)
}
