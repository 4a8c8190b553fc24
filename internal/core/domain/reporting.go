package domain

import "github.com/shopspring/decimal"

// Aggregate is the raw store-side sum over a filtered leg window.
type Aggregate struct {
	Credit decimal.Decimal
	Debit  decimal.Decimal
	Count  int
}

// Add folds one leg into the aggregate.
func (a *Aggregate) Add(t Transaction) {
	a.Credit = a.Credit.Add(t.Credit)
	a.Debit = a.Debit.Add(t.Debit)
	a.Count++
}

// Balance is the result of a balance query: debit minus credit at book
// precision, and the number of legs that contributed.
type Balance struct {
	Balance decimal.Decimal `json:"balance"`
	Notes   int             `json:"notes"`
}
