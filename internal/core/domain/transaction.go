package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one leg of a journal, affecting one account path.
type Transaction struct {
	ID              ID              `json:"id" validate:"required"`
	JournalID       ID              `json:"journalId" validate:"required"`
	Book            string          `json:"book" validate:"required"`
	AccountPath     []string        `json:"accountPath" validate:"required,min=1,dive,required"`
	Accounts        string          `json:"accounts" validate:"required"` // joined AccountPath
	Credit          decimal.Decimal `json:"credit"`
	Debit           decimal.Decimal `json:"debit"`
	Meta            Meta            `json:"meta,omitempty"`
	Datetime        time.Time       `json:"datetime" validate:"required"`
	Memo            string          `json:"memo"`
	Approved        bool            `json:"approved"`
	Voided          bool            `json:"voided"`
	OriginalJournal *ID             `json:"originalJournal,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Mirror returns the reversing leg: same path and meta, credit and debit swapped.
// Identity, journal linkage and timestamps are left for the commit to fill.
func (t Transaction) Mirror() Transaction {
	return Transaction{
		Book:        t.Book,
		AccountPath: append([]string(nil), t.AccountPath...),
		Accounts:    t.Accounts,
		Credit:      t.Debit,
		Debit:       t.Credit,
		Meta:        t.Meta.Clone(),
		Approved:    t.Approved,
	}
}

// TransactionUpdate lists the leg fields that may change after commit.
type TransactionUpdate struct {
	Approved *bool
}

// Apply writes the non-nil fields of u onto t.
func (u TransactionUpdate) Apply(t *Transaction) {
	if u.Approved != nil {
		t.Approved = *u.Approved
	}
}
