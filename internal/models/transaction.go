package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the stored form of one journal leg.
type Transaction struct {
	TransactionID     string          `db:"transaction_id" json:"transactionID"`
	Seq               uint64          `db:"seq" json:"seq"` // Store-assigned insertion order
	JournalID         string          `db:"journal_id" json:"journalID"`
	Book              string          `db:"book" json:"book"`
	AccountPath       []string        `db:"account_path" json:"accountPath"`
	Accounts          string          `db:"accounts" json:"accounts"`
	Credit            decimal.Decimal `db:"credit" json:"credit"`
	Debit             decimal.Decimal `db:"debit" json:"debit"`
	Meta              map[string]any  `db:"meta" json:"meta,omitempty"`
	Datetime          time.Time       `db:"datetime" json:"datetime"`
	Memo              string          `db:"memo" json:"memo"`
	Approved          bool            `db:"approved" json:"approved"`
	Voided            bool            `db:"voided" json:"voided"`
	OriginalJournalID *string         `db:"original_journal_id" json:"originalJournalID,omitempty"` // Nullable
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}
