package models

import "time"

// Journal is the stored form of a journal entry.
type Journal struct {
	JournalID         string    `db:"journal_id" json:"journalID"`
	Book              string    `db:"book" json:"book"`
	Memo              string    `db:"memo" json:"memo"`
	Datetime          time.Time `db:"datetime" json:"datetime"`
	Approved          bool      `db:"approved" json:"approved"`
	Voided            bool      `db:"voided" json:"voided"`
	VoidReason        string    `db:"void_reason" json:"voidReason,omitempty"`
	OriginalJournalID *string   `db:"original_journal_id" json:"originalJournalID,omitempty"` // Nullable
	TransactionIDs    []string  `db:"transaction_ids" json:"transactionIDs"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}
