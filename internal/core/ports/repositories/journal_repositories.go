package repositories

import (
	"context"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
)

// IDGenerator allocates identities in the store's native format.
type IDGenerator interface {
	NewID() domain.ID
}

// JournalReader defines read operations for journal records.
type JournalReader interface {
	// FindJournalByID returns the journal only if it belongs to book; anything
	// else is apperrors.ErrNotFound.
	FindJournalByID(ctx context.Context, id domain.ID, book string) (*domain.Journal, error)
}

// JournalWriter defines write operations for journal records.
type JournalWriter interface {
	InsertJournal(ctx context.Context, journal domain.Journal) (domain.ID, error)

	// UpdateJournal applies the approval or void fields of update to the journal.
	UpdateJournal(ctx context.Context, id domain.ID, book string, update domain.JournalUpdate) error
}

// TransactionReader defines read operations over legs.
type TransactionReader interface {
	// AggregateBalance orders matches latest first, applies window, then sums
	// credit and debit over what remains.
	AggregateBalance(ctx context.Context, filter domain.TransactionFilter, window pagination.Window) (domain.Aggregate, error)

	// QueryTransactions returns the windowed legs latest first and the
	// unwindowed match count.
	QueryTransactions(ctx context.Context, filter domain.TransactionFilter, window pagination.Window) ([]domain.Transaction, int, error)

	// DistinctAccounts returns every joined account path used in book.
	DistinctAccounts(ctx context.Context, book string) ([]string, error)
}

// TransactionWriter defines write operations over legs.
type TransactionWriter interface {
	InsertTransactions(ctx context.Context, legs []domain.Transaction) ([]domain.ID, error)

	// DeleteTransactionsByJournal removes every leg of a journal. It is only
	// used to compensate a failed commit and returns the number removed.
	DeleteTransactionsByJournal(ctx context.Context, journalID domain.ID) (int, error)

	UpdateTransactionsByJournal(ctx context.Context, journalID domain.ID, update domain.TransactionUpdate) error
}

// Store combines every capability the engine needs from a document store.
type Store interface {
	IDGenerator
	JournalReader
	JournalWriter
	TransactionReader
	TransactionWriter
}
