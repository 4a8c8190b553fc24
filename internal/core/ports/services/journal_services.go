package services

import (
	"context"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
)

// JournalReaderSvc defines book-scoped journal lookups.
type JournalReaderSvc interface {
	// FindJournal returns the journal if it belongs to the book.
	FindJournal(ctx context.Context, id domain.ID) (*domain.Journal, error)
}

// JournalWriterSvc defines the post-commit journal mutations.
type JournalWriterSvc interface {
	// Void commits a mirrored reversal and marks the original voided.
	Void(ctx context.Context, id domain.ID, reason string) (*domain.Journal, error)

	// SetJournalApproved flips approval on a journal and all of its legs.
	SetJournalApproved(ctx context.Context, id domain.ID, approved bool) (*domain.Journal, error)
}

// BalanceReaderSvc defines the aggregate reads over a book.
type BalanceReaderSvc interface {
	Balance(ctx context.Context, query domain.Query) (domain.Balance, error)

	// ListAccounts returns every account path seen in the book, ancestors included.
	ListAccounts(ctx context.Context) ([]string, error)
}

// BookSvcFacade combines the book operations that don't need the entry builder.
type BookSvcFacade interface {
	Name() string
	JournalReaderSvc
	JournalWriterSvc
	BalanceReaderSvc
}
