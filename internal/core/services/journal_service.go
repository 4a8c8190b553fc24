package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
)

// FindJournal returns the journal with id if it belongs to this book.
func (b *Book) FindJournal(ctx context.Context, id domain.ID) (*domain.Journal, error) {
	return b.findJournal(ctx, b.store, id)
}

func (b *Book) findJournal(ctx context.Context, store portsrepo.JournalReader, id domain.ID) (*domain.Journal, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: empty journal id", apperrors.ErrJournalNotFound)
	}
	journal, err := store.FindJournalByID(ctx, id, b.cfg.Name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrJournalNotFound, id)
		}
		b.LogError(ctx, err, "Failed to find journal", slog.String("journal_id", id.String()))
		return nil, fmt.Errorf("failed to find journal %s: %w", id, err)
	}
	return journal, nil
}

// SetJournalApproved flips approval on a journal and every leg it owns. Legs
// follow the journal so balances pick the change up immediately.
func (b *Book) SetJournalApproved(ctx context.Context, id domain.ID, approved bool) (*domain.Journal, error) {
	logger := b.GetLogger(ctx)

	journal, err := b.FindJournal(ctx, id)
	if err != nil {
		return nil, err
	}
	if journal.Approved == approved {
		return journal, nil
	}

	apply := func(ctx context.Context, store portsrepo.Store, value bool) error {
		if err := store.UpdateJournal(ctx, id, b.cfg.Name, domain.JournalUpdate{Approved: boolPtr(value)}); err != nil {
			return err
		}
		return store.UpdateTransactionsByJournal(ctx, id, domain.TransactionUpdate{Approved: boolPtr(value)})
	}

	if sessioner, ok := b.store.(portsrepo.AtomicSessioner); ok {
		err = sessioner.WithAtomicSession(ctx, func(ctx context.Context, tx portsrepo.Store) error {
			return apply(ctx, tx, approved)
		})
	} else {
		err = apply(ctx, b.store, approved)
		if err != nil {
			// Put the journal back so it never disagrees with its legs.
			if rerr := apply(context.WithoutCancel(ctx), b.store, journal.Approved); rerr != nil {
				b.raiseIntegrityWarning(ctx, domain.WarningRevertFailed, id, err, rerr)
			}
		}
	}
	if err != nil {
		b.LogError(ctx, err, "Failed to update journal approval", slog.String("journal_id", id.String()))
		return nil, fmt.Errorf("%w: failed to update approval of journal %s: %w", apperrors.ErrPersistence, id, err)
	}

	journal.Approved = approved
	logger.Info("Journal approval updated", slog.String("journal_id", id.String()), slog.Bool("approved", approved))
	return journal, nil
}
