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

// commitHook is an extra write that must land together with a journal, such as
// marking the original of a reversal voided.
type commitHook struct {
	name string
	// journalID is the existing journal the hook updates.
	journalID domain.ID
	// apply runs before the journal is written, inside the atomic session when
	// the store has one.
	apply func(ctx context.Context, store portsrepo.Store) error
	// revert undoes apply when a non-atomic commit fails afterwards.
	revert func(ctx context.Context, store portsrepo.Store) error
}

// commit stamps identities and timestamps onto the journal and its legs, then
// persists them atomically when the store supports sessions and with
// compensation otherwise.
func (b *Book) commit(ctx context.Context, journal domain.Journal, legs []domain.Transaction, hooks ...commitHook) (*domain.Journal, error) {
	logger := b.GetLogger(ctx)
	timer := b.metrics.StartCommit(b.cfg.Name)

	now := b.now().UTC()
	if journal.Datetime.IsZero() {
		journal.Datetime = now
	}
	journal.ID = b.store.NewID()
	journal.Book = b.cfg.Name
	journal.Voided = false
	journal.VoidReason = ""
	journal.Timestamp = now
	journal.Transactions = make([]domain.ID, len(legs))

	for i := range legs {
		legs[i].ID = b.store.NewID()
		legs[i].JournalID = journal.ID
		legs[i].Book = journal.Book
		legs[i].Datetime = journal.Datetime
		legs[i].Memo = journal.Memo
		legs[i].Approved = journal.Approved
		legs[i].Voided = false
		legs[i].OriginalJournal = journal.OriginalJournal
		legs[i].Timestamp = now
		journal.Transactions[i] = legs[i].ID
	}

	var err error
	if sessioner, ok := b.store.(portsrepo.AtomicSessioner); ok {
		err = b.commitAtomic(ctx, sessioner, journal, legs, hooks)
	} else {
		err = b.commitCompensating(ctx, journal, legs, hooks)
	}
	if err = timer.End(err); err != nil {
		return nil, err
	}

	logger.Info("Journal committed",
		slog.String("journal_id", journal.ID.String()),
		slog.Int("legs", len(legs)),
		slog.Bool("approved", journal.Approved),
	)
	return &journal, nil
}

func (b *Book) commitAtomic(ctx context.Context, sessioner portsrepo.AtomicSessioner, journal domain.Journal, legs []domain.Transaction, hooks []commitHook) error {
	err := sessioner.WithAtomicSession(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		for _, h := range hooks {
			if err := h.apply(ctx, tx); err != nil {
				return err
			}
		}
		if _, err := tx.InsertJournal(ctx, journal); err != nil {
			return err
		}
		if _, err := tx.InsertTransactions(ctx, legs); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		b.LogError(ctx, err, "Atomic journal commit failed", slog.String("journal_id", journal.ID.String()))
		return saveError(err)
	}
	return nil
}

// commitCompensating writes legs first and the journal last, so a reader never
// sees a journal whose legs are missing. Any failure deletes the legs again.
func (b *Book) commitCompensating(ctx context.Context, journal domain.Journal, legs []domain.Transaction, hooks []commitHook) error {
	applied := make([]commitHook, 0, len(hooks))
	for _, h := range hooks {
		if err := h.apply(ctx, b.store); err != nil {
			b.revertHooks(ctx, journal, applied, err)
			b.LogError(ctx, err, "Pre-commit write failed", slog.String("journal_id", journal.ID.String()), slog.String("hook", h.name))
			return saveError(err)
		}
		applied = append(applied, h)
	}

	if _, err := b.store.InsertTransactions(ctx, legs); err != nil {
		b.LogError(ctx, err, "Failed to insert journal legs", slog.String("journal_id", journal.ID.String()))
		b.compensate(ctx, journal, err)
		b.revertHooks(ctx, journal, applied, err)
		return saveError(err)
	}
	if _, err := b.store.InsertJournal(ctx, journal); err != nil {
		b.LogError(ctx, err, "Failed to insert journal", slog.String("journal_id", journal.ID.String()))
		b.compensate(ctx, journal, err)
		b.revertHooks(ctx, journal, applied, err)
		return saveError(err)
	}
	return nil
}

// compensate removes the legs of a journal that failed to persist. It runs on a
// context detached from caller cancellation; when the delete itself fails the
// legs stay behind and an integrity warning is raised instead.
func (b *Book) compensate(ctx context.Context, journal domain.Journal, cause error) {
	ctx = context.WithoutCancel(ctx)
	logger := b.GetLogger(ctx)

	deleted, err := b.store.DeleteTransactionsByJournal(ctx, journal.ID)
	if err == nil {
		b.metrics.Compensated(b.cfg.Name, true)
		logger.Warn("Removed legs of failed journal",
			slog.String("journal_id", journal.ID.String()),
			slog.Int("deleted", deleted),
		)
		return
	}

	b.metrics.Compensated(b.cfg.Name, false)
	b.raiseIntegrityWarning(ctx, domain.WarningStrayLegs, journal.ID, cause, err)
}

// revertHooks undoes applied hooks newest first. A failed revert is reported
// against the journal the hook touched, not the one being committed.
func (b *Book) revertHooks(ctx context.Context, journal domain.Journal, applied []commitHook, cause error) {
	ctx = context.WithoutCancel(ctx)
	for i := len(applied) - 1; i >= 0; i-- {
		h := applied[i]
		if h.revert == nil {
			continue
		}
		if err := h.revert(ctx, b.store); err != nil {
			target := h.journalID
			if target.IsZero() {
				target = journal.ID
			}
			b.raiseIntegrityWarning(ctx, domain.WarningRevertFailed, target, cause, fmt.Errorf("revert %s: %w", h.name, err))
		}
	}
}

func (b *Book) raiseIntegrityWarning(ctx context.Context, kind string, journalID domain.ID, cause, compensationErr error) {
	warning := domain.IntegrityWarning{
		Kind:            kind,
		Book:            b.cfg.Name,
		JournalID:       journalID,
		Cause:           cause.Error(),
		CompensationErr: compensationErr.Error(),
		At:              b.now().UTC(),
	}
	b.metrics.IntegrityWarning(b.cfg.Name)
	b.reporter.ReportIntegrityWarning(ctx, warning)
}

// saveError wraps a store failure. Caller errors raised by hooks (conflicts,
// missing journals) pass through unchanged.
func saveError(err error) error {
	if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: failure to save journal: %w", apperrors.ErrPersistence, err)
}
