package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
)

const voidMemoPrefix = "[VOID] "

// voidLocks serializes voids of one journal within the process on stores
// without atomic sessions, where the voided check and the update are separate
// calls. Processes sharing such a store can still void the same journal twice.
var voidLocks keyedMutex

// Void reverses a committed journal. It commits a new journal whose legs mirror
// the original's with credit and debit swapped, then marks the original voided
// with the reversal memo as its void reason. The original's legs are left as
// they are, so the pair nets to zero in every balance.
func (b *Book) Void(ctx context.Context, id domain.ID, reason string) (*domain.Journal, error) {
	logger := b.GetLogger(ctx)

	if _, atomic := b.store.(portsrepo.AtomicSessioner); !atomic {
		defer voidLocks.lock(b.cfg.Name + "\x00" + id.String())()
	}

	original, err := b.FindJournal(ctx, id)
	if err != nil {
		return nil, err
	}
	if original.Voided {
		return nil, apperrors.ErrJournalAlreadyVoided
	}

	legs, _, err := b.store.QueryTransactions(ctx, domain.TransactionFilter{Book: b.cfg.Name, JournalID: id}, pagination.Window{})
	if err != nil {
		b.LogError(ctx, err, "Failed to load journal legs", slog.String("journal_id", id.String()))
		return nil, fmt.Errorf("failed to load legs of journal %s: %w", id, err)
	}
	ordered := inJournalOrder(original, legs)

	memo := reason
	if memo == "" {
		memo = voidMemoPrefix + original.Memo
	}

	entry := b.Entry(memo, WithOriginalJournal(original.ID)).SetApproved(original.Approved)
	for _, leg := range ordered {
		entry.legs = append(entry.legs, leg.Mirror())
	}
	if len(entry.legs) == 0 {
		return nil, fmt.Errorf("%w: journal %s has no legs to reverse", apperrors.ErrInvalidJournal, id)
	}
	entry.committed = true

	markVoided := commitHook{
		name:      "mark original voided",
		journalID: id,
		apply: func(ctx context.Context, store portsrepo.Store) error {
			// Re-read inside the session so two concurrent voids can't both win.
			current, err := b.findJournal(ctx, store, id)
			if err != nil {
				return err
			}
			if current.Voided {
				return apperrors.ErrJournalAlreadyVoided
			}
			return store.UpdateJournal(ctx, id, b.cfg.Name, domain.JournalUpdate{
				Voided:     boolPtr(true),
				VoidReason: &memo,
			})
		},
		revert: func(ctx context.Context, store portsrepo.Store) error {
			empty := ""
			return store.UpdateJournal(ctx, id, b.cfg.Name, domain.JournalUpdate{
				Voided:     boolPtr(false),
				VoidReason: &empty,
			})
		},
	}

	reversal, err := b.commit(ctx, entry.journal, entry.Legs(), markVoided)
	if err != nil {
		return nil, err
	}

	b.metrics.Voided(b.cfg.Name)
	logger.Info("Journal voided",
		slog.String("journal_id", id.String()),
		slog.String("reversal_id", reversal.ID.String()),
	)
	return reversal, nil
}

// inJournalOrder returns legs in the order the journal lists them. Legs the
// journal doesn't list (there should be none) keep their query order at the end.
func inJournalOrder(journal *domain.Journal, legs []domain.Transaction) []domain.Transaction {
	byID := make(map[domain.ID]domain.Transaction, len(legs))
	for _, leg := range legs {
		byID[leg.ID] = leg
	}
	out := make([]domain.Transaction, 0, len(legs))
	for _, legID := range journal.Transactions {
		if leg, ok := byID[legID]; ok {
			out = append(out, leg)
			delete(byID, legID)
		}
	}
	for _, leg := range legs {
		if _, ok := byID[leg.ID]; ok {
			out = append(out, leg)
		}
	}
	return out
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// lock blocks until key is free and returns its unlock func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
