package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/accounting"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/accountpath"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/datefield"
	"github.com/shopspring/decimal"
)

// Entry accumulates the legs of one journal until Commit. An Entry belongs to a
// single caller and is not safe for concurrent use.
type Entry struct {
	book      *Book
	journal   domain.Journal
	legs      []domain.Transaction
	err       error
	committed bool
}

// EntryOption configures a new Entry.
type EntryOption func(*Entry)

// WithDatetime sets the effective datetime. Anything the date normalizer can't
// read leaves the default, which is the commit-time clock.
func WithDatetime(v any) EntryOption {
	return func(e *Entry) {
		if t, ok := datefield.Parse(v); ok {
			e.journal.Datetime = t
		}
	}
}

// WithOriginalJournal marks the entry as a reversal of ref, which may be a
// domain.ID, a *domain.ID or its string form.
func WithOriginalJournal(ref any) EntryOption {
	return func(e *Entry) {
		switch v := ref.(type) {
		case nil:
		case domain.ID:
			e.journal.OriginalJournal = domain.IDPtr(v)
		case *domain.ID:
			if v != nil {
				e.journal.OriginalJournal = domain.IDPtr(*v)
			}
		case string:
			if strings.TrimSpace(v) == "" {
				return
			}
			id, err := domain.ParseID(v)
			if err != nil {
				e.fail(err)
				return
			}
			e.journal.OriginalJournal = &id
		default:
			e.fail(fmt.Errorf("%w: unsupported original journal reference %T", apperrors.ErrValidation, ref))
		}
	}
}

// Entry starts a new journal entry with the given memo.
func (b *Book) Entry(memo string, opts ...EntryOption) *Entry {
	e := &Entry{
		book: b,
		journal: domain.Journal{
			Book:     b.cfg.Name,
			Memo:     memo,
			Approved: true,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Credit adds a credit leg on path. An invalid path or amount is rejected here:
// no leg is added and the error is available from Err right away (and is
// returned by Commit). Check Err after adding legs to fail early.
func (e *Entry) Credit(path string, amount any, meta domain.Meta) *Entry {
	return e.add(path, amount, meta, true)
}

// Debit adds a debit leg on path. Errors are reported as for Credit.
func (e *Entry) Debit(path string, amount any, meta domain.Meta) *Entry {
	return e.add(path, amount, meta, false)
}

// SetApproved overrides the approval state of the whole entry. Pending entries
// are stored but excluded from balances until approved.
func (e *Entry) SetApproved(approved bool) *Entry {
	e.journal.Approved = approved
	return e
}

// Err returns the first error raised while building the entry.
func (e *Entry) Err() error { return e.err }

// Legs returns a copy of the pending legs.
func (e *Entry) Legs() []domain.Transaction {
	return append([]domain.Transaction(nil), e.legs...)
}

func (e *Entry) add(path string, amount any, meta domain.Meta, credit bool) *Entry {
	if e.err != nil {
		return e
	}
	segments, err := accountpath.Parse(path, e.book.cfg.MaxAccountPath)
	if err != nil {
		e.fail(err)
		return e
	}
	value, err := accounting.ParseAmount(amount)
	if err != nil {
		e.fail(err)
		return e
	}

	leg := domain.Transaction{
		AccountPath: segments,
		Accounts:    accountpath.Join(segments),
		Credit:      decimal.Zero,
		Debit:       decimal.Zero,
		Meta:        meta,
	}
	if credit {
		leg.Credit = value
	} else {
		leg.Debit = value
	}
	e.legs = append(e.legs, leg)
	return e
}

func (e *Entry) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Commit validates that the entry nets to zero at book precision and persists
// it. Build errors are returned without touching the store. An entry commits at
// most once, whatever the outcome of the first attempt.
func (e *Entry) Commit(ctx context.Context) (*domain.Journal, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.committed {
		return nil, fmt.Errorf("%w: entry already committed", apperrors.ErrConflict)
	}

	credits := make([]decimal.Decimal, 0, len(e.legs))
	debits := make([]decimal.Decimal, 0, len(e.legs))
	for _, leg := range e.legs {
		credits = append(credits, leg.Credit)
		debits = append(debits, leg.Debit)
	}
	if err := accounting.ValidateJournalBalance(credits, debits, e.book.cfg.Precision); err != nil {
		return nil, err
	}

	e.committed = true
	return e.book.commit(ctx, e.journal, e.Legs())
}
