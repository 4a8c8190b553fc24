package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"golang.org/x/sync/errgroup"
)

// populateConcurrency bounds the concurrent journal lookups of one ledger read.
const populateConcurrency = 4

// LedgerEntry is one leg of a ledger read. Journal is set when the owning
// journal was populated; Document is set for hydrated reads.
type LedgerEntry struct {
	domain.Transaction
	Journal  *domain.Journal `json:"journal,omitempty"`
	Document *Document       `json:"-"`
}

// LedgerResult is a page of legs and the unpaged match count.
type LedgerResult struct {
	Results []LedgerEntry `json:"results"`
	Total   int           `json:"total"`
}

type ledgerOptions struct {
	populateJournal bool
	hydrated        bool
}

// LedgerOption tunes a ledger read.
type LedgerOption func(*ledgerOptions)

// Populate resolves the named relations inline. "journal" and "_journal" load
// the owning journal; other names are ignored.
func Populate(fields ...string) LedgerOption {
	return func(o *ledgerOptions) {
		for _, f := range fields {
			switch f {
			case "journal", "_journal":
				o.populateJournal = true
			}
		}
	}
}

// Lean returns plain data only. It is the default.
func Lean() LedgerOption {
	return func(o *ledgerOptions) { o.hydrated = false }
}

// Hydrated attaches a Document handle to every entry.
func Hydrated() LedgerOption {
	return func(o *ledgerOptions) { o.hydrated = true }
}

// Ledger returns the legs matching q latest first, windowed by Page and
// PerPage, together with the unwindowed count. Only approved, non-voided legs
// are returned unless q asks for pending or voided ones too.
func (b *Book) Ledger(ctx context.Context, q domain.Query, opts ...LedgerOption) (*LedgerResult, error) {
	var o ledgerOptions
	for _, opt := range opts {
		opt(&o)
	}

	filter, err := b.filterFor(q)
	if err != nil {
		return nil, err
	}
	if !q.IncludePending {
		filter.Approved = boolPtr(true)
	}
	if !q.IncludeVoided {
		filter.Voided = boolPtr(false)
	}

	legs, total, err := b.store.QueryTransactions(ctx, filter, pagination.Page(q.Page, q.PerPage))
	if err != nil {
		b.LogError(ctx, err, "Failed to query ledger", slog.Any("account", q.Account))
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}

	result := &LedgerResult{Results: make([]LedgerEntry, len(legs)), Total: total}
	for i, leg := range legs {
		result.Results[i].Transaction = leg
		if o.hydrated {
			result.Results[i].Document = &Document{book: b, leg: leg}
		}
	}

	if o.populateJournal {
		if err := b.populateJournals(ctx, result.Results); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// populateJournals loads each distinct journal once, a few at a time. A journal
// that no longer resolves leaves the entry unpopulated.
func (b *Book) populateJournals(ctx context.Context, entries []LedgerEntry) error {
	ids := make([]domain.ID, 0)
	index := make(map[domain.ID]int)
	for _, e := range entries {
		if _, ok := index[e.JournalID]; !ok {
			index[e.JournalID] = len(ids)
			ids = append(ids, e.JournalID)
		}
	}

	journals := make([]*domain.Journal, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(populateConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			j, err := b.store.FindJournalByID(gctx, id, b.cfg.Name)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					b.GetLogger(ctx).Warn("Leg references a missing journal", slog.String("journal_id", id.String()))
					return nil
				}
				return fmt.Errorf("failed to populate journal %s: %w", id, err)
			}
			journals[i] = j
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.LogError(ctx, err, "Failed to populate ledger journals")
		return err
	}

	for i := range entries {
		entries[i].Journal = journals[index[entries[i].JournalID]]
	}
	return nil
}

// Document is the hydrated form of a ledger entry: the same data plus a handle
// back to the book for follow-up operations on the owning journal.
type Document struct {
	book portssvc.BookSvcFacade
	leg  domain.Transaction
}

// Transaction returns the leg the document was read as.
func (d *Document) Transaction() domain.Transaction { return d.leg }

// Journal loads the owning journal.
func (d *Document) Journal(ctx context.Context) (*domain.Journal, error) {
	return d.book.FindJournal(ctx, d.leg.JournalID)
}

// SetApproved flips approval on the owning journal and its legs.
func (d *Document) SetApproved(ctx context.Context, approved bool) (*domain.Journal, error) {
	j, err := d.book.SetJournalApproved(ctx, d.leg.JournalID, approved)
	if err != nil {
		return nil, err
	}
	d.leg.Approved = approved
	return j, nil
}

// Void reverses the owning journal.
func (d *Document) Void(ctx context.Context, reason string) (*domain.Journal, error) {
	return d.book.Void(ctx, d.leg.JournalID, reason)
}
