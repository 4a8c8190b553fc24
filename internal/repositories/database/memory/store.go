// Package memory is an in-process Store. It has no atomic sessions, so commits
// against it go through the compensation path.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"github.com/google/uuid"
)

// Store keeps journals and legs in maps guarded by a mutex.
type Store struct {
	mu       sync.RWMutex
	journals map[domain.ID]domain.Journal
	legs     []domain.Transaction // insertion order
}

var _ portsrepo.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{journals: make(map[domain.ID]domain.Journal)}
}

func (s *Store) NewID() domain.ID {
	return domain.ID(uuid.NewString())
}

func (s *Store) InsertJournal(_ context.Context, journal domain.Journal) (domain.ID, error) {
	if err := journal.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.journals[journal.ID]; ok {
		return "", fmt.Errorf("%w: journal %s", apperrors.ErrDuplicate, journal.ID)
	}
	journal.Transactions = slices.Clone(journal.Transactions)
	s.journals[journal.ID] = journal
	return journal.ID, nil
}

func (s *Store) InsertTransactions(_ context.Context, legs []domain.Transaction) ([]domain.ID, error) {
	if err := domain.ValidateTransactions(legs); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]domain.ID, len(legs))
	for i, leg := range legs {
		leg.AccountPath = slices.Clone(leg.AccountPath)
		leg.Meta = leg.Meta.Clone()
		s.legs = append(s.legs, leg)
		ids[i] = leg.ID
	}
	return ids, nil
}

func (s *Store) DeleteTransactionsByJournal(_ context.Context, journalID domain.ID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.legs)
	s.legs = slices.DeleteFunc(s.legs, func(t domain.Transaction) bool {
		return t.JournalID == journalID
	})
	return before - len(s.legs), nil
}

func (s *Store) FindJournalByID(_ context.Context, id domain.ID, book string) (*domain.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.journals[id]
	if !ok || j.Book != book {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
	}
	j.Transactions = slices.Clone(j.Transactions)
	return &j, nil
}

func (s *Store) UpdateJournal(_ context.Context, id domain.ID, book string, update domain.JournalUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.journals[id]
	if !ok || j.Book != book {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
	}
	update.Apply(&j)
	s.journals[id] = j
	return nil
}

func (s *Store) UpdateTransactionsByJournal(_ context.Context, journalID domain.ID, update domain.TransactionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.legs {
		if s.legs[i].JournalID == journalID {
			update.Apply(&s.legs[i])
		}
	}
	return nil
}

// matching returns copies of the legs f matches, latest first; among equal
// datetimes and timestamps the later insert comes first.
func (s *Store) matching(f domain.TransactionFilter) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Transaction, 0)
	for i := len(s.legs) - 1; i >= 0; i-- {
		if f.Matches(s.legs[i]) {
			leg := s.legs[i]
			leg.AccountPath = slices.Clone(leg.AccountPath)
			leg.Meta = leg.Meta.Clone()
			out = append(out, leg)
		}
	}
	domain.SortLatestFirst(out)
	return out
}

func (s *Store) AggregateBalance(_ context.Context, f domain.TransactionFilter, w pagination.Window) (domain.Aggregate, error) {
	legs := s.matching(f)
	start, end := w.Apply(len(legs))
	var agg domain.Aggregate
	for _, leg := range legs[start:end] {
		agg.Add(leg)
	}
	return agg, nil
}

func (s *Store) QueryTransactions(_ context.Context, f domain.TransactionFilter, w pagination.Window) ([]domain.Transaction, int, error) {
	legs := s.matching(f)
	start, end := w.Apply(len(legs))
	return legs[start:end], len(legs), nil
}

func (s *Store) DistinctAccounts(_ context.Context, book string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, leg := range s.legs {
		if leg.Book != book {
			continue
		}
		if _, ok := seen[leg.Accounts]; ok {
			continue
		}
		seen[leg.Accounts] = struct{}{}
		out = append(out, leg.Accounts)
	}
	return out, nil
}

// Journals returns every stored journal of book. Tests use it to assert that a
// failed commit left nothing behind.
func (s *Store) Journals(book string) []domain.Journal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Journal, 0)
	for _, j := range s.journals {
		if j.Book == book {
			out = append(out, j)
		}
	}
	return out
}
