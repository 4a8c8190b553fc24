// Package storetest holds the behaviour every Store implementation shares,
// packaged as a testify suite each backend runs against itself.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Book is the book every fixture is written to.
const Book = "StoreSuite"

// StoreSuite checks a Store against the contract the engine relies on.
// NewStore must return an empty store; it is called before every test.
type StoreSuite struct {
	suite.Suite
	NewStore func(t *testing.T) portsrepo.Store

	ctx   context.Context
	store portsrepo.Store
	base  time.Time
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore(s.T())
	s.base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

// entry writes a journal with one debit and one credit leg of amount.
func (s *StoreSuite) entry(at time.Time, debit, credit string, amount int64, meta domain.Meta) domain.Journal {
	s.T().Helper()
	j := domain.Journal{
		ID:       s.store.NewID(),
		Book:     Book,
		Memo:     "entry",
		Datetime: at,
		Approved: true,
	}
	legs := []domain.Transaction{
		s.leg(j, debit, decimal.NewFromInt(amount), decimal.Zero, meta),
		s.leg(j, credit, decimal.Zero, decimal.NewFromInt(amount), nil),
	}
	for _, leg := range legs {
		j.Transactions = append(j.Transactions, leg.ID)
	}
	_, err := s.store.InsertTransactions(s.ctx, legs)
	s.Require().NoError(err)
	_, err = s.store.InsertJournal(s.ctx, j)
	s.Require().NoError(err)
	return j
}

func (s *StoreSuite) leg(j domain.Journal, accounts string, debit, credit decimal.Decimal, meta domain.Meta) domain.Transaction {
	path := splitPath(accounts)
	return domain.Transaction{
		ID:          s.store.NewID(),
		JournalID:   j.ID,
		Book:        j.Book,
		AccountPath: path,
		Accounts:    accounts,
		Debit:       debit,
		Credit:      credit,
		Meta:        meta,
		Datetime:    j.Datetime,
		Memo:        j.Memo,
		Approved:    j.Approved,
		Timestamp:   s.base,
	}
}

func splitPath(accounts string) []string {
	var out []string
	start := 0
	for i := 0; i < len(accounts); i++ {
		if accounts[i] == ':' {
			out = append(out, accounts[start:i])
			start = i + 1
		}
	}
	return append(out, accounts[start:])
}

func (s *StoreSuite) query(f domain.TransactionFilter, w pagination.Window) ([]domain.Transaction, int) {
	s.T().Helper()
	if f.Book == "" {
		f.Book = Book
	}
	legs, total, err := s.store.QueryTransactions(s.ctx, f, w)
	s.Require().NoError(err)
	return legs, total
}

func (s *StoreSuite) TestJournalRoundTrip() {
	ref := domain.ID("some-original")
	j := domain.Journal{
		ID:              s.store.NewID(),
		Book:            Book,
		Memo:            "round trip",
		Datetime:        s.base,
		Approved:        true,
		OriginalJournal: &ref,
		Transactions:    []domain.ID{s.store.NewID(), s.store.NewID()},
		Timestamp:       s.base.Add(time.Second),
	}
	id, err := s.store.InsertJournal(s.ctx, j)
	s.Require().NoError(err)
	s.Equal(j.ID, id)

	got, err := s.store.FindJournalByID(s.ctx, id, Book)
	s.Require().NoError(err)
	s.Equal(j.Memo, got.Memo)
	s.True(j.Datetime.Equal(got.Datetime))
	s.Equal(j.Transactions, got.Transactions)
	s.Require().NotNil(got.OriginalJournal)
	s.Equal(ref, *got.OriginalJournal)

	_, err = s.store.FindJournalByID(s.ctx, id, "AnotherBook")
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.store.InsertJournal(s.ctx, j)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *StoreSuite) TestFindJournal_Unknown() {
	_, err := s.store.FindJournalByID(s.ctx, s.store.NewID(), Book)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreSuite) TestInsert_RejectsInvalidRecords() {
	_, err := s.store.InsertJournal(s.ctx, domain.Journal{ID: s.store.NewID(), Book: Book})
	s.ErrorIs(err, apperrors.ErrValidation)

	bad := domain.Transaction{ID: s.store.NewID(), JournalID: "j", Book: Book, Datetime: s.base}
	_, err = s.store.InsertTransactions(s.ctx, []domain.Transaction{bad})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, total := s.query(domain.TransactionFilter{}, pagination.Window{})
	s.Zero(total)
}

func (s *StoreSuite) TestQuery_LatestFirstWithInsertionTieBreak() {
	first := s.entry(s.base, "Assets:Cash", "Income", 1, nil)
	second := s.entry(s.base, "Assets:Cash", "Income", 2, nil)
	older := s.entry(s.base.Add(-time.Hour), "Assets:Cash", "Income", 3, nil)

	legs, total := s.query(domain.TransactionFilter{Accounts: [][]string{{"Assets"}}}, pagination.Window{})
	s.Equal(3, total)
	s.Require().Len(legs, 3)
	s.Equal(second.ID, legs[0].JournalID)
	s.Equal(first.ID, legs[1].JournalID)
	s.Equal(older.ID, legs[2].JournalID)
}

func (s *StoreSuite) TestQuery_Window() {
	for i := int64(1); i <= 5; i++ {
		s.entry(s.base.Add(time.Duration(i)*time.Minute), "Assets", "Income", i, nil)
	}

	legs, total := s.query(domain.TransactionFilter{Accounts: [][]string{{"Assets"}}}, pagination.Page(2, 2))
	s.Equal(5, total)
	s.Require().Len(legs, 2)
	s.True(legs[0].Debit.Equal(decimal.NewFromInt(3)))
	s.True(legs[1].Debit.Equal(decimal.NewFromInt(2)))

	legs, total = s.query(domain.TransactionFilter{Accounts: [][]string{{"Assets"}}}, pagination.Page(4, 2))
	s.Equal(5, total)
	s.Empty(legs)
}

func (s *StoreSuite) TestQuery_AccountPrefixIsSegmentWise() {
	s.entry(s.base, "X:Y:AUD", "Cash", 1, nil)
	s.entry(s.base, "X:Yield", "Cash", 1, nil)
	s.entry(s.base, "X:Y", "Cash", 1, nil)

	_, total := s.query(domain.TransactionFilter{Accounts: [][]string{{"X", "Y"}}}, pagination.Window{})
	s.Equal(2, total)

	_, total = s.query(domain.TransactionFilter{Accounts: [][]string{{"X"}}}, pagination.Window{})
	s.Equal(3, total)

	_, total = s.query(domain.TransactionFilter{Accounts: [][]string{{"X", "Y", "AUD"}, {"Cash"}}}, pagination.Window{})
	s.Equal(4, total)
}

func (s *StoreSuite) TestQuery_MetaAndDates() {
	s.entry(s.base, "Assets", "Income", 1, domain.Meta{"clientId": "12345", "seq": 7})
	s.entry(s.base.Add(48*time.Hour), "Assets", "Income", 2, domain.Meta{"clientId": "other"})

	_, total := s.query(domain.TransactionFilter{Meta: domain.Meta{"clientId": "12345"}}, pagination.Window{})
	s.Equal(1, total)

	_, total = s.query(domain.TransactionFilter{Meta: domain.Meta{"seq": 7.0}}, pagination.Window{})
	s.Equal(1, total, "numbers compare by value")

	start := s.base
	end := s.base.Add(47 * time.Hour)
	_, total = s.query(domain.TransactionFilter{Start: &start, End: &end}, pagination.Window{})
	s.Equal(2, total, "bounds are inclusive")

	end = s.base.Add(48 * time.Hour)
	start = end
	legs, total := s.query(domain.TransactionFilter{Start: &start, End: &end, Meta: domain.Meta{"clientId": "other"}}, pagination.Window{})
	s.Equal(1, total)
	s.True(legs[0].Debit.Equal(decimal.NewFromInt(2)))
}

func (s *StoreSuite) TestAggregate() {
	s.entry(s.base, "Assets:Receivable", "Income", 700, nil)
	s.entry(s.base.Add(time.Minute), "Assets:Receivable", "Income", 500, nil)

	f := domain.TransactionFilter{Book: Book, Accounts: [][]string{{"Assets"}}}
	agg, err := s.store.AggregateBalance(s.ctx, f, pagination.Window{})
	s.Require().NoError(err)
	s.Equal(2, agg.Count)
	s.True(agg.Debit.Equal(decimal.NewFromInt(1200)))
	s.True(agg.Credit.IsZero())

	agg, err = s.store.AggregateBalance(s.ctx, f, pagination.From(2, 1))
	s.Require().NoError(err)
	s.Equal(1, agg.Count)
	s.True(agg.Debit.Equal(decimal.NewFromInt(700)))

	agg, err = s.store.AggregateBalance(s.ctx, f, pagination.From(3, 1))
	s.Require().NoError(err)
	s.Zero(agg.Count)
	s.True(agg.Debit.IsZero())
}

func (s *StoreSuite) TestFlags() {
	j := s.entry(s.base, "Assets", "Income", 1, nil)
	yes, no := true, false

	err := s.store.UpdateTransactionsByJournal(s.ctx, j.ID, domain.TransactionUpdate{Approved: &no})
	s.Require().NoError(err)
	_, total := s.query(domain.TransactionFilter{Approved: &yes}, pagination.Window{})
	s.Zero(total)

	reason := "because"
	err = s.store.UpdateJournal(s.ctx, j.ID, Book, domain.JournalUpdate{Voided: &yes, VoidReason: &reason})
	s.Require().NoError(err)
	got, err := s.store.FindJournalByID(s.ctx, j.ID, Book)
	s.Require().NoError(err)
	s.True(got.Voided)
	s.Equal("because", got.VoidReason)
	s.True(got.Approved, "fields absent from the update are untouched")

	err = s.store.UpdateJournal(s.ctx, j.ID, "AnotherBook", domain.JournalUpdate{Voided: &yes})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreSuite) TestDeleteTransactionsByJournal() {
	gone := s.entry(s.base, "Assets", "Income", 1, nil)
	kept := s.entry(s.base, "Assets", "Income", 2, nil)

	n, err := s.store.DeleteTransactionsByJournal(s.ctx, gone.ID)
	s.Require().NoError(err)
	s.Equal(2, n)

	legs, total := s.query(domain.TransactionFilter{}, pagination.Window{})
	s.Equal(2, total)
	for _, leg := range legs {
		s.Equal(kept.ID, leg.JournalID)
	}

	n, err = s.store.DeleteTransactionsByJournal(s.ctx, gone.ID)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *StoreSuite) TestQuery_ByJournal() {
	j := s.entry(s.base, "Assets", "Income", 1, nil)
	s.entry(s.base, "Assets", "Income", 2, nil)

	legs, total := s.query(domain.TransactionFilter{JournalID: j.ID}, pagination.Window{})
	s.Equal(2, total)
	ids := []domain.ID{legs[0].ID, legs[1].ID}
	s.ElementsMatch(j.Transactions, ids)
}

func (s *StoreSuite) TestDistinctAccounts() {
	s.entry(s.base, "Assets:Cash", "Income:Rent", 1, nil)
	s.entry(s.base, "Assets:Cash", "Income:Fees", 1, nil)

	accounts, err := s.store.DistinctAccounts(s.ctx, Book)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"Assets:Cash", "Income:Rent", "Income:Fees"}, accounts)

	accounts, err = s.store.DistinctAccounts(s.ctx, "AnotherBook")
	s.Require().NoError(err)
	s.Empty(accounts)
}

func (s *StoreSuite) TestAtomicSession_RollsBack() {
	sessioner, ok := s.store.(portsrepo.AtomicSessioner)
	if !ok {
		s.T().Skip("store has no atomic sessions")
	}
	boom := errors.New("boom")
	var journalID domain.ID

	err := sessioner.WithAtomicSession(s.ctx, func(ctx context.Context, tx portsrepo.Store) error {
		j := domain.Journal{ID: tx.NewID(), Book: Book, Datetime: s.base, Approved: true}
		journalID = j.ID
		leg := s.leg(j, "Assets", decimal.NewFromInt(1), decimal.Zero, nil)
		if _, err := tx.InsertTransactions(ctx, []domain.Transaction{leg}); err != nil {
			return err
		}
		if _, err := tx.InsertJournal(ctx, j); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindJournalByID(s.ctx, journalID, Book)
	s.ErrorIs(err, apperrors.ErrNotFound)
	_, total := s.query(domain.TransactionFilter{}, pagination.Window{})
	s.Zero(total)
}

func (s *StoreSuite) TestAtomicSession_Commits() {
	sessioner, ok := s.store.(portsrepo.AtomicSessioner)
	if !ok {
		s.T().Skip("store has no atomic sessions")
	}
	j := domain.Journal{ID: s.store.NewID(), Book: Book, Datetime: s.base, Approved: true}
	leg := s.leg(j, "Assets", decimal.NewFromInt(1), decimal.Zero, nil)
	j.Transactions = []domain.ID{leg.ID}

	err := sessioner.WithAtomicSession(s.ctx, func(ctx context.Context, tx portsrepo.Store) error {
		if _, err := tx.InsertTransactions(ctx, []domain.Transaction{leg}); err != nil {
			return err
		}
		_, err := tx.InsertJournal(ctx, j)
		return err
	})
	s.Require().NoError(err)

	_, err = s.store.FindJournalByID(s.ctx, j.ID, Book)
	s.NoError(err)
	_, total := s.query(domain.TransactionFilter{}, pagination.Window{})
	s.Equal(1, total)
}
