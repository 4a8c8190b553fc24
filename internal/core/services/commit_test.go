package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/core/services"
	"github.com/SscSPs/bookkeeping_engine/internal/integrity"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockStore is a mock type for a store that supports atomic sessions
type MockStore struct {
	mock.Mock
	ids int
}

var (
	_ portsrepo.Store           = (*MockStore)(nil)
	_ portsrepo.AtomicSessioner = (*MockStore)(nil)
)

// --- Implement mock methods for Store ---

func (m *MockStore) NewID() domain.ID {
	m.ids++
	return domain.ID(fmt.Sprintf("id-%d", m.ids))
}

func (m *MockStore) WithAtomicSession(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Store) error) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

func (m *MockStore) FindJournalByID(ctx context.Context, id domain.ID, book string) (*domain.Journal, error) {
	args := m.Called(ctx, id, book)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockStore) InsertJournal(ctx context.Context, journal domain.Journal) (domain.ID, error) {
	args := m.Called(ctx, journal)
	return journal.ID, args.Error(0)
}

func (m *MockStore) UpdateJournal(ctx context.Context, id domain.ID, book string, update domain.JournalUpdate) error {
	args := m.Called(ctx, id, book, update)
	return args.Error(0)
}

func (m *MockStore) AggregateBalance(ctx context.Context, f domain.TransactionFilter, w pagination.Window) (domain.Aggregate, error) {
	args := m.Called(ctx, f, w)
	return args.Get(0).(domain.Aggregate), args.Error(1)
}

func (m *MockStore) QueryTransactions(ctx context.Context, f domain.TransactionFilter, w pagination.Window) ([]domain.Transaction, int, error) {
	args := m.Called(ctx, f, w)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Int(1), args.Error(2)
}

func (m *MockStore) DistinctAccounts(ctx context.Context, book string) ([]string, error) {
	args := m.Called(ctx, book)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) InsertTransactions(ctx context.Context, legs []domain.Transaction) ([]domain.ID, error) {
	args := m.Called(ctx, legs)
	ids := make([]domain.ID, len(legs))
	for i, leg := range legs {
		ids[i] = leg.ID
	}
	return ids, args.Error(0)
}

func (m *MockStore) DeleteTransactionsByJournal(ctx context.Context, journalID domain.ID) (int, error) {
	args := m.Called(ctx, journalID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) UpdateTransactionsByJournal(ctx context.Context, journalID domain.ID, update domain.TransactionUpdate) error {
	args := m.Called(ctx, journalID, update)
	return args.Error(0)
}

// --- Test Suite Setup ---

type AtomicCommitTestSuite struct {
	suite.Suite
	ctx       context.Context
	mockStore *MockStore
	recorder  *integrity.Recorder
	book      *services.Book
}

func (suite *AtomicCommitTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.mockStore = new(MockStore)
	suite.recorder = &integrity.Recorder{}
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	book, err := services.NewBook("Atomic", suite.mockStore,
		services.WithIntegrityReporter(suite.recorder),
		services.WithClock(func() time.Time { return fixed }),
	)
	suite.Require().NoError(err)
	suite.book = book
}

func TestAtomicCommitTestSuite(t *testing.T) {
	suite.Run(t, new(AtomicCommitTestSuite))
}

// --- Test Cases ---

func (suite *AtomicCommitTestSuite) TestCommit_Success() {
	suite.mockStore.On("WithAtomicSession", mock.Anything).Return(nil).Once()
	suite.mockStore.On("InsertJournal", mock.Anything, mock.MatchedBy(func(j domain.Journal) bool {
		return j.Book == "Atomic" && j.Memo == "rent" && len(j.Transactions) == 2
	})).Return(nil).Once()
	suite.mockStore.On("InsertTransactions", mock.Anything, mock.MatchedBy(func(legs []domain.Transaction) bool {
		return len(legs) == 2 && legs[0].JournalID == legs[1].JournalID && legs[0].Accounts == "Assets:Cash"
	})).Return(nil).Once()

	journal, err := suite.book.Entry("rent").
		Debit("Assets:Cash", 10, nil).
		Credit("Income:Rent", 10, nil).
		Commit(suite.ctx)

	suite.Require().NoError(err)
	suite.Equal("rent", journal.Memo)
	suite.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), journal.Datetime)
	suite.mockStore.AssertExpectations(suite.T())
}

func (suite *AtomicCommitTestSuite) TestCommit_SessionFailureSkipsCompensation() {
	dbErr := errors.New("transaction aborted")
	suite.mockStore.On("WithAtomicSession", mock.Anything).Return(nil).Once()
	suite.mockStore.On("InsertJournal", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockStore.On("InsertTransactions", mock.Anything, mock.Anything).Return(dbErr).Once()

	_, err := suite.book.Entry("rent").
		Debit("Assets:Cash", 10, nil).
		Credit("Income:Rent", 10, nil).
		Commit(suite.ctx)

	suite.Require().ErrorIs(err, apperrors.ErrPersistence)
	suite.ErrorIs(err, dbErr)
	suite.mockStore.AssertNotCalled(suite.T(), "DeleteTransactionsByJournal", mock.Anything, mock.Anything)
	suite.Empty(suite.recorder.Warnings())
	suite.mockStore.AssertExpectations(suite.T())
}

func (suite *AtomicCommitTestSuite) TestVoid_MarksOriginalInsideSession() {
	original := &domain.Journal{
		ID:           "orig",
		Book:         "Atomic",
		Memo:         "rent",
		Approved:     true,
		Transactions: []domain.ID{"leg-2", "leg-1"},
	}
	legs := []domain.Transaction{
		{ID: "leg-1", JournalID: "orig", AccountPath: []string{"Assets", "Cash"}, Accounts: "Assets:Cash", Debit: decimalOf(10), Approved: true},
		{ID: "leg-2", JournalID: "orig", AccountPath: []string{"Income"}, Accounts: "Income", Credit: decimalOf(10), Approved: true},
	}
	reason := "[VOID] rent"

	suite.mockStore.On("FindJournalByID", mock.Anything, domain.ID("orig"), "Atomic").Return(original, nil).Twice()
	suite.mockStore.On("QueryTransactions", mock.Anything, mock.MatchedBy(func(f domain.TransactionFilter) bool {
		return f.JournalID == "orig" && f.Book == "Atomic"
	}), pagination.Window{}).Return(legs, 2, nil).Once()
	suite.mockStore.On("WithAtomicSession", mock.Anything).Return(nil).Once()
	suite.mockStore.On("UpdateJournal", mock.Anything, domain.ID("orig"), "Atomic", domain.JournalUpdate{
		Voided:     boolPtr(true),
		VoidReason: &reason,
	}).Return(nil).Once()
	suite.mockStore.On("InsertJournal", mock.Anything, mock.MatchedBy(func(j domain.Journal) bool {
		return j.OriginalJournal != nil && *j.OriginalJournal == "orig" && j.Memo == reason
	})).Return(nil).Once()
	suite.mockStore.On("InsertTransactions", mock.Anything, mock.MatchedBy(func(mirrored []domain.Transaction) bool {
		// Mirrored legs follow the journal's own order.
		return len(mirrored) == 2 &&
			mirrored[0].Accounts == "Income" && mirrored[0].Debit.Equal(decimalOf(10)) &&
			mirrored[1].Accounts == "Assets:Cash" && mirrored[1].Credit.Equal(decimalOf(10))
	})).Return(nil).Once()

	reversal, err := suite.book.Void(suite.ctx, "orig", "")

	suite.Require().NoError(err)
	suite.Equal(reason, reversal.Memo)
	suite.True(reversal.Approved)
	suite.mockStore.AssertExpectations(suite.T())
}

func (suite *AtomicCommitTestSuite) TestVoid_ConcurrentVoidLosesInsideSession() {
	first := &domain.Journal{ID: "orig", Book: "Atomic", Memo: "rent", Approved: true, Transactions: []domain.ID{"leg-1"}}
	voided := &domain.Journal{ID: "orig", Book: "Atomic", Memo: "rent", Approved: true, Voided: true}
	legs := []domain.Transaction{{ID: "leg-1", JournalID: "orig", AccountPath: []string{"A"}, Accounts: "A", Debit: decimalOf(1)}}

	suite.mockStore.On("FindJournalByID", mock.Anything, domain.ID("orig"), "Atomic").Return(first, nil).Once()
	suite.mockStore.On("FindJournalByID", mock.Anything, domain.ID("orig"), "Atomic").Return(voided, nil).Once()
	suite.mockStore.On("QueryTransactions", mock.Anything, mock.Anything, mock.Anything).Return(legs, 1, nil).Once()
	suite.mockStore.On("WithAtomicSession", mock.Anything).Return(nil).Once()

	_, err := suite.book.Void(suite.ctx, "orig", "")

	suite.ErrorIs(err, apperrors.ErrJournalAlreadyVoided)
	suite.mockStore.AssertNotCalled(suite.T(), "InsertJournal", mock.Anything, mock.Anything)
}

func (suite *AtomicCommitTestSuite) TestSetJournalApproved_UsesSession() {
	pending := &domain.Journal{ID: "orig", Book: "Atomic", Approved: false}
	suite.mockStore.On("FindJournalByID", mock.Anything, domain.ID("orig"), "Atomic").Return(pending, nil).Once()
	suite.mockStore.On("WithAtomicSession", mock.Anything).Return(nil).Once()
	suite.mockStore.On("UpdateJournal", mock.Anything, domain.ID("orig"), "Atomic", domain.JournalUpdate{Approved: boolPtr(true)}).Return(nil).Once()
	suite.mockStore.On("UpdateTransactionsByJournal", mock.Anything, domain.ID("orig"), domain.TransactionUpdate{Approved: boolPtr(true)}).
		Return(errors.New("write conflict")).Once()

	_, err := suite.book.SetJournalApproved(suite.ctx, "orig", true)

	suite.ErrorIs(err, apperrors.ErrPersistence)
	suite.Empty(suite.recorder.Warnings(), "the session rolls back, nothing to reconcile")
	suite.mockStore.AssertExpectations(suite.T())
}

func (suite *AtomicCommitTestSuite) TestLedger_PopulateSkipsMissingJournal() {
	legs := []domain.Transaction{
		{ID: "leg-1", JournalID: "gone", Accounts: "A", AccountPath: []string{"A"}, Approved: true},
		{ID: "leg-2", JournalID: "here", Accounts: "A", AccountPath: []string{"A"}, Approved: true},
		{ID: "leg-3", JournalID: "here", Accounts: "B", AccountPath: []string{"B"}, Approved: true},
	}
	suite.mockStore.On("QueryTransactions", mock.Anything, mock.Anything, pagination.Window{}).Return(legs, 3, nil).Once()
	suite.mockStore.On("FindJournalByID", mock.Anything, domain.ID("gone"), "Atomic").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockStore.On("FindJournalByID", mock.Anything, domain.ID("here"), "Atomic").Return(&domain.Journal{ID: "here", Memo: "kept"}, nil).Once()

	res, err := suite.book.Ledger(suite.ctx, domain.Query{}, services.Populate("journal"))

	suite.Require().NoError(err)
	suite.Nil(res.Results[0].Journal)
	suite.Equal("kept", res.Results[1].Journal.Memo)
	suite.Same(res.Results[1].Journal, res.Results[2].Journal, "a journal is loaded once per read")
	suite.mockStore.AssertExpectations(suite.T())
}

func boolPtr(b bool) *bool { return &b }

func decimalOf(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
