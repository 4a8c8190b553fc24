package memory

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeg(s *Store, journalID domain.ID, path []string, accounts string, at time.Time, debit int64) domain.Transaction {
	return domain.Transaction{
		ID:          s.NewID(),
		JournalID:   journalID,
		Book:        "MyBook",
		AccountPath: path,
		Accounts:    accounts,
		Debit:       decimal.NewFromInt(debit),
		Credit:      decimal.Zero,
		Datetime:    at,
		Approved:    true,
	}
}

func TestStore_InsertAndFindJournal(t *testing.T) {
	s := New()
	ctx := context.Background()
	j := domain.Journal{ID: s.NewID(), Book: "MyBook", Datetime: time.Now(), Approved: true}

	id, err := s.InsertJournal(ctx, j)
	require.NoError(t, err)
	assert.Equal(t, j.ID, id)

	_, err = s.InsertJournal(ctx, j)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	got, err := s.FindJournalByID(ctx, id, "MyBook")
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)

	_, err = s.FindJournalByID(ctx, id, "OtherBook")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = s.InsertJournal(ctx, domain.Journal{ID: s.NewID()})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestStore_QueryOrderAndWindow(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	legs := []domain.Transaction{
		newLeg(s, "j1", []string{"Assets", "Cash"}, "Assets:Cash", base, 1),
		newLeg(s, "j2", []string{"Assets", "Cash"}, "Assets:Cash", base.Add(time.Hour), 2),
		newLeg(s, "j3", []string{"Assets", "Bank"}, "Assets:Bank", base.Add(time.Hour), 3),
		newLeg(s, "j4", []string{"Income"}, "Income", base.Add(2*time.Hour), 4),
	}
	_, err := s.InsertTransactions(ctx, legs)
	require.NoError(t, err)

	all, total, err := s.QueryTransactions(ctx, domain.TransactionFilter{Book: "MyBook"}, pagination.Window{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	ids := []domain.ID{all[0].JournalID, all[1].JournalID, all[2].JournalID, all[3].JournalID}
	assert.Equal(t, []domain.ID{"j4", "j3", "j2", "j1"}, ids, "ties go to the later insert")

	page, total, err := s.QueryTransactions(ctx, domain.TransactionFilter{Book: "MyBook"}, pagination.Page(2, 3))
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 1)
	assert.Equal(t, domain.ID("j1"), page[0].JournalID)

	agg, err := s.AggregateBalance(ctx, domain.TransactionFilter{Book: "MyBook", Accounts: [][]string{{"Assets"}}}, pagination.From(2, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Count)
	assert.True(t, agg.Debit.Equal(decimal.NewFromInt(3)), "skips j3, sums j2 and j1")
}

func TestStore_DeleteAndUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	_, err := s.InsertTransactions(ctx, []domain.Transaction{
		newLeg(s, "j1", []string{"A"}, "A", now, 1),
		newLeg(s, "j1", []string{"B"}, "B", now, 1),
		newLeg(s, "j2", []string{"A"}, "A", now, 1),
	})
	require.NoError(t, err)

	pending := false
	require.NoError(t, s.UpdateTransactionsByJournal(ctx, "j2", domain.TransactionUpdate{Approved: &pending}))
	legs, _, err := s.QueryTransactions(ctx, domain.TransactionFilter{JournalID: "j2"}, pagination.Window{})
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.False(t, legs[0].Approved)

	deleted, err := s.DeleteTransactionsByJournal(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	accounts, err := s.DistinctAccounts(ctx, "MyBook")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, accounts)
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	leg := newLeg(s, "j1", []string{"A"}, "A", time.Now(), 1)
	leg.Meta = domain.Meta{"k": "v"}
	_, err := s.InsertTransactions(ctx, []domain.Transaction{leg})
	require.NoError(t, err)

	leg.Meta["k"] = "mutated"
	got, _, err := s.QueryTransactions(ctx, domain.TransactionFilter{}, pagination.Window{})
	require.NoError(t, err)
	assert.Equal(t, "v", got[0].Meta["k"])
}
