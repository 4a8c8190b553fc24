package mongo

import (
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildFilter(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	approved := true
	journal := primitive.NewObjectID()

	q, err := buildFilter(domain.TransactionFilter{
		Book:      "MyBook",
		JournalID: domain.ID(journal.Hex()),
		Accounts:  [][]string{{"Assets", "Receivable"}},
		Meta:      domain.Meta{"clientId": "12345"},
		Start:     &start,
		Approved:  &approved,
	})
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"book":           "MyBook",
		"_journal":       journal,
		"approved":       true,
		"datetime":       bson.M{"$gte": start},
		"meta.clientId":  "12345",
		"account_path.0": "Assets",
		"account_path.1": "Receivable",
	}, q)
}

func TestBuildFilter_SeveralAccounts(t *testing.T) {
	q, err := buildFilter(domain.TransactionFilter{Accounts: [][]string{{"Assets"}, {"Income", "Rent"}}})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$or": bson.A{
		bson.M{"account_path.0": "Assets"},
		bson.M{"account_path.0": "Income", "account_path.1": "Rent"},
	}}, q)
}

func TestBuildFilter_RejectsForeignJournalID(t *testing.T) {
	_, err := buildFilter(domain.TransactionFilter{JournalID: "not-an-object-id"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestTransactionDoc_RoundTrip(t *testing.T) {
	ref := domain.ID(primitive.NewObjectID().Hex())
	leg := domain.Transaction{
		ID:              domain.ID(primitive.NewObjectID().Hex()),
		JournalID:       domain.ID(primitive.NewObjectID().Hex()),
		Book:            "MyBook",
		AccountPath:     []string{"Assets", "Cash"},
		Accounts:        "Assets:Cash",
		Credit:          decimal.Zero,
		Debit:           decimal.RequireFromString("994.95"),
		Meta:            domain.Meta{"clientId": "1"},
		Datetime:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Approved:        true,
		OriginalJournal: &ref,
	}

	doc, err := toTransactionDoc(leg)
	require.NoError(t, err)
	back, err := doc.toDomain()
	require.NoError(t, err)

	assert.True(t, leg.Debit.Equal(back.Debit))
	assert.True(t, back.Credit.IsZero())
	assert.Equal(t, leg.ID, back.ID)
	assert.Equal(t, leg.JournalID, back.JournalID)
	assert.Equal(t, ref, *back.OriginalJournal)
	assert.Equal(t, "1", back.Meta["clientId"])
}
