package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/integrity"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/config"
	"github.com/SscSPs/bookkeeping_engine/internal/repositories/database/bolt"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const receivableEntries = `
memo: Invoice 1
datetime: 2024-03-01
legs:
  - account: Income
    credit: 500
  - account: Assets:Receivable
    debit: "500"
    meta:
      clientId: "12345"
---
memo: Payment 1
datetime: 2024-03-05
approved: false
legs:
  - account: Assets:Cash
    debit: 500
  - account: Assets:Receivable
    credit: 500
    meta:
      clientId: "12345"
`

func useBoltStore(t *testing.T) {
	t.Helper()
	t.Setenv("LEDGER_STORE", "bolt")
	t.Setenv("BOLT_PATH", filepath.Join(t.TempDir(), "ledger.db"))
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	err := Run(context.Background(), args, strings.NewReader(stdin), &out, io.Discard)
	return out.String(), err
}

func mustExecute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := execute(t, stdin, args...)
	require.NoError(t, err)
	return out
}

func balanceOf(t *testing.T, args ...string) domain.Balance {
	t.Helper()
	var b domain.Balance
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "", append([]string{"balance"}, args...)...)), &b))
	return b
}

func TestCLI_PostApproveAndVoid(t *testing.T) {
	useBoltStore(t)

	var journals []domain.Journal
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, receivableEntries, "post")), &journals))
	require.Len(t, journals, 2)
	assert.True(t, journals[0].Approved)
	assert.False(t, journals[1].Approved)
	payment := journals[1].ID.String()

	b := balanceOf(t, "--account", "Assets:Receivable")
	assert.Equal(t, "500", b.Balance.String(), "pending payment is not counted")
	assert.Equal(t, 1, b.Notes)

	mustExecute(t, "", "approve", payment)
	b = balanceOf(t, "--account", "Assets:Receivable", "--meta", "clientId=12345")
	assert.True(t, b.Balance.IsZero())
	assert.Equal(t, 2, b.Notes)

	var reversal domain.Journal
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "", "void", payment, "wrong", "client")), &reversal))
	require.NotNil(t, reversal.OriginalJournal)
	assert.Equal(t, payment, reversal.OriginalJournal.String())
	assert.Equal(t, "wrong client", reversal.Memo)

	b = balanceOf(t, "--account", "Assets:Receivable")
	assert.Equal(t, "500", b.Balance.String())

	_, err := execute(t, "", "void", payment)
	assert.ErrorIs(t, err, apperrors.ErrJournalAlreadyVoided)
}

func TestCLI_LedgerAndAccounts(t *testing.T) {
	useBoltStore(t)
	mustExecute(t, receivableEntries, "post", "-f", "-")

	var accounts []string
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "", "accounts")), &accounts))
	assert.Equal(t, []string{"Assets", "Assets:Cash", "Assets:Receivable", "Income"}, accounts)

	var ledger struct {
		Results []struct {
			Accounts string          `json:"accounts"`
			Journal  *domain.Journal `json:"journal"`
		} `json:"results"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "", "ledger", "--account", "Assets", "--populate", "journal")), &ledger))
	assert.Equal(t, 1, ledger.Total, "pending legs are hidden by default")
	require.Len(t, ledger.Results, 1)
	require.NotNil(t, ledger.Results[0].Journal)
	assert.Equal(t, "Invoice 1", ledger.Results[0].Journal.Memo)

	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "", "ledger", "--account", "Assets", "--include-pending", "--per-page", "1", "--page", "2")), &ledger))
	assert.Equal(t, 3, ledger.Total)
	assert.Len(t, ledger.Results, 1)
}

func TestCLI_PostRejectsUnbalancedEntry(t *testing.T) {
	useBoltStore(t)

	_, err := execute(t, "legs:\n  - account: Assets\n    debit: 1\n", "post")
	assert.ErrorIs(t, err, apperrors.ErrInvalidJournal)

	var accounts []string
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "", "accounts")), &accounts))
	assert.Empty(t, accounts)
}

func TestCLI_IntegrityRequiresRedis(t *testing.T) {
	useBoltStore(t)

	_, err := execute(t, "", "integrity", "list")
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestCLI_IntegrityList(t *testing.T) {
	useBoltStore(t)
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	integrity.NewRedisReporter(client, "").ReportIntegrityWarning(context.Background(), domain.IntegrityWarning{
		Book:      "MyBook",
		JournalID: "j-1",
		Cause:     "insert failed",
		At:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	var warnings []domain.IntegrityWarning
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "", "integrity", "list")), &warnings))
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.ID("j-1"), warnings[0].JournalID)
}

func TestDecodeEntries(t *testing.T) {
	docs, err := decodeEntries(strings.NewReader(receivableEntries))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Payment 1", docs[1].Memo)
	require.NotNil(t, docs[1].Approved)
	assert.False(t, *docs[1].Approved)
	assert.Equal(t, "12345", docs[0].Legs[1].Meta["clientId"])

	_, err = decodeEntries(strings.NewReader(""))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = decodeEntries(strings.NewReader("legs: [oops"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestEntryDoc_LegAmounts(t *testing.T) {
	useBoltStore(t)

	tests := []struct {
		name string
		doc  string
	}{
		{name: "both sides", doc: "legs:\n  - account: A\n    debit: 1\n    credit: 1\n"},
		{name: "no amount", doc: "legs:\n  - account: A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.doc, "post")
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestOpenRuntime_ReleasesStoreOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	unreachable := mr.Addr()
	mr.Close()

	path := filepath.Join(t.TempDir(), "ledger.db")
	cfg := &config.Config{
		Store:         config.StoreBolt,
		BoltPath:      path,
		RedisAddr:     unreachable,
		EnableDBCheck: true,
	}

	var (
		rt  *runtime
		err error
	)
	require.NotPanics(t, func() {
		rt, err = openRuntime(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})
	require.Error(t, err)
	assert.Nil(t, rt)

	// The file lock must be released, otherwise this open times out.
	s, err := bolt.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestCLI_StartupFailureIsReturned(t *testing.T) {
	useBoltStore(t)
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("ENABLE_DB_CHECK", "true")
	mr.Close()

	_, err := execute(t, "", "accounts")
	assert.Error(t, err)
}
