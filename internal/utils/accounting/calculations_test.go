package accounting

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "int", in: 500, want: "500"},
		{name: "negative int64", in: int64(-12), want: "-12"},
		{name: "uint32", in: uint32(7), want: "7"},
		{name: "float", in: 994.95, want: "994.95"},
		{name: "float32", in: float32(10.05), want: "10.05"},
		{name: "string", in: "10.05", want: "10.05"},
		{name: "padded string", in: " 1005 ", want: "1005"},
		{name: "json number", in: json.Number("0.1"), want: "0.1"},
		{name: "decimal", in: decimal.RequireFromString("3.333"), want: "3.333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmount_Rejects(t *testing.T) {
	for _, in := range []any{"abc", "", nil, math.NaN(), math.Inf(1), true, []int{1}} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "input %v", in)
	}
}

func TestSum_NoBinaryRoundingLeak(t *testing.T) {
	a, err := ParseAmount(0.1)
	require.NoError(t, err)
	b, err := ParseAmount(0.2)
	require.NoError(t, err)

	assert.Equal(t, "0.3", Sum(8, a, b).String())
}

func TestNetBalance(t *testing.T) {
	debit := decimal.RequireFromString("1005")
	credit := decimal.RequireFromString("994.95").Add(decimal.RequireFromString("10.05"))

	assert.True(t, NetBalance(debit, credit, 8).IsZero())
	assert.Equal(t, "-0.5", NetBalance(decimal.Zero, decimal.RequireFromString("0.5"), 8).String())
	assert.Equal(t, "1", NetBalance(decimal.RequireFromString("0.5"), decimal.Zero, 0).String())
}

func TestValidateJournalBalance(t *testing.T) {
	credits := []decimal.Decimal{decimal.RequireFromString("1005")}
	debits := []decimal.Decimal{decimal.RequireFromString("994.95"), decimal.RequireFromString("10.05")}
	assert.NoError(t, ValidateJournalBalance(credits, debits, 8))

	err := ValidateJournalBalance(credits, debits[:1], 8)
	require.ErrorIs(t, err, apperrors.ErrInvalidJournal)
	assert.Contains(t, err.Error(), "can't commit non zero total")

	// Differences below the book precision round away.
	assert.NoError(t, ValidateJournalBalance(
		[]decimal.Decimal{decimal.RequireFromString("1.001")},
		[]decimal.Decimal{decimal.RequireFromString("1")},
		2,
	))

	err = ValidateJournalBalance(nil, nil, 8)
	require.ErrorIs(t, err, apperrors.ErrInvalidJournal)
	assert.Contains(t, err.Error(), "empty entry")
}

func TestValidateJournalBalance_RoundsTheDifference(t *testing.T) {
	amounts := func(vs ...string) []decimal.Decimal {
		out := make([]decimal.Decimal, 0, len(vs))
		for _, v := range vs {
			out = append(out, decimal.RequireFromString(v))
		}
		return out
	}

	// 1.4 and 0.6 both round to 1 at precision 0, but they are 0.8 apart.
	err := ValidateJournalBalance(amounts("1.4"), amounts("0.6"), 0)
	require.ErrorIs(t, err, apperrors.ErrInvalidJournal)
	assert.Contains(t, err.Error(), "credits 1.4, debits 0.6")

	// 0.5 and 0.4 round apart, yet differ by 0.1 which rounds to 0.
	assert.NoError(t, ValidateJournalBalance(amounts("0.5"), amounts("0.4"), 0))
	assert.NoError(t, ValidateJournalBalance(amounts("0.2", "0.3"), amounts("0.46"), 1))
}

func TestValidateJournalBalance_Empty(t *testing.T) {
	err := ValidateJournalBalance(nil, nil, 8)
	require.ErrorIs(t, err, apperrors.ErrInvalidJournal)
	assert.Contains(t, err.Error(), "empty entry")
}
