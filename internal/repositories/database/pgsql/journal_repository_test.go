package pgsql

import (
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereClause(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	approved := true

	where, args, err := whereClause(domain.TransactionFilter{
		Book:     "MyBook",
		Approved: &approved,
		Start:    &start,
		Meta:     domain.Meta{"clientId": "12345"},
		Accounts: [][]string{{"Assets"}, {"Income", "Rent"}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"WHERE book = $1 AND approved = $2 AND datetime >= $3 AND meta @> $4::jsonb AND "+
			"(account_path[1:1] = $5::text[] OR account_path[1:2] = $6::text[])",
		where)
	assert.Equal(t, []any{"MyBook", true, start, `{"clientId":"12345"}`, []string{"Assets"}, []string{"Income", "Rent"}}, args)
}

func TestWhereClause_Empty(t *testing.T) {
	where, args, err := whereClause(domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestWindowClause(t *testing.T) {
	assert.Equal(t, " OFFSET 0", windowClause(pagination.Window{}))
	assert.Equal(t, " OFFSET 4 LIMIT 2", windowClause(pagination.Page(3, 2)))
	assert.Equal(t, " OFFSET 2", windowClause(pagination.From(3, 1)))
}

func TestMetaCodec(t *testing.T) {
	b, err := encodeMeta(nil)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = encodeMeta(map[string]any{"clientId": "1"})
	require.NoError(t, err)
	meta, err := decodeMeta(b)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"clientId": "1"}, meta)
}
