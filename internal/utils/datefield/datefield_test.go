package datefield_test

import (
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/utils/datefield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PassesThroughTimes(t *testing.T) {
	now := time.Now()

	parsed, ok := datefield.Parse(now)
	require.True(t, ok)
	assert.True(t, now.Equal(parsed))

	parsed, ok = datefield.Parse(&now)
	require.True(t, ok)
	assert.True(t, now.Equal(parsed))
}

func TestParse_NumbersAreEpochMillis(t *testing.T) {
	for _, in := range []any{50, int64(50), float64(50), "50"} {
		parsed, ok := datefield.Parse(in)
		require.True(t, ok, "input %v", in)
		assert.Equal(t, int64(50), parsed.UnixMilli(), "input %v", in)
	}
}

func TestParse_DateStrings(t *testing.T) {
	date := time.UnixMilli(1639577227000).UTC()

	parsed, ok := datefield.Parse(date.Format(time.RFC1123))
	require.True(t, ok)
	assert.Equal(t, date.UnixMilli(), parsed.UnixMilli())

	parsed, ok = datefield.Parse("2024-03-01")
	require.True(t, ok)
	assert.Equal(t, 2024, parsed.Year())
	assert.Equal(t, time.March, parsed.Month())
}

func TestParse_Unparseable(t *testing.T) {
	var nilTime *time.Time
	for _, in := range []any{true, nil, nilTime, "", "not a date", struct{}{}} {
		_, ok := datefield.Parse(in)
		assert.False(t, ok, "input %v", in)
	}
}
