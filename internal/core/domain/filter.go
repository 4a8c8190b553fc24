package domain

import (
	"cmp"
	"encoding/json"
	"reflect"
	"slices"
	"time"
)

// Query is the caller-facing filter grammar shared by balance and ledger reads.
type Query struct {
	// Account lists paths; a leg matches on exact equality or when the path is a
	// segment-wise prefix of the leg's path.
	Account   []string
	JournalID ID
	// Meta keys must equal the leg's meta values (clientId is just a key).
	Meta Meta
	// StartDate and EndDate are inclusive bounds and accept anything the date
	// normalizer understands. Unparseable bounds are ignored.
	StartDate any
	EndDate   any
	Page      int // 1-based
	PerPage   int // 0 = unbounded

	IncludeVoided  bool // ledger only
	IncludePending bool // ledger only
}

// TransactionFilter is the normalized, store-facing form of a Query.
type TransactionFilter struct {
	Book      string
	Accounts  [][]string
	JournalID ID
	Meta      Meta
	Start     *time.Time
	End       *time.Time
	Approved  *bool
	Voided    *bool
}

// Matches evaluates the filter against a leg. In-process stores use it directly;
// database stores translate the same rules into their query language.
func (f TransactionFilter) Matches(t Transaction) bool {
	if f.Book != "" && t.Book != f.Book {
		return false
	}
	if !f.JournalID.IsZero() && t.JournalID != f.JournalID {
		return false
	}
	if f.Approved != nil && t.Approved != *f.Approved {
		return false
	}
	if f.Voided != nil && t.Voided != *f.Voided {
		return false
	}
	if f.Start != nil && t.Datetime.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.Datetime.After(*f.End) {
		return false
	}
	if len(f.Accounts) > 0 && !matchesAnyAccount(t.AccountPath, f.Accounts) {
		return false
	}
	for k, want := range f.Meta {
		got, ok := t.Meta[k]
		if !ok || !MetaValueEqual(got, want) {
			return false
		}
	}
	return true
}

func matchesAnyAccount(path []string, accounts [][]string) bool {
	for _, prefix := range accounts {
		if len(prefix) == 0 || len(prefix) > len(path) {
			continue
		}
		if slices.Equal(path[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}

// MetaValueEqual compares two meta values. Numbers compare by value regardless
// of their Go kind, since decoded documents turn ints into float64 or int64.
func MetaValueEqual(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// SortLatestFirst orders legs by datetime descending, then commit timestamp
// descending. The sort is stable so callers can settle remaining ties by
// feeding legs in reverse insertion order.
func SortLatestFirst(legs []Transaction) {
	slices.SortStableFunc(legs, func(a, b Transaction) int {
		if c := b.Datetime.Compare(a.Datetime); c != 0 {
			return c
		}
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})
}
