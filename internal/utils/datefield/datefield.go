// Package datefield turns the loosely typed date inputs accepted by entries and
// query filters into timestamps.
package datefield

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Parse returns the timestamp represented by v and whether v could be
// understood at all:
//   - time.Time (or a non-nil *time.Time) passes through unchanged;
//   - integers, floats and strings made only of digits are epoch milliseconds;
//   - any other string goes through general date-string parsing;
//   - every other input yields ok == false.
//
// ok == false means "no date supplied", not an error.
func Parse(v any) (t time.Time, ok bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, true
	case int:
		return time.UnixMilli(int64(val)), true
	case int32:
		return time.UnixMilli(int64(val)), true
	case int64:
		return time.UnixMilli(val), true
	case uint:
		return time.UnixMilli(int64(val)), true
	case uint32:
		return time.UnixMilli(int64(val)), true
	case uint64:
		return time.UnixMilli(int64(val)), true
	case float32:
		return fromFloat(float64(val))
	case float64:
		return fromFloat(val)
	case json.Number:
		return fromString(val.String())
	case string:
		return fromString(val)
	default:
		return time.Time{}, false
	}
}

func fromFloat(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(f)), true
}

func fromString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if isDigits(s) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	}
	parsed, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
