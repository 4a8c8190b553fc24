package accounting

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// ParseAmount coerces a caller-supplied amount into a signed decimal.
// Accepted inputs are the integer and float kinds, numeric strings, json.Number
// and decimal.Decimal. Floats go through their shortest decimal representation
// so 994.95 stays 994.95 rather than its binary approximation.
func ParseAmount(v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, nil
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, fmt.Errorf("%w: amount is nil", apperrors.ErrValidation)
		}
		return *val, nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int8:
		return decimal.NewFromInt(int64(val)), nil
	case int16:
		return decimal.NewFromInt(int64(val)), nil
	case int32:
		return decimal.NewFromInt32(val), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case uint:
		return decimal.NewFromUint64(uint64(val)), nil
	case uint8:
		return decimal.NewFromUint64(uint64(val)), nil
	case uint16:
		return decimal.NewFromUint64(uint64(val)), nil
	case uint32:
		return decimal.NewFromUint64(uint64(val)), nil
	case uint64:
		return decimal.NewFromUint64(val), nil
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return decimal.Zero, fmt.Errorf("%w: amount %v is not a finite number", apperrors.ErrValidation, val)
		}
		return decimal.NewFromFloat32(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero, fmt.Errorf("%w: amount %v is not a finite number", apperrors.ErrValidation, val)
		}
		return decimal.NewFromFloat(val), nil
	case json.Number:
		return parseAmountString(val.String())
	case string:
		return parseAmountString(val)
	case nil:
		return decimal.Zero, fmt.Errorf("%w: amount is nil", apperrors.ErrValidation)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported amount type %T", apperrors.ErrValidation, v)
	}
}

func parseAmountString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not numeric", apperrors.ErrValidation, s)
	}
	return d, nil
}

// Round rounds d half away from zero to the given number of fractional digits.
func Round(d decimal.Decimal, precision int) decimal.Decimal {
	return d.Round(int32(precision))
}

// Sum adds amounts in decimal space and rounds the result to precision.
func Sum(precision int, amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Round(total, precision)
}

// NetBalance is debit minus credit at the given precision.
func NetBalance(debit, credit decimal.Decimal, precision int) decimal.Decimal {
	return Round(debit.Sub(credit), precision)
}

// ValidateJournalBalance checks that credits and debits net to zero once the
// difference of the raw sums is rounded to precision.
func ValidateJournalBalance(credits, debits []decimal.Decimal, precision int) error {
	if len(credits)+len(debits) == 0 {
		return fmt.Errorf("%w: can't commit empty entry", apperrors.ErrInvalidJournal)
	}

	creditSum := decimal.Sum(decimal.Zero, credits...)
	debitSum := decimal.Sum(decimal.Zero, debits...)

	if !Round(creditSum.Sub(debitSum), precision).IsZero() {
		return fmt.Errorf("%w: can't commit non zero total (credits %s, debits %s)",
			apperrors.ErrInvalidJournal, creditSum.String(), debitSum.String())
	}
	return nil
}
