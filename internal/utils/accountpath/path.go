// Package accountpath parses colon-delimited account identifiers such as
// "Assets:Receivable:USD" and answers hierarchy questions about them.
package accountpath

import (
	"fmt"
	"strings"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
)

// Separator delimits the segments of an account path.
const Separator = ":"

// Split breaks a path into its segments without enforcing a depth limit.
// An empty path or an empty segment is a validation error.
func Split(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: account path is empty", apperrors.ErrValidation)
	}
	segments := strings.Split(path, Separator)
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: account path %q has an empty segment", apperrors.ErrValidation, path)
		}
	}
	return segments, nil
}

// Parse splits path and rejects it when it has more than maxDepth segments.
func Parse(path string, maxDepth int) ([]string, error) {
	segments, err := Split(path)
	if err != nil {
		return nil, err
	}
	if len(segments) > maxDepth {
		return nil, fmt.Errorf("%w (maximum %d)", apperrors.ErrPathTooDeep, maxDepth)
	}
	return segments, nil
}

// Join is the inverse of Split.
func Join(segments []string) string {
	return strings.Join(segments, Separator)
}

// HasPrefix reports whether prefix is path itself or one of its ancestors.
// Matching is segment-wise: X:Y matches X:Y:AUD but not X:Yield.
func HasPrefix(path, prefix []string) bool {
	if len(prefix) == 0 || len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Ancestors returns every prefix of the path, shortest first, including the
// path itself. X:Y:AUD yields X, X:Y and X:Y:AUD.
func Ancestors(segments []string) []string {
	out := make([]string, 0, len(segments))
	for i := 1; i <= len(segments); i++ {
		out = append(out, Join(segments[:i]))
	}
	return out
}
