package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
)

// ID is an opaque record identifier allocated by the store. Stores back it with
// whatever primitive they use natively (UUIDs, ObjectIDs); the engine only ever
// compares and prints it.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }

// ParseID accepts the string form of an ID.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty id", apperrors.ErrValidation)
	}
	return ID(s), nil
}

// IDPtr returns a pointer to id, or nil when id is zero.
func IDPtr(id ID) *ID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// Meta is the caller-supplied payload carried on a leg. The engine never
// interprets it beyond equality filters.
type Meta map[string]any

// Clone returns a shallow copy so mirrored legs don't alias the original map.
func (m Meta) Clone() Meta {
	if m == nil {
		return nil
	}
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
