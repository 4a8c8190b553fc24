package services

import (
	"fmt"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/accountpath"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/datefield"
)

// filterFor normalizes a caller query into the store filter for this book.
// Approval and void flags are left for the caller to set.
func (b *Book) filterFor(q domain.Query) (domain.TransactionFilter, error) {
	f := domain.TransactionFilter{
		Book:      b.cfg.Name,
		JournalID: q.JournalID,
		Meta:      q.Meta,
	}
	for _, account := range q.Account {
		segments, err := accountpath.Split(account)
		if err != nil {
			return domain.TransactionFilter{}, fmt.Errorf("invalid account filter: %w", err)
		}
		f.Accounts = append(f.Accounts, segments)
	}
	if t, ok := datefield.Parse(q.StartDate); ok {
		f.Start = &t
	}
	if t, ok := datefield.Parse(q.EndDate); ok {
		f.End = &t
	}
	return f, nil
}

func boolPtr(b bool) *bool { return &b }
