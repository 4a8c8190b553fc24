package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/accounting"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
)

// Balance returns debit minus credit over the approved, non-voided legs that
// match q, rounded to book precision.
//
// With PerPage set, matches are ordered latest first, the newest
// (Page-1)*PerPage of them are skipped and everything older is summed. Paging
// through a balance therefore walks back in time: page 1 is the current
// balance, page 2 the balance before the latest PerPage legs, and so on.
func (b *Book) Balance(ctx context.Context, q domain.Query) (domain.Balance, error) {
	filter, err := b.filterFor(q)
	if err != nil {
		return domain.Balance{}, err
	}
	filter.Approved = boolPtr(true)
	filter.Voided = boolPtr(false)

	agg, err := b.store.AggregateBalance(ctx, filter, pagination.From(q.Page, q.PerPage))
	if err != nil {
		b.LogError(ctx, err, "Failed to aggregate balance", slog.Any("account", q.Account))
		return domain.Balance{}, fmt.Errorf("failed to aggregate balance: %w", err)
	}

	return domain.Balance{
		Balance: accounting.NetBalance(agg.Debit, agg.Credit, b.cfg.Precision),
		Notes: agg.Count,
	}, nil
}
