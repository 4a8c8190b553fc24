package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/SscSPs/bookkeeping_engine/internal/utils/accountpath"
)

// ListAccounts returns every account path used by a leg in the book together
// with all of its ancestors, without duplicates. The result is sorted for
// convenience only.
func (b *Book) ListAccounts(ctx context.Context) ([]string, error) {
	paths, err := b.store.DistinctAccounts(ctx, b.cfg.Name)
	if err != nil {
		b.LogError(ctx, err, "Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	seen := make(map[string]struct{}, len(paths))
	accounts := make([]string, 0, len(paths))
	for _, path := range paths {
		segments, err := accountpath.Split(path)
		if err != nil {
			b.GetLogger(ctx).Warn("Skipping malformed account path", slog.String("path", path))
			continue
		}
		for _, ancestor := range accountpath.Ancestors(segments) {
			if _, ok := seen[ancestor]; ok {
				continue
			}
			seen[ancestor] = struct{}{}
			accounts = append(accounts, ancestor)
		}
	}
	slices.Sort(accounts)
	return accounts, nil
}
