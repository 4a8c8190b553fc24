package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/core/ports"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logging"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list warnings are pushed onto.
const DefaultRedisKey = "ledger:integrity:warnings"

// RedisReporter pushes warnings onto a Redis list so operators can pick them up
// from any process. Newest warnings sit at the head of the list.
type RedisReporter struct {
	client redis.UniversalClient
	key    string
}

var _ ports.IntegrityReporter = (*RedisReporter)(nil)

// NewRedisReporter constructs a reporter; an empty key uses DefaultRedisKey.
func NewRedisReporter(client redis.UniversalClient, key string) *RedisReporter {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisReporter{client: client, key: key}
}

// ReportIntegrityWarning stores the warning. Failures are logged, never
// returned, since the caller is already handling a failed commit.
func (r *RedisReporter) ReportIntegrityWarning(ctx context.Context, w domain.IntegrityWarning) {
	logger := logging.FromContext(ctx)
	body, err := json.Marshal(w)
	if err != nil {
		logger.Error("Failed to encode integrity warning", slog.String("journal_id", w.JournalID.String()), slog.String("error", err.Error()))
		return
	}
	if err := r.client.LPush(context.WithoutCancel(ctx), r.key, body).Err(); err != nil {
		logger.Error("Failed to push integrity warning", slog.String("journal_id", w.JournalID.String()), slog.String("error", err.Error()))
	}
}

// Pending returns up to limit stored warnings, newest first. limit <= 0 returns
// all of them.
func (r *RedisReporter) Pending(ctx context.Context, limit int) ([]domain.IntegrityWarning, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := r.client.LRange(ctx, r.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read integrity warnings: %w", err)
	}
	out := make([]domain.IntegrityWarning, 0, len(raw))
	for _, item := range raw {
		var w domain.IntegrityWarning
		if err := json.Unmarshal([]byte(item), &w); err != nil {
			return nil, fmt.Errorf("failed to decode integrity warning: %w", err)
		}
		out = append(out, w)
	}
	return out, nil
}

// Resolve removes a handled warning from the list.
func (r *RedisReporter) Resolve(ctx context.Context, w domain.IntegrityWarning) error {
	body, err := json.Marshal(w)
	if err != nil {
		return err
	}
	if err := r.client.LRem(ctx, r.key, 1, body).Err(); err != nil {
		return fmt.Errorf("failed to resolve integrity warning: %w", err)
	}
	return nil
}
