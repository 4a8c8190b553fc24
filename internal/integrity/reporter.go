// Package integrity delivers ledger consistency warnings to operators.
package integrity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/core/ports"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logging"
)

// LogReporter writes warnings to the structured log at error level.
type LogReporter struct {
	Logger *slog.Logger // nil uses the logger in ctx
}

var _ ports.IntegrityReporter = (*LogReporter)(nil)

func (r *LogReporter) ReportIntegrityWarning(ctx context.Context, w domain.IntegrityWarning) {
	logger := r.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	logger.Error(w.Message(),
		slog.String("kind", w.Kind),
		slog.String("book", w.Book),
		slog.String("journal_id", w.JournalID.String()),
		slog.String("cause", w.Cause),
		slog.String("error", w.CompensationErr),
	)
}

// Multi fans a warning out to several reporters in order.
type Multi []ports.IntegrityReporter

var _ ports.IntegrityReporter = Multi(nil)

func (m Multi) ReportIntegrityWarning(ctx context.Context, w domain.IntegrityWarning) {
	for _, r := range m {
		if r != nil {
			r.ReportIntegrityWarning(ctx, w)
		}
	}
}

// Recorder keeps warnings in memory. Tests and embedders that poll use it.
type Recorder struct {
	mu       sync.Mutex
	warnings []domain.IntegrityWarning
}

var _ ports.IntegrityReporter = (*Recorder)(nil)

func (r *Recorder) ReportIntegrityWarning(_ context.Context, w domain.IntegrityWarning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, w)
}

// Warnings returns what has been reported so far.
func (r *Recorder) Warnings() []domain.IntegrityWarning {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.IntegrityWarning(nil), r.warnings...)
}
