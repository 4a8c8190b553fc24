package integrity

import (
	"context"
	"log/slog"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/core/ports"
	"github.com/SscSPs/bookkeeping_engine/internal/jobs"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logging"
	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the queue reporter needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueReporter schedules a reconcile task for every warning so stray legs are
// cleaned up once the store is healthy again.
type QueueReporter struct {
	enqueuer Enqueuer
	opts     []asynq.Option
}

var _ ports.IntegrityReporter = (*QueueReporter)(nil)

// NewQueueReporter constructs a reporter; opts are passed to every enqueue
// (e.g. asynq.ProcessIn to give the store time to recover).
func NewQueueReporter(enqueuer Enqueuer, opts ...asynq.Option) *QueueReporter {
	return &QueueReporter{enqueuer: enqueuer, opts: opts}
}

func (r *QueueReporter) ReportIntegrityWarning(ctx context.Context, w domain.IntegrityWarning) {
	logger := logging.FromContext(ctx)
	if !w.Reconcilable() {
		logger.Warn("Integrity warning needs an operator, not queued", slog.String("journal_id", w.JournalID.String()), slog.String("kind", w.Kind))
		return
	}
	task, err := jobs.NewReconcileJournalTask(w)
	if err != nil {
		logger.Error("Failed to build reconcile task", slog.String("journal_id", w.JournalID.String()), slog.String("error", err.Error()))
		return
	}
	info, err := r.enqueuer.EnqueueContext(context.WithoutCancel(ctx), task, r.opts...)
	if err != nil {
		logger.Error("Failed to enqueue reconcile task", slog.String("journal_id", w.JournalID.String()), slog.String("error", err.Error()))
		return
	}
	logger.Info("Enqueued reconcile task", slog.String("journal_id", w.JournalID.String()), slog.String("task_id", info.ID))
}
