package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logging"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue reconcile tasks are sent to.
	QueueDefault = "default"
	// TaskReconcileJournal removes legs left behind by a failed compensation.
	TaskReconcileJournal = "ledger:reconcile_journal"
)

// ReconcileJournalPayload identifies the journal whose stray legs should go.
type ReconcileJournalPayload struct {
	Book      string    `json:"book"`
	JournalID domain.ID `json:"journal_id"`
	Cause     string    `json:"cause,omitempty"`
}

// NewReconcileJournalTask constructs an Asynq task from an integrity warning.
// Only stray-leg warnings can be reconciled.
func NewReconcileJournalTask(warning domain.IntegrityWarning) (*asynq.Task, error) {
	if !warning.Reconcilable() {
		return nil, fmt.Errorf("%w: %s warning for journal %s can't be reconciled", apperrors.ErrValidation, warning.Kind, warning.JournalID)
	}
	body, err := json.Marshal(ReconcileJournalPayload{
		Book:      warning.Book,
		JournalID: warning.JournalID,
		Cause:     warning.Cause,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileJournal, body, asynq.Queue(QueueDefault)), nil
}

// Reconciler deletes the legs of journals that never made it to the store.
type Reconciler struct {
	store portsrepo.Store
}

// NewReconciler constructs a Reconciler over store.
func NewReconciler(store portsrepo.Store) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile removes every leg of journalID when the journal itself is absent
// from book. Legs of a journal that exists are never touched, so running it
// twice, or against a healthy journal, is harmless.
func (r *Reconciler) Reconcile(ctx context.Context, book string, journalID domain.ID) (int, error) {
	logger := logging.FromContext(ctx)

	_, err := r.store.FindJournalByID(ctx, journalID, book)
	if err == nil {
		logger.Info("Journal exists, nothing to reconcile", slog.String("book", book), slog.String("journal_id", journalID.String()))
		return 0, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return 0, fmt.Errorf("failed to look up journal %s: %w", journalID, err)
	}

	deleted, err := r.store.DeleteTransactionsByJournal(ctx, journalID)
	if err != nil {
		logger.Error("Failed to delete stray legs", slog.String("journal_id", journalID.String()), slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to delete legs of journal %s: %w", journalID, err)
	}

	logger.Info("Removed stray legs", slog.String("book", book), slog.String("journal_id", journalID.String()), slog.Int("deleted", deleted))
	return deleted, nil
}

// HandleReconcileJournalTask processes TaskReconcileJournal tasks.
func (r *Reconciler) HandleReconcileJournalTask(ctx context.Context, t *asynq.Task) error {
	var payload ReconcileJournalPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.JournalID.IsZero() || payload.Book == "" {
		return asynq.SkipRetry
	}
	_, err := r.Reconcile(ctx, payload.Book, payload.JournalID)
	return err
}
