package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/jobs"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logging"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
)

var errNoRedis = fmt.Errorf("%w: REDIS_ADDR is required", apperrors.ErrConfiguration)

func newIntegrityCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "integrity",
		Short: "Inspect and retry failed compensations",
	}
	c.AddCommand(newIntegrityListCmd(a), newIntegrityRequeueCmd(a))
	return c
}

func newIntegrityListCmd(a *app) *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "list",
		Short: "Print pending integrity warnings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.rt.warnings == nil {
				return errNoRedis
			}
			warnings, err := a.rt.warnings.Pending(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), warnings)
		},
	}
	c.Flags().IntVar(&limit, "limit", 0, "maximum number of warnings (0 = all)")
	return c
}

func newIntegrityRequeueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue",
		Short: "Schedule a reconcile task for every pending stray-legs warning and clear it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.rt.warnings == nil {
				return errNoRedis
			}
			ctx, logger := logging.WithOperation(cmd.Context(), a.rt.logger, "integrity.requeue")

			warnings, err := a.rt.warnings.Pending(ctx, 0)
			if err != nil {
				return err
			}
			client := jobs.NewClient(asynq.RedisClientOpt{Addr: a.rt.cfg.RedisAddr})
			defer client.Close()

			var errs []error
			queued, reconcilable := 0, 0
			for _, w := range warnings {
				if !w.Reconcilable() {
					logger.Warn("Skipping warning that needs an operator", slog.String("journal_id", w.JournalID.String()), slog.String("kind", w.Kind))
					continue
				}
				reconcilable++
				info, err := client.EnqueueReconcile(ctx, w)
				if err != nil {
					logger.Error("Failed to enqueue reconcile task", slog.String("journal_id", w.JournalID.String()), slog.String("error", err.Error()))
					errs = append(errs, err)
					continue
				}
				if err := a.rt.warnings.Resolve(ctx, w); err != nil {
					errs = append(errs, err)
					continue
				}
				logger.Info("Requeued integrity warning", slog.String("journal_id", w.JournalID.String()), slog.String("task_id", info.ID))
				queued++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requeued %d of %d reconcilable warnings (%d pending in total)\n", queued, reconcilable, len(warnings))
			return errors.Join(errs...)
		},
	}
}
