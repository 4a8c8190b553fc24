package cmd

import (
	"log/slog"
	"strings"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logging"
	"github.com/spf13/cobra"
)

func newVoidCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "void <journal-id> [reason...]",
		Short: "Reverse a journal and mark it voided",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, logger := logging.WithOperation(cmd.Context(), a.rt.logger, "void")
			id, err := domain.ParseID(args[0])
			if err != nil {
				return err
			}
			book, err := a.rt.book(a.bookName)
			if err != nil {
				return err
			}
			reversal, err := book.Void(ctx, id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			logger.Info("Journal voided", slog.String("journal_id", id.String()), slog.String("reversal_id", reversal.ID.String()))
			return writeJSON(cmd.OutOrStdout(), reversal)
		},
	}
}

func newApproveCmd(a *app) *cobra.Command {
	var pending bool
	c := &cobra.Command{
		Use:   "approve <journal-id>",
		Short: "Approve a pending journal (or put it back to pending)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := logging.WithOperation(cmd.Context(), a.rt.logger, "approve")
			id, err := domain.ParseID(args[0])
			if err != nil {
				return err
			}
			book, err := a.rt.book(a.bookName)
			if err != nil {
				return err
			}
			journal, err := book.SetJournalApproved(ctx, id, !pending)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), journal)
		},
	}
	c.Flags().BoolVar(&pending, "pending", false, "mark the journal pending instead")
	return c
}
