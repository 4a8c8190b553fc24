package cmd

import (
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/core/services"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logging"
	"github.com/spf13/cobra"
)

// queryFlags are the filters shared by balance and ledger.
type queryFlags struct {
	accounts  []string
	journalID string
	meta      map[string]string
	start     string
	end       string
	page      int
	perPage   int
}

func (f *queryFlags) register(c *cobra.Command) {
	c.Flags().StringSliceVar(&f.accounts, "account", nil, "account path or prefix (repeatable)")
	c.Flags().StringVar(&f.journalID, "journal", "", "only legs of this journal")
	c.Flags().StringToStringVar(&f.meta, "meta", nil, "meta key=value that legs must carry (repeatable)")
	c.Flags().StringVar(&f.start, "start", "", "inclusive lower datetime bound")
	c.Flags().StringVar(&f.end, "end", "", "inclusive upper datetime bound")
	c.Flags().IntVar(&f.page, "page", 0, "1-based page number")
	c.Flags().IntVar(&f.perPage, "per-page", 0, "page size (0 = unbounded)")
}

func (f *queryFlags) query() domain.Query {
	q := domain.Query{
		Account:   f.accounts,
		JournalID: domain.ID(f.journalID),
		Page:      f.page,
		PerPage:   f.perPage,
	}
	if len(f.meta) > 0 {
		q.Meta = make(domain.Meta, len(f.meta))
		for k, v := range f.meta {
			q.Meta[k] = v
		}
	}
	if f.start != "" {
		q.StartDate = f.start
	}
	if f.end != "" {
		q.EndDate = f.end
	}
	return q
}

func newBalanceCmd(a *app) *cobra.Command {
	var flags queryFlags
	c := &cobra.Command{
		Use:   "balance",
		Short: "Print debit minus credit over the matching approved legs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := logging.WithOperation(cmd.Context(), a.rt.logger, "balance")
			book, err := a.rt.book(a.bookName)
			if err != nil {
				return err
			}
			balance, err := book.Balance(ctx, flags.query())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), balance)
		},
	}
	flags.register(c)
	return c
}

func newLedgerCmd(a *app) *cobra.Command {
	var (
		flags          queryFlags
		populate       []string
		includePending bool
		includeVoided  bool
	)
	c := &cobra.Command{
		Use:   "ledger",
		Short: "List matching legs, latest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := logging.WithOperation(cmd.Context(), a.rt.logger, "ledger")
			book, err := a.rt.book(a.bookName)
			if err != nil {
				return err
			}
			q := flags.query()
			q.IncludePending = includePending
			q.IncludeVoided = includeVoided

			result, err := book.Ledger(ctx, q, services.Lean(), services.Populate(populate...))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	flags.register(c)
	c.Flags().StringSliceVar(&populate, "populate", nil, `relations to resolve inline ("journal")`)
	c.Flags().BoolVar(&includePending, "include-pending", false, "include legs of unapproved journals")
	c.Flags().BoolVar(&includeVoided, "include-voided", false, "include legs of voided journals")
	return c
}

func newAccountsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List every account path in the book, ancestors included",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := logging.WithOperation(cmd.Context(), a.rt.logger, "accounts")
			book, err := a.rt.book(a.bookName)
			if err != nil {
				return err
			}
			accounts, err := book.ListAccounts(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), accounts)
		},
	}
}
