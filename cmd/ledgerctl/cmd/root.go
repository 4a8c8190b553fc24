// Package cmd provides the ledgerctl commands.
package cmd

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/SscSPs/bookkeeping_engine/internal/platform/config"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logging"
	"github.com/spf13/cobra"
)

// app carries the flags and runtime shared by every subcommand.
type app struct {
	bookName string
	debug    bool

	rt *runtime
}

func (a *app) close() {
	if a.rt != nil {
		a.rt.Close()
		a.rt = nil
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Double-entry bookkeeping over a pluggable store",
		Long: `ledgerctl records balanced journals and answers balance and ledger
queries against one of the supported stores (memory, bolt, mongo, pgsql).

The store and its connection settings come from the environment or a .env
file (LEDGER_STORE, BOLT_PATH, MONGO_URI, PGSQL_URL, REDIS_ADDR, ...).

Example:
  ledgerctl post -f invoice.yaml
  ledgerctl balance --account Assets:Receivable --meta clientId=12345
  ledgerctl ledger --account Income --populate journal`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if a.debug {
				level = "debug"
			}
			logger := logging.NewLogger(os.Stderr, cfg.LogFormat, level)
			slog.SetDefault(logger)

			rt, err := openRuntime(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("Failed to open ledger store", slog.String("store", cfg.Store), slog.String("error", err.Error()))
				return err
			}
			a.rt = rt
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.bookName, "book", "MyBook", "book (ledger namespace) to operate on")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newPostCmd(a),
		newBalanceCmd(a),
		newLedgerCmd(a),
		newAccountsCmd(a),
		newVoidCmd(a),
		newApproveCmd(a),
		newIntegrityCmd(a),
		newWorkerCmd(a),
	)
	return root
}

// Run executes the command tree with args. The runtime opened for the command
// is released before Run returns, whether or not the command failed.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

// Execute runs ledgerctl against the process arguments. It is called by main.main().
func Execute() error {
	return Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
