package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand(&app{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "aidat",
		Short: "Match bank statement lines to athletes and keep the payment ledger clean",
		Long: `aidat reconciles bank statement exports against the athlete roster of a
sports school, remembers confirmed matches, and refuses duplicate payments
before they reach the ledger.`,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "sqlite database path (overrides database.path)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newReconcileCommand(a),
		newMemoryCommand(a),
		newDedupCommand(a),
		newResetCommand(a),
		newDemoCommand(),
	)
	return root
}
