package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/service"
)

func newReconcileCommand(a *app) *cobra.Command {
	var (
		statementPath string
		rosterPath    string
		record        bool
		method        string
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match statement lines to athletes",
		Example: `  aidat reconcile --statement aralik.csv --roster sporcular.csv
  aidat reconcile --statement aralik.csv --roster sporcular.csv --record --method havale`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if statementPath == "" || rosterPath == "" {
				return errors.New("--statement and --roster are required")
			}
			ctx := ctxOf(cmd)
			rows, err := a.readStatement(statementPath)
			if err != nil {
				return err
			}
			athletes, err := a.readRoster(rosterPath)
			if err != nil {
				return err
			}

			results := a.reconciler.Reconcile(ctx, rows, athletes)
			out := cmd.OutOrStdout()
			printTitle(out, fmt.Sprintf("Reconciled %d statement lines", len(results)))
			renderTable(out, []string{"#", "Date", "Amount", "Description", "Athlete", "Score", "Source"}, a.resultRows(results))

			s := a.reconciler.Summarize(results)
			fmt.Fprintf(out, "%s  %s  %s  %s  %s\n",
				successStyle.Render(fmt.Sprintf("historical %d", s.Historical)),
				infoStyle.Render(fmt.Sprintf("computed %d", s.Computed)),
				infoStyle.Render(fmt.Sprintf("manual %d", s.Manual)),
				errorStyle.Render(fmt.Sprintf("unmatched %d", s.Unmatched)),
				warningStyle.Render(fmt.Sprintf("review %d", s.NeedsReview)),
			)

			if !record {
				return nil
			}
			res, err := a.duplicates.ImportPayments(ctx, service.ToPayments(results, method))
			if err != nil {
				return err
			}
			printImport(out, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&statementPath, "statement", "", "bank statement CSV (date, description, amount[, reference])")
	cmd.Flags().StringVar(&rosterPath, "roster", "", "athlete roster CSV")
	cmd.Flags().BoolVar(&record, "record", false, "record matched lines as payments after duplicate checks")
	cmd.Flags().StringVar(&method, "method", "havale", "payment method stored with recorded payments")
	return cmd
}

func (a *app) resultRows(results []domain.MatchResult) [][]string {
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		athlete := mutedStyle.Render("unmatched")
		score := mutedStyle.Render("0")
		if r.Matched() {
			athlete = r.AthleteName
			if athlete == "" {
				athlete = r.AthleteID
			}
			if r.IsSiblingPayment {
				athlete += dimStyle.Render(fmt.Sprintf(" +%d", len(r.SiblingIDs)))
			}
			score = formatScore(r.Similarity, a.cfg.Matching.MatchThreshold, a.cfg.Matching.ReviewThreshold)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatDate(r.Row),
			formatAmount(r.Row.Amount),
			truncate(r.Row.Description, descriptionWidth),
			athlete,
			score,
			orDash(string(r.Provenance)),
		})
	}
	return rows
}
