package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/service"
)

func newDedupCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Inspect and clean duplicate payments",
	}
	cmd.AddCommand(newDedupCheckCommand(a), newDedupStatsCommand(a), newDedupCleanupCommand(a))
	return cmd
}

func newDedupCheckCommand(a *app) *cobra.Command {
	var statementPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a statement export for repeats and already recorded payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if statementPath == "" {
				return errors.New("--statement is required")
			}
			rows, err := a.readStatement(statementPath)
			if err != nil {
				return err
			}
			res := a.duplicates.CheckExcelImportDuplicates(rows, a.ledger.Payments(ctxOf(cmd)))

			out := cmd.OutOrStdout()
			printTitle(out, fmt.Sprintf("%d lines: %d unique, %d duplicates, %d to confirm", len(rows), len(res.Unique), len(res.Duplicates), len(res.Warnings)))
			renderTable(out, findingHeaders, findingRows(res.Duplicates))
			if len(res.Warnings) > 0 {
				fmt.Fprintln(out, warningStyle.Render("Same date and amount, confirm by hand:"))
				renderTable(out, findingHeaders, findingRows(res.Warnings))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&statementPath, "statement", "", "bank statement CSV")
	return cmd
}

var findingHeaders = []string{"Line", "Date", "Amount", "Description", "Reason", "Against"}

func findingRows(findings []service.ImportFinding) [][]string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		against := "-"
		switch {
		case f.Existing != nil:
			against = idStyle.Render(f.Existing.ID)
		case f.FirstIndex >= 0:
			against = "line " + strconv.Itoa(f.FirstIndex+1)
		}
		rows = append(rows, []string{
			strconv.Itoa(f.Index + 1),
			formatDate(f.Row),
			formatAmount(f.Row.Amount),
			truncate(f.Row.Description, descriptionWidth),
			f.Reason,
			against,
		})
	}
	return rows
}

func newDedupStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show fingerprint collisions in the payment ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats := a.duplicates.DuplicateStatistics(ctxOf(cmd))
			out := cmd.OutOrStdout()
			printTitle(out, "Payment ledger")
			fmt.Fprintf(out, "payments %d, unique fingerprints %d, duplicate groups %d, extra entries %d\n",
				stats.TotalPayments, stats.UniqueFingerprints, stats.DuplicateGroups, stats.DuplicateEntries)
			rows := make([][]string, 0, len(stats.Groups))
			for _, g := range stats.Groups {
				rows = append(rows, []string{truncate(g.Fingerprint, 60), strconv.Itoa(g.Count), truncate(fmt.Sprint(g.PaymentIDs), 40)})
			}
			renderTable(out, []string{"Fingerprint", "Count", "Payments"}, rows)
			return nil
		},
	}
}

func newDedupCleanupCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Keep the first payment of every fingerprint group and drop the rest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.maintenance.Cleanup(ctxOf(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf(
				"removed %d of %d payments across %d groups", report.Removed, report.Before, report.Groups)))
			return nil
		},
	}
}

func printImport(w io.Writer, res service.BulkValidation) {
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("recorded %d payments", len(res.Valid))))
	if len(res.Duplicates) > 0 {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("refused %d duplicates:", len(res.Duplicates))))
		for _, d := range res.Duplicates {
			against := ""
			if d.Existing != nil && d.Existing.ID != "" {
				against = " (" + idStyle.Render(d.Existing.ID) + ")"
			}
			fmt.Fprintf(w, "  %s %s %s: %s%s\n", d.Row.AthleteID, d.Row.Date.Format(domain.DateLayout), formatAmount(d.Row.Amount), d.Reason, against)
		}
	}
	for _, e := range res.Errors {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  row %d: %v", e.Index+1, e.Err)))
	}
}
