package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/fixtures"
)

func newDemoCommand() *cobra.Command {
	var (
		dir      string
		seed     uint64
		athletes int
		rows     int
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write a synthetic roster and statement to try reconcile with",
		Args:  cobra.NoArgs,
		// no database needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			set := fixtures.Generate(seed, athletes, rows)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("mkdir: %w", err)
			}

			roster := [][]string{{"id", "student_name", "student_surname", "parent_name", "parent_surname", "status"}}
			for _, a := range set.Athletes {
				roster = append(roster, []string{a.ID, a.StudentName, a.StudentSurname, a.ParentName, a.ParentSurname, a.Status})
			}
			statement := [][]string{{"date", "description", "amount", "reference"}}
			for _, r := range set.Rows {
				statement = append(statement, []string{r.Date.Format(domain.DateLayout), r.Description, r.Amount.StringFixed(2), r.Reference})
			}

			for name, records := range map[string][][]string{"roster.csv": roster, "statement.csv": statement} {
				if err := writeCSV(filepath.Join(dir, name), records); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("wrote %d athletes and %d statement lines to %s", len(set.Athletes), len(set.Rows), dir)))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "out", ".", "output directory")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "generator seed")
	cmd.Flags().IntVar(&athletes, "athletes", 40, "number of athletes")
	cmd.Flags().IntVar(&rows, "rows", 200, "number of statement lines")
	return cmd
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
