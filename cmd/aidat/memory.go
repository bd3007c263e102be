package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jask/aidat/internal/domain"
)

func newMemoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage remembered description to athlete matches",
	}
	cmd.AddCommand(
		newMemoryListCommand(a),
		newMemoryStatsCommand(a),
		newMemoryRemoveCommand(a),
		newMemoryClearCommand(a),
		newMemoryConfirmCommand(a),
	)
	return cmd
}

func newMemoryListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List remembered matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records := a.memory.Records(ctxOf(cmd))
			out := cmd.OutOrStdout()
			printTitle(out, fmt.Sprintf("%d remembered matches", len(records)))
			renderTable(out, []string{"ID", "Description", "Athlete", "Used", "Confidence", "Last used"}, memoryRows(records))
			return nil
		},
	}
}

func memoryRows(records []domain.MemoryRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		athlete := r.AthleteName
		if athlete == "" {
			athlete = r.AthleteID
		}
		rows = append(rows, []string{
			idStyle.Render(r.ID),
			truncate(r.OriginalDescription, descriptionWidth),
			athlete,
			strconv.Itoa(r.UsageCount),
			strconv.Itoa(r.Confidence),
			r.LastUsed.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func newMemoryStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show match memory usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats := a.memory.Statistics(ctxOf(cmd))
			out := cmd.OutOrStdout()
			printTitle(out, "Match memory")
			fmt.Fprintf(out, "records %d, total usage %d\n", stats.TotalMatches, stats.TotalUsage)
			if stats.MostUsed != nil {
				fmt.Fprintf(out, "most used: %s -> %s (%d)\n",
					stats.MostUsed.OriginalDescription, stats.MostUsed.AthleteID, stats.MostUsed.UsageCount)
			}
			fmt.Fprintln(out, dimStyle.Render("recently used:"))
			renderTable(out, []string{"ID", "Description", "Athlete", "Used", "Confidence", "Last used"}, memoryRows(stats.Recent))
			return nil
		},
	}
}

func newMemoryRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Forget one remembered match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.memory.Remove(ctxOf(cmd), args[0]); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("memory record %s: %w", args[0], err)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("removed "+args[0]))
			return nil
		},
	}
}

func newMemoryClearCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every remembered match",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear match memory without --yes")
			}
			a.memory.Clear(ctxOf(cmd))
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("match memory cleared"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}

func newMemoryConfirmCommand(a *app) *cobra.Command {
	var (
		description string
		athleteID   string
		rosterPath  string
		siblings    []string
	)
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Bind a statement description to an athlete by hand",
		Example: `  aidat memory confirm --description "HAVALE 4471 KASIM" --athlete a12 --roster sporcular.csv
  aidat memory confirm --description "KAYA KARDESLER" --athlete a3 --sibling a4 --roster sporcular.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if description == "" || athleteID == "" || rosterPath == "" {
				return errors.New("--description, --athlete and --roster are required")
			}
			athletes, err := a.readRoster(rosterPath)
			if err != nil {
				return err
			}
			athlete, err := findAthlete(athletes, athleteID)
			if err != nil {
				return err
			}
			for _, id := range siblings {
				if _, err := findAthlete(athletes, id); err != nil {
					return fmt.Errorf("sibling: %w", err)
				}
			}

			res, err := a.reconciler.Assign(ctxOf(cmd), domain.TransactionRow{Description: description}, athlete, siblings)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("%q -> %s (%s)", description, res.AthleteName, res.AthleteID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "statement description to remember")
	cmd.Flags().StringVar(&athleteID, "athlete", "", "athlete id from the roster")
	cmd.Flags().StringVar(&rosterPath, "roster", "", "athlete roster CSV")
	cmd.Flags().StringSliceVar(&siblings, "sibling", nil, "other athletes covered by the same payment")
	return cmd
}
