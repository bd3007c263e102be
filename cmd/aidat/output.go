package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/jask/aidat/internal/domain"
)

const descriptionWidth = 42

func renderTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  (none)"))
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func printRowErrors(w io.Writer, what string, errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d %s skipped:", len(errs), what)))
	for _, err := range errs {
		fmt.Fprintln(w, dimStyle.Render("  "+err.Error()))
	}
}

func formatScore(score, matchThreshold, reviewThreshold int) string {
	return lipgloss.NewStyle().
		Foreground(scoreColor(score, matchThreshold, reviewThreshold)).
		Render(strconv.Itoa(score))
}

func formatAmount(d decimal.Decimal) string {
	return amountStyle.Render(d.StringFixed(2))
}

func formatDate(r domain.TransactionRow) string {
	return r.Date.Format(domain.DateLayout)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return mutedStyle.Render("-")
	}
	return s
}
