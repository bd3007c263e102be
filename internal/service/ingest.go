package service

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/textmatch"
)

var statementDateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006", "2.1.2006", "2/1/2006"}

// IngestService parses bank statements and athlete rosters from CSV.
type IngestService struct {
	Log zerolog.Logger
}

// StatementResult holds parsed rows and the per-line failures.
type StatementResult struct {
	Rows   []domain.TransactionRow
	Errors []error
}

// RosterResult holds parsed athletes and the per-line failures.
type RosterResult struct {
	Athletes []domain.AthleteIdentity
	Errors   []error
}

// ParseStatementCSV reads date, description, amount[, reference] lines.
// A leading header row is skipped. Bad lines are reported and skipped.
func (s *IngestService) ParseStatementCSV(r io.Reader) (StatementResult, error) {
	res := StatementResult{}
	csvr := newCSVReader(r)
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if line == 1 && isHeader(rec, "date", "tarih") {
			continue
		}
		if len(rec) < 3 { // date, description, amount
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected at least 3 columns", line))
			continue
		}
		date, err := parseStatementDate(rec[0])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d date: %w", line, err))
			continue
		}
		amount, err := ParseAmount(rec[2])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		row := domain.TransactionRow{
			Date:        date,
			Description: strings.TrimSpace(rec[1]),
			Amount:      amount,
		}
		if len(rec) > 3 {
			row.Reference = strings.TrimSpace(rec[3])
		}
		res.Rows = append(res.Rows, row)
	}
	s.Log.Debug().Int("rows", len(res.Rows)).Int("errors", len(res.Errors)).Msg("statement parsed")
	return res, nil
}

// ParseRosterCSV reads id, student_name, student_surname, parent_name,
// parent_surname[, status] lines.
func (s *IngestService) ParseRosterCSV(r io.Reader) (RosterResult, error) {
	res := RosterResult{}
	csvr := newCSVReader(r)
	seen := make(map[string]struct{})
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if line == 1 && isHeader(rec, "id") {
			continue
		}
		if len(rec) < 5 {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected at least 5 columns", line))
			continue
		}
		id := strings.TrimSpace(rec[0])
		if id == "" {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, domain.NewValidationError("id", id, "athlete id is required")))
			continue
		}
		if _, dup := seen[id]; dup {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: athlete %s: %w", line, id, domain.ErrDuplicate))
			continue
		}
		seen[id] = struct{}{}
		a := domain.AthleteIdentity{
			ID:             id,
			StudentName:    strings.TrimSpace(rec[1]),
			StudentSurname: strings.TrimSpace(rec[2]),
			ParentName:     strings.TrimSpace(rec[3]),
			ParentSurname:  strings.TrimSpace(rec[4]),
		}
		if len(rec) > 5 {
			a.Status = strings.TrimSpace(rec[5])
		}
		res.Athletes = append(res.Athletes, a)
	}
	return res, nil
}

// ToPayments turns matched rows into ledger candidates. Unmatched rows are
// skipped.
func ToPayments(results []domain.MatchResult, method string) []domain.StoredPayment {
	var out []domain.StoredPayment
	for _, r := range results {
		if !r.Matched() {
			continue
		}
		out = append(out, domain.StoredPayment{
			AthleteID:   r.AthleteID,
			Amount:      r.Row.Amount,
			Date:        r.Row.Date,
			Method:      method,
			Description: r.Row.Description,
			Reference:   r.Row.Reference,
		})
	}
	return out
}

// ParseAmount accepts "1.234,56", "1234,56", "1234.56" and "1,234.56" with an
// optional currency suffix.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, suffix := range []string{"TRY", "TL", "₺"} {
		s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	}
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	return decimal.NewFromString(s)
}

// parseStatementDate reads a calendar date as midnight UTC.
func parseStatementDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func newCSVReader(r io.Reader) *csv.Reader {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1
	return csvr
}

func isHeader(rec []string, names ...string) bool {
	if len(rec) == 0 {
		return false
	}
	first := textmatch.Normalize(strings.TrimPrefix(rec[0], "\ufeff"))
	for _, n := range names {
		if first == n {
			return true
		}
	}
	return false
}
