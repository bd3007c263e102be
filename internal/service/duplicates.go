package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/logging"
	"github.com/jask/aidat/internal/textmatch"
)

// Duplicate reasons.
const (
	ReasonSameFingerprint = "same fingerprint"
	ReasonSameReference   = "same reference"
	ReasonSameDayAmount   = "same day, same amount"
	ReasonRepeatedInBatch = "repeated in batch"
	ReasonRepeatedInFile  = "repeated in file"
	ReasonAlreadyRecorded = "already recorded"
	ReasonSimilarInFile   = "same date and amount, different description"
)

// DefaultAmountTolerance is the absolute currency difference under which two
// amounts are equal.
var DefaultAmountTolerance = decimal.New(1, -2)

// DuplicateDetector decides whether payments are already recorded.
type DuplicateDetector struct {
	Ledger    *Ledger
	Tolerance decimal.Decimal

	Log  zerolog.Logger
	Sink logging.Sink
}

// NewDuplicateDetector creates a detector checking against ledger history.
func NewDuplicateDetector(ledger *Ledger) *DuplicateDetector {
	if ledger == nil {
		panic("service: nil ledger")
	}
	return &DuplicateDetector{Ledger: ledger, Tolerance: DefaultAmountTolerance}
}

// DuplicateCheck is the outcome of checking one candidate.
type DuplicateCheck struct {
	IsDuplicate bool
	Existing    *domain.StoredPayment
	Reason      string
}

// CheckPaymentDuplicate applies, in order, fingerprint equality, same
// reference with equal amount, and same day with equal amount. The first
// rule that matches any existing payment wins.
func (d *DuplicateDetector) CheckPaymentDuplicate(candidate domain.StoredPayment, existing []domain.StoredPayment) DuplicateCheck {
	return checkPaymentDuplicate(candidate, existing, d.tolerance())
}

func checkPaymentDuplicate(candidate domain.StoredPayment, existing []domain.StoredPayment, tol decimal.Decimal) DuplicateCheck {
	fp := PaymentFingerprint(candidate)
	for i := range existing {
		if PaymentFingerprint(existing[i]) == fp {
			return DuplicateCheck{IsDuplicate: true, Existing: &existing[i], Reason: ReasonSameFingerprint}
		}
	}

	if candidate.Reference != "" {
		for i := range existing {
			e := &existing[i]
			if e.Reference == candidate.Reference && e.AthleteID == candidate.AthleteID && amountsEqual(e.Amount, candidate.Amount, tol) {
				return DuplicateCheck{IsDuplicate: true, Existing: e, Reason: ReasonSameReference}
			}
		}
	}

	day := candidate.Date.Format(domain.DateLayout)
	for i := range existing {
		e := &existing[i]
		if e.AthleteID == candidate.AthleteID && e.Date.Format(domain.DateLayout) == day && amountsEqual(e.Amount, candidate.Amount, tol) {
			return DuplicateCheck{IsDuplicate: true, Existing: e, Reason: ReasonSameDayAmount}
		}
	}
	return DuplicateCheck{}
}

// AccountEntryCheck is the outcome of checking one account entry.
type AccountEntryCheck struct {
	IsDuplicate bool
	Existing    *domain.AccountEntry
}

// CheckAccountEntryDuplicate reports an existing entry with the same
// fingerprint for athleteID.
func CheckAccountEntryDuplicate(athleteID string, candidate domain.AccountEntry, existing []domain.AccountEntry) AccountEntryCheck {
	fp := AccountEntryFingerprint(athleteID, candidate)
	for i := range existing {
		if AccountEntryFingerprint(existing[i].AthleteID, existing[i]) == fp {
			return AccountEntryCheck{IsDuplicate: true, Existing: &existing[i]}
		}
	}
	return AccountEntryCheck{}
}

// CheckAccountEntryDuplicate is the package function bound to d.
func (d *DuplicateDetector) CheckAccountEntryDuplicate(athleteID string, candidate domain.AccountEntry, existing []domain.AccountEntry) AccountEntryCheck {
	return CheckAccountEntryDuplicate(athleteID, candidate, existing)
}

// BulkValidation splits a batch into payments safe to record, duplicates and
// invalid rows.
type BulkValidation struct {
	Valid      []domain.StoredPayment
	Duplicates []domain.DuplicateFinding
	Errors     []domain.RowError
}

// ValidateBulkPayments rejects invalid rows, then rows repeating an earlier
// row's (athlete, amount, method), then rows already in the ledger. Only the
// first of a repeated group survives and is named as Existing for the rest.
func (d *DuplicateDetector) ValidateBulkPayments(ctx context.Context, rows []domain.StoredPayment) BulkValidation {
	history := d.Ledger.Payments(ctx)
	tol := d.tolerance()

	var out BulkValidation
	firstSeen := make(map[string]int, len(rows))
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			out.Errors = append(out.Errors, domain.RowError{Index: i, Err: err})
			continue
		}

		key := batchKey(row)
		if first, ok := firstSeen[key]; ok {
			existing := rows[first]
			d.reject(&out, domain.DuplicateFinding{Index: i, Row: row, Reason: ReasonRepeatedInBatch, Existing: &existing, Type: domain.DuplicateInternal})
			continue
		}
		firstSeen[key] = i

		if check := checkPaymentDuplicate(row, history, tol); check.IsDuplicate {
			d.reject(&out, domain.DuplicateFinding{Index: i, Row: row, Reason: check.Reason, Existing: check.Existing, Type: domain.DuplicateCrossBatch})
			continue
		}
		out.Valid = append(out.Valid, row)
	}
	return out
}

// ImportPayments validates a batch and records the surviving payments.
func (d *DuplicateDetector) ImportPayments(ctx context.Context, rows []domain.StoredPayment) (BulkValidation, error) {
	res := d.ValidateBulkPayments(ctx, rows)
	stored, err := d.Ledger.RecordPayments(ctx, res.Valid)
	if err != nil {
		return res, err
	}
	res.Valid = stored
	return res, nil
}

func (d *DuplicateDetector) reject(out *BulkValidation, f domain.DuplicateFinding) {
	out.Duplicates = append(out.Duplicates, f)
	ev := logging.DuplicateEvent{
		AthleteID: f.Row.AthleteID,
		Amount:    f.Row.Amount.StringFixed(2),
		Date:      f.Row.Date.Format(domain.DateLayout),
		Reason:    f.Reason,
		Type:      string(f.Type),
	}
	if f.Existing != nil {
		ev.ExistingID = f.Existing.ID
	}
	d.sink().DuplicateRejected(ev)
}

// ImportFinding flags one spreadsheet row.
type ImportFinding struct {
	Index int
	Row   domain.TransactionRow
	// FirstIndex is the earlier row of the same file it collides with, or -1.
	FirstIndex int
	Existing   *domain.StoredPayment
	Reason     string
	Type       domain.DuplicateType
}

// ExcelCheck is the outcome of CheckExcelImportDuplicates.
type ExcelCheck struct {
	Duplicates []ImportFinding
	Unique     []domain.TransactionRow
	Warnings   []ImportFinding
}

// CheckExcelImportDuplicates scans a spreadsheet import. Rows repeating an
// earlier row's date, amount and description, or matching a recorded payment
// on those fields, are hard duplicates. Rows sharing only date and amount with
// an earlier row are kept but raised as warnings for a person to confirm.
func (d *DuplicateDetector) CheckExcelImportDuplicates(rows []domain.TransactionRow, existing []domain.StoredPayment) ExcelCheck {
	tol := d.tolerance()
	var out ExcelCheck
	seen := make(map[string]int, len(rows))
	pairs := make(map[string]int, len(rows))

	for i, row := range rows {
		key := importKey(row)
		if first, ok := seen[key]; ok {
			out.Duplicates = append(out.Duplicates, ImportFinding{
				Index: i, Row: row, FirstIndex: first, Reason: ReasonRepeatedInFile, Type: domain.DuplicateInternal,
			})
			continue
		}
		seen[key] = i

		if p := recordedImport(row, existing, tol); p != nil {
			out.Duplicates = append(out.Duplicates, ImportFinding{
				Index: i, Row: row, FirstIndex: -1, Existing: p, Reason: ReasonAlreadyRecorded, Type: domain.DuplicateCrossBatch,
			})
			continue
		}

		pair := importPairKey(row)
		if first, ok := pairs[pair]; ok {
			out.Warnings = append(out.Warnings, ImportFinding{
				Index: i, Row: row, FirstIndex: first, Reason: ReasonSimilarInFile, Type: domain.DuplicateSimilar,
			})
		} else {
			pairs[pair] = i
		}
		out.Unique = append(out.Unique, row)
	}
	return out
}

func recordedImport(row domain.TransactionRow, existing []domain.StoredPayment, tol decimal.Decimal) *domain.StoredPayment {
	day := row.Date.Format(domain.DateLayout)
	desc := textmatch.Normalize(row.Description)
	for i := range existing {
		e := &existing[i]
		if e.Date.Format(domain.DateLayout) == day && amountsEqual(e.Amount, row.Amount, tol) && textmatch.Normalize(e.Description) == desc {
			return e
		}
	}
	return nil
}

// DuplicateGroup is a set of recorded payments sharing a fingerprint.
type DuplicateGroup struct {
	Fingerprint string   `json:"fingerprint"`
	Count       int      `json:"count"`
	PaymentIDs  []string `json:"payment_ids"`
}

// DuplicateStats describes fingerprint collisions in the ledger.
type DuplicateStats struct {
	TotalPayments      int              `json:"total_payments"`
	UniqueFingerprints int              `json:"unique_fingerprints"`
	DuplicateGroups    int              `json:"duplicate_groups"`
	DuplicateEntries   int              `json:"duplicate_entries"`
	Groups             []DuplicateGroup `json:"groups"`
}

// CleanupReport describes a cleanup sweep.
type CleanupReport struct {
	Before  int `json:"before"`
	After   int `json:"after"`
	Removed int `json:"removed"`
	Groups  int `json:"groups"`
}

// DuplicateStatistics groups recorded payments by fingerprint.
func (d *DuplicateDetector) DuplicateStatistics(ctx context.Context) DuplicateStats {
	payments := d.Ledger.Payments(ctx)
	groups := groupByFingerprint(payments)

	stats := DuplicateStats{TotalPayments: len(payments), UniqueFingerprints: len(groups), Groups: []DuplicateGroup{}}
	for _, g := range groups {
		if g.Count > 1 {
			stats.DuplicateGroups++
			stats.DuplicateEntries += g.Count - 1
			stats.Groups = append(stats.Groups, g)
		}
	}
	return stats
}

// CleanupDuplicateData keeps the first payment of every fingerprint group and
// rewrites the ledger without the rest.
func (d *DuplicateDetector) CleanupDuplicateData(ctx context.Context) (CleanupReport, error) {
	payments := d.Ledger.Payments(ctx)
	report := CleanupReport{Before: len(payments)}

	seen := make(map[string]struct{}, len(payments))
	kept := make([]domain.StoredPayment, 0, len(payments))
	for _, p := range payments {
		fp := PaymentFingerprint(p)
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		kept = append(kept, p)
	}
	for _, g := range groupByFingerprint(payments) {
		if g.Count > 1 {
			report.Groups++
		}
	}
	report.After = len(kept)
	report.Removed = report.Before - report.After

	if report.Removed == 0 {
		return report, nil
	}
	if err := d.Ledger.ReplacePayments(ctx, kept); err != nil {
		return report, fmt.Errorf("cleanup duplicates: %w", err)
	}
	d.Log.Info().Int("removed", report.Removed).Int("groups", report.Groups).Msg("duplicate cleanup done")
	return report, nil
}

// groupByFingerprint returns groups in order of first appearance.
func groupByFingerprint(payments []domain.StoredPayment) []DuplicateGroup {
	index := make(map[string]int)
	var groups []DuplicateGroup
	for _, p := range payments {
		fp := PaymentFingerprint(p)
		i, ok := index[fp]
		if !ok {
			i = len(groups)
			index[fp] = i
			groups = append(groups, DuplicateGroup{Fingerprint: fp})
		}
		groups[i].Count++
		groups[i].PaymentIDs = append(groups[i].PaymentIDs, p.ID)
	}
	return groups
}

func amountsEqual(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(tol)
}

func (d *DuplicateDetector) tolerance() decimal.Decimal {
	if d.Tolerance.IsZero() {
		return DefaultAmountTolerance
	}
	return d.Tolerance
}

func (d *DuplicateDetector) sink() logging.Sink {
	if d.Sink == nil {
		return logging.NopSink{}
	}
	return d.Sink
}
