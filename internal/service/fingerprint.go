package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/textmatch"
)

// Fingerprints are equality keys recomputed from current fields on every
// comparison. They are never stored.

// PaymentFingerprint is athleteId|amount|date|method|description with the
// free-text parts normalized.
func PaymentFingerprint(p domain.StoredPayment) string {
	return strings.Join([]string{
		p.AthleteID,
		fingerprintAmount(p.Amount),
		p.Date.Format(domain.DateLayout),
		textmatch.Normalize(p.Method),
		textmatch.Normalize(p.Description),
	}, "|")
}

// AccountEntryFingerprint is athleteId|amount|month|type|description.
func AccountEntryFingerprint(athleteID string, e domain.AccountEntry) string {
	return strings.Join([]string{
		athleteID,
		fingerprintAmount(e.Amount),
		e.Month,
		e.Type,
		textmatch.Normalize(e.Description),
	}, "|")
}

func batchKey(p domain.StoredPayment) string {
	return strings.Join([]string{p.AthleteID, fingerprintAmount(p.Amount), textmatch.Normalize(p.Method)}, "|")
}

func importKey(row domain.TransactionRow) string {
	return strings.Join([]string{row.Date.Format(domain.DateLayout), fingerprintAmount(row.Amount), textmatch.Normalize(row.Description)}, "|")
}

func importPairKey(row domain.TransactionRow) string {
	return row.Date.Format(domain.DateLayout) + "|" + fingerprintAmount(row.Amount)
}

func fingerprintAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
