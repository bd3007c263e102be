package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateLayout is the calendar-date format used for rows, payments and fingerprints.
const DateLayout = "2006-01-02"

// TransactionRow is a single line of an imported bank statement or spreadsheet.
type TransactionRow struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Reference   string          `json:"reference,omitempty"`
}

// AthleteIdentity is the roster snapshot the caller hands to a reconciliation run.
type AthleteIdentity struct {
	ID             string `json:"id"`
	StudentName    string `json:"student_name"`
	StudentSurname string `json:"student_surname"`
	ParentName     string `json:"parent_name"`
	ParentSurname  string `json:"parent_surname"`
	Status         string `json:"status,omitempty"`
}

// IsActive reports whether the athlete may be matched. A blank status counts
// as active; otherwise it must be "active" or "aktif" in any case.
func (a AthleteIdentity) IsActive() bool {
	status := strings.TrimSpace(a.Status)
	if status == "" {
		return true
	}
	if strings.EqualFold(status, "active") || strings.EqualFold(status, "aktif") {
		return true
	}
	return cases.Lower(language.Turkish).String(status) == "aktif"
}

// StudentFullName joins first and last name with a single space.
func (a AthleteIdentity) StudentFullName() string {
	return fullName(a.StudentName, a.StudentSurname)
}

// ParentFullName joins the parent's first and last name with a single space.
func (a AthleteIdentity) ParentFullName() string {
	return fullName(a.ParentName, a.ParentSurname)
}

func fullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// Provenance records where a match came from.
type Provenance string

const (
	ProvenanceHistorical Provenance = "historical"
	ProvenanceComputed   Provenance = "computed"
	ProvenanceManual     Provenance = "manual"
)

// ReviewThreshold is the default score below which a computed match should
// be confirmed by a person.
const ReviewThreshold = 85

// MatchResult is the outcome for one TransactionRow. An empty AthleteID means
// no athlete reached the acceptance threshold.
type MatchResult struct {
	Row              TransactionRow `json:"row"`
	AthleteID        string         `json:"athlete_id,omitempty"`
	AthleteName      string         `json:"athlete_name,omitempty"`
	ParentName       string         `json:"parent_name,omitempty"`
	Similarity       int            `json:"similarity"`
	Provenance       Provenance     `json:"provenance,omitempty"`
	IsSiblingPayment bool           `json:"is_sibling_payment"`
	SiblingIDs       []string       `json:"sibling_ids,omitempty"`
}

// Matched reports whether an athlete was bound to the row.
func (r MatchResult) Matched() bool { return r.AthleteID != "" }

// NeedsReview reports medium-confidence computed matches at the default
// ReviewThreshold.
func (r MatchResult) NeedsReview() bool { return r.NeedsReviewBelow(ReviewThreshold) }

// NeedsReviewBelow reports non-historical matches scoring under threshold.
func (r MatchResult) NeedsReviewBelow(threshold int) bool {
	return r.Provenance != ProvenanceHistorical && r.Similarity > 0 && r.Similarity < threshold
}

// MemoryRecord is a remembered description -> athlete binding.
type MemoryRecord struct {
	ID                    string    `json:"id"`
	NormalizedDescription string    `json:"normalized_description"`
	OriginalDescription   string    `json:"original_description"`
	AthleteID             string    `json:"athlete_id"`
	AthleteName           string    `json:"athlete_name"`
	ParentName            string    `json:"parent_name"`
	IsSiblingPayment      bool      `json:"is_sibling_payment"`
	SiblingIDs            []string  `json:"sibling_ids,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	LastUsed              time.Time `json:"last_used"`
	UsageCount            int       `json:"usage_count"`
	Confidence            int       `json:"confidence"`
}

// StoredPayment is a ledger payment as persisted by the Ledger.
type StoredPayment struct {
	ID          string          `json:"id"`
	AthleteID   string          `json:"athlete_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Method      string          `json:"method,omitempty"`
	Description string          `json:"description,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Validate rejects payments missing the fields every fingerprint reads.
func (p StoredPayment) Validate() error {
	if strings.TrimSpace(p.AthleteID) == "" {
		return NewValidationError("athlete_id", p.AthleteID, "athlete id is required")
	}
	if p.Amount.IsZero() {
		return NewValidationError("amount", p.Amount.String(), "amount is required")
	}
	if !p.Amount.IsPositive() {
		return NewValidationError("amount", p.Amount.String(), "amount must be positive")
	}
	if p.Date.IsZero() {
		return NewValidationError("date", "", "date is required")
	}
	return nil
}

// AccountEntry is a monthly charge or credit on an athlete's account.
type AccountEntry struct {
	ID          string          `json:"id"`
	AthleteID   string          `json:"athlete_id"`
	Amount      decimal.Decimal `json:"amount"`
	Month       string          `json:"month"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DuplicateType classifies a DuplicateFinding.
type DuplicateType string

const (
	// DuplicateInternal repeats an earlier row of the same batch or file.
	DuplicateInternal DuplicateType = "internal"
	// DuplicateCrossBatch repeats a previously recorded payment.
	DuplicateCrossBatch DuplicateType = "cross_batch"
	// DuplicateSimilar looks like a repeat and needs manual confirmation.
	DuplicateSimilar DuplicateType = "similar"
)

// DuplicateFinding is returned from a single duplicate-check call.
type DuplicateFinding struct {
	Index    int            `json:"index"`
	Row      StoredPayment  `json:"row"`
	Reason   string         `json:"reason"`
	Existing *StoredPayment `json:"existing,omitempty"`
	Type     DuplicateType  `json:"type"`
}

// RowError is a per-row validation failure in a bulk operation.
type RowError struct {
	Index int
	Err   error
}

func (e RowError) Error() string { return e.Err.Error() }

func (e RowError) Unwrap() error { return e.Err }
