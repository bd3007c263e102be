package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/store"
)

const (
	defaultPaymentsKey = "payments"
	defaultEntriesKey  = "account_entries"
)

// Ledger persists payments and account entries as whole JSON lists.
type Ledger struct {
	Store       store.Store
	PaymentsKey string
	EntriesKey  string

	Log zerolog.Logger
	Now func() time.Time
}

// NewLedger creates a ledger over s with the default keys.
func NewLedger(s store.Store) *Ledger {
	if s == nil {
		panic("service: nil store")
	}
	return &Ledger{Store: s}
}

// Payments returns every recorded payment. Unreadable state is logged and
// reported as an empty ledger.
func (l *Ledger) Payments(ctx context.Context) []domain.StoredPayment {
	payments, err := store.LoadList[domain.StoredPayment](ctx, l.Store, l.paymentsKey())
	if err != nil {
		l.Log.Warn().Err(err).Msg("ledger: payments unreadable, treating as empty")
		return nil
	}
	return payments
}

// AccountEntries returns every recorded account entry.
func (l *Ledger) AccountEntries(ctx context.Context) []domain.AccountEntry {
	entries, err := store.LoadList[domain.AccountEntry](ctx, l.Store, l.entriesKey())
	if err != nil {
		l.Log.Warn().Err(err).Msg("ledger: account entries unreadable, treating as empty")
		return nil
	}
	return entries
}

// RecordPayments appends payments, assigning ids and creation times where
// missing, and returns them as stored.
func (l *Ledger) RecordPayments(ctx context.Context, payments []domain.StoredPayment) ([]domain.StoredPayment, error) {
	if len(payments) == 0 {
		return nil, nil
	}
	stamped := make([]domain.StoredPayment, len(payments))
	now := l.now()
	for i, p := range payments {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		stamped[i] = p
	}

	err := store.UpdateList(ctx, l.Store, l.paymentsKey(), l.corrupt("payments"), func(existing []domain.StoredPayment) ([]domain.StoredPayment, error) {
		return append(existing, stamped...), nil
	})
	if err != nil {
		l.Log.Error().Err(err).Int("count", len(stamped)).Msg("ledger: record payments failed")
		return nil, fmt.Errorf("record payments: %w", err)
	}
	return stamped, nil
}

// ReplacePayments overwrites the payment list.
func (l *Ledger) ReplacePayments(ctx context.Context, payments []domain.StoredPayment) error {
	if err := store.SaveList(ctx, l.Store, l.paymentsKey(), payments); err != nil {
		l.Log.Error().Err(err).Msg("ledger: replace payments failed")
		return fmt.Errorf("replace payments: %w", err)
	}
	return nil
}

// RecordAccountEntry appends entry unless an entry with the same fingerprint
// is already recorded for its athlete, in which case domain.ErrDuplicate is
// returned.
func (l *Ledger) RecordAccountEntry(ctx context.Context, entry domain.AccountEntry) (domain.AccountEntry, error) {
	if entry.AthleteID == "" {
		return domain.AccountEntry{}, domain.NewValidationError("athlete_id", entry.AthleteID, "athlete id is required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now()
	}

	err := store.UpdateList(ctx, l.Store, l.entriesKey(), l.corrupt("account entries"), func(existing []domain.AccountEntry) ([]domain.AccountEntry, error) {
		if dup := CheckAccountEntryDuplicate(entry.AthleteID, entry, existing); dup.IsDuplicate {
			return nil, fmt.Errorf("account entry for %s %s: %w", entry.AthleteID, entry.Month, domain.ErrDuplicate)
		}
		return append(existing, entry), nil
	})
	if err != nil {
		return domain.AccountEntry{}, err
	}
	return entry, nil
}

// Reset deletes both collections.
func (l *Ledger) Reset(ctx context.Context) error {
	for _, key := range []string{l.paymentsKey(), l.entriesKey()} {
		if err := l.Store.Delete(ctx, key); err != nil {
			return fmt.Errorf("reset %s: %w", key, err)
		}
	}
	return nil
}

func (l *Ledger) corrupt(what string) func(error) {
	return func(err error) {
		l.Log.Warn().Err(err).Msgf("ledger: %s unreadable, treating as empty", what)
	}
}

func (l *Ledger) paymentsKey() string {
	if l.PaymentsKey == "" {
		return defaultPaymentsKey
	}
	return l.PaymentsKey
}

func (l *Ledger) entriesKey() string {
	if l.EntriesKey == "" {
		return defaultEntriesKey
	}
	return l.EntriesKey
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now()
}
