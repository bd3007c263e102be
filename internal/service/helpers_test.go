package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/logging"
	"github.com/jask/aidat/internal/store"
)

var fixedNow = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)

// tickingClock returns a clock that advances one minute per call.
func tickingClock() func() time.Time {
	now := fixedNow
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func newTestMemory(t *testing.T) (*MatchMemory, *store.MemoryStore, *logging.RecordingSink) {
	t.Helper()
	s := store.NewMemoryStore()
	sink := &logging.RecordingSink{}
	m := NewMatchMemory(s)
	m.Sink = sink
	m.Now = tickingClock()
	return m, s, sink
}

func newTestDetector(t *testing.T) (*DuplicateDetector, *Ledger, *logging.RecordingSink) {
	t.Helper()
	ledger := NewLedger(store.NewMemoryStore())
	ledger.Now = func() time.Time { return fixedNow }
	sink := &logging.RecordingSink{}
	d := NewDuplicateDetector(ledger)
	d.Sink = sink
	return d, ledger, sink
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func athlete(id, name, surname, status string) domain.AthleteIdentity {
	return domain.AthleteIdentity{ID: id, StudentName: name, StudentSurname: surname, Status: status}
}
