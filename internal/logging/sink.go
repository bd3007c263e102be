package logging

import (
	"sync"

	"github.com/rs/zerolog"
)

// MatchEvent describes the decision made for one reconciled row.
type MatchEvent struct {
	Description string
	AthleteID   string
	Similarity  int
	Provenance  string
	Reason      string
}

// DuplicateEvent describes a row refused as a duplicate.
type DuplicateEvent struct {
	AthleteID  string
	Amount     string
	Date       string
	Reason     string
	Type       string
	ExistingID string
}

// LearnEvent describes a binding written to match memory.
type LearnEvent struct {
	Description string
	AthleteID   string
	Confidence  int
	Source      string
}

// Sink receives auditable engine decisions.
type Sink interface {
	MatchDecided(MatchEvent)
	DuplicateRejected(DuplicateEvent)
	MemoryLearned(LearnEvent)
}

// LogSink writes events as structured log lines.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink writing to log.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit").Logger()}
}

func (s *LogSink) MatchDecided(e MatchEvent) {
	ev := s.log.Info()
	if e.AthleteID == "" {
		ev = s.log.Debug()
	}
	ev.Str("event", "match").
		Str("description", e.Description).
		Str("athlete_id", e.AthleteID).
		Int("similarity", e.Similarity).
		Str("provenance", e.Provenance).
		Str("reason", e.Reason).
		Msg("match decided")
}

func (s *LogSink) DuplicateRejected(e DuplicateEvent) {
	s.log.Warn().
		Str("event", "duplicate").
		Str("athlete_id", e.AthleteID).
		Str("amount", e.Amount).
		Str("date", e.Date).
		Str("type", e.Type).
		Str("existing_id", e.ExistingID).
		Str("reason", e.Reason).
		Msg("duplicate rejected")
}

func (s *LogSink) MemoryLearned(e LearnEvent) {
	s.log.Info().
		Str("event", "learn").
		Str("description", e.Description).
		Str("athlete_id", e.AthleteID).
		Int("confidence", e.Confidence).
		Str("source", e.Source).
		Msg("match remembered")
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) MatchDecided(MatchEvent)          {}
func (NopSink) DuplicateRejected(DuplicateEvent) {}
func (NopSink) MemoryLearned(LearnEvent)         {}

// RecordingSink keeps events in memory. Useful in tests.
type RecordingSink struct {
	mu         sync.Mutex
	Matches    []MatchEvent
	Duplicates []DuplicateEvent
	Learned    []LearnEvent
}

func (r *RecordingSink) MatchDecided(e MatchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Matches = append(r.Matches, e)
}

func (r *RecordingSink) DuplicateRejected(e DuplicateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Duplicates = append(r.Duplicates, e)
}

func (r *RecordingSink) MemoryLearned(e LearnEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Learned = append(r.Learned, e)
}
