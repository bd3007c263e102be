package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/logging"
	"github.com/jask/aidat/internal/store"
	"github.com/jask/aidat/internal/textmatch"
)

const (
	defaultMemoryKey      = "match_memory"
	defaultFuzzyThreshold = 90
	defaultLearnThreshold = 85
	recentMatchesLimit    = 10
)

// errNoChange aborts a store update without writing.
var errNoChange = errors.New("no change")

// MatchMemory remembers confirmed description -> athlete bindings. The whole
// record list lives in one store document and every mutation rewrites it.
//
// Storage problems never reach the caller: unreadable state is logged and
// treated as empty, failed writes are logged and dropped.
type MatchMemory struct {
	Store store.Store
	Key   string

	// FuzzyThreshold is the minimum similarity for a non-exact lookup hit.
	FuzzyThreshold int
	// LearnThreshold is the minimum confidence AutoLearn will persist.
	LearnThreshold int

	Log  zerolog.Logger
	Sink logging.Sink
	Now  func() time.Time
}

// NewMatchMemory creates a memory over s with default thresholds.
func NewMatchMemory(s store.Store) *MatchMemory {
	if s == nil {
		panic("service: nil store")
	}
	return &MatchMemory{Store: s}
}

// SaveRequest binds a description to an athlete.
type SaveRequest struct {
	Description      string
	AthleteID        string
	AthleteName      string
	ParentName       string
	IsSiblingPayment bool
	SiblingIDs       []string
}

// LearnRequest is a SaveRequest carrying the score that produced it.
type LearnRequest struct {
	SaveRequest
	Confidence int
}

// MemoryStatistics summarises the stored bindings.
type MemoryStatistics struct {
	TotalMatches int                   `json:"total_matches"`
	TotalUsage   int                   `json:"total_usage"`
	MostUsed     *domain.MemoryRecord  `json:"most_used,omitempty"`
	Recent       []domain.MemoryRecord `json:"recent"`
}

// Save normalizes the description, drops any record with the same key and
// appends a fresh one. Only invalid input is reported as an error.
func (m *MatchMemory) Save(ctx context.Context, req SaveRequest) error {
	_, err := m.save(ctx, req, 100)
	return err
}

func (m *MatchMemory) save(ctx context.Context, req SaveRequest, confidence int) (*domain.MemoryRecord, error) {
	key := textmatch.Normalize(req.Description)
	if key == "" {
		return nil, domain.NewValidationError("description", req.Description, "description is empty after normalization")
	}
	if strings.TrimSpace(req.AthleteID) == "" {
		return nil, domain.NewValidationError("athlete_id", req.AthleteID, "athlete id is required")
	}

	now := m.now()
	rec := domain.MemoryRecord{
		ID:                    uuid.NewString(),
		NormalizedDescription: key,
		OriginalDescription:   req.Description,
		AthleteID:             req.AthleteID,
		AthleteName:           req.AthleteName,
		ParentName:            req.ParentName,
		IsSiblingPayment:      req.IsSiblingPayment,
		SiblingIDs:            append([]string(nil), req.SiblingIDs...),
		CreatedAt:             now,
		LastUsed:              now,
		UsageCount:            1,
		Confidence:            confidence,
	}

	err := m.update(ctx, func(records []domain.MemoryRecord) ([]domain.MemoryRecord, error) {
		out := records[:0]
		for _, r := range records {
			if r.NormalizedDescription != key {
				out = append(out, r)
			}
		}
		return append(out, rec), nil
	})
	if err != nil {
		m.Log.Error().Err(err).Str("description", req.Description).Msg("match memory: save failed")
	}
	return &rec, nil
}

// Find looks up a description: exact normalized key first, then the first
// record whose key is at least FuzzyThreshold similar. A hit bumps the
// record's usage and is persisted before it is returned. Nil means no match.
func (m *MatchMemory) Find(ctx context.Context, description string) *domain.MemoryRecord {
	key := textmatch.Normalize(description)
	if key == "" {
		return nil
	}

	var hit *domain.MemoryRecord
	err := m.update(ctx, func(records []domain.MemoryRecord) ([]domain.MemoryRecord, error) {
		idx := m.lookup(records, key)
		if idx < 0 {
			return nil, errNoChange
		}
		records[idx].UsageCount++
		records[idx].LastUsed = m.now()
		found := records[idx]
		hit = &found
		return records, nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		m.Log.Error().Err(err).Str("description", description).Msg("match memory: usage update failed")
	}
	return hit
}

func (m *MatchMemory) lookup(records []domain.MemoryRecord, key string) int {
	for i, r := range records {
		if r.NormalizedDescription == key {
			return i
		}
	}
	threshold := m.fuzzyThreshold()
	for i, r := range records {
		if textmatch.Similarity(key, r.NormalizedDescription) >= threshold {
			return i
		}
	}
	return -1
}

// AutoLearn saves a computed match when its confidence reaches LearnThreshold
// and the description is not already known. It reports whether a record was
// written.
func (m *MatchMemory) AutoLearn(ctx context.Context, req LearnRequest) bool {
	if req.Confidence < m.learnThreshold() {
		return false
	}
	if m.Find(ctx, req.Description) != nil {
		return false
	}
	rec, err := m.save(ctx, req.SaveRequest, req.Confidence)
	if err != nil {
		m.Log.Debug().Err(err).Msg("match memory: auto-learn skipped")
		return false
	}
	m.sink().MemoryLearned(logging.LearnEvent{
		Description: rec.NormalizedDescription,
		AthleteID:   rec.AthleteID,
		Confidence:  req.Confidence,
		Source:      string(domain.ProvenanceComputed),
	})
	return true
}

// Confirm records a binding chosen by a person.
func (m *MatchMemory) Confirm(ctx context.Context, description string, athlete domain.AthleteIdentity, siblingIDs []string) error {
	rec, err := m.save(ctx, SaveRequest{
		Description:      description,
		AthleteID:        athlete.ID,
		AthleteName:      athlete.StudentFullName(),
		ParentName:       athlete.ParentFullName(),
		IsSiblingPayment: len(siblingIDs) > 0,
		SiblingIDs:       siblingIDs,
	}, 100)
	if err != nil {
		return err
	}
	m.sink().MemoryLearned(logging.LearnEvent{
		Description: rec.NormalizedDescription,
		AthleteID:   rec.AthleteID,
		Confidence:  100,
		Source:      string(domain.ProvenanceManual),
	})
	return nil
}

// Remove deletes the record with the given id.
func (m *MatchMemory) Remove(ctx context.Context, id string) error {
	removed := false
	err := m.update(ctx, func(records []domain.MemoryRecord) ([]domain.MemoryRecord, error) {
		out := records[:0]
		for _, r := range records {
			if r.ID == id {
				removed = true
				continue
			}
			out = append(out, r)
		}
		if !removed {
			return nil, errNoChange
		}
		return out, nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		m.Log.Error().Err(err).Str("id", id).Msg("match memory: remove failed")
	}
	if !removed {
		return domain.ErrNotFound
	}
	return nil
}

// Clear drops every record.
func (m *MatchMemory) Clear(ctx context.Context) {
	if err := m.Store.Delete(ctx, m.key()); err != nil {
		m.Log.Error().Err(err).Msg("match memory: clear failed")
	}
}

// Records returns every stored record in insertion order.
func (m *MatchMemory) Records(ctx context.Context) []domain.MemoryRecord {
	records, err := store.LoadList[domain.MemoryRecord](ctx, m.Store, m.key())
	if err != nil {
		m.Log.Warn().Err(err).Msg("match memory: unreadable, treating as empty")
		return nil
	}
	return records
}

// Statistics reports totals, the most used record and the ten most recently
// used records.
func (m *MatchMemory) Statistics(ctx context.Context) MemoryStatistics {
	records := m.Records(ctx)
	stats := MemoryStatistics{TotalMatches: len(records), Recent: []domain.MemoryRecord{}}
	for i := range records {
		stats.TotalUsage += records[i].UsageCount
		if stats.MostUsed == nil || records[i].UsageCount > stats.MostUsed.UsageCount {
			most := records[i]
			stats.MostUsed = &most
		}
	}

	recent := append([]domain.MemoryRecord(nil), records...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].LastUsed.After(recent[j].LastUsed)
	})
	if len(recent) > recentMatchesLimit {
		recent = recent[:recentMatchesLimit]
	}
	stats.Recent = append(stats.Recent, recent...)
	return stats
}

func (m *MatchMemory) update(ctx context.Context, fn func([]domain.MemoryRecord) ([]domain.MemoryRecord, error)) error {
	onCorrupt := func(err error) {
		m.Log.Warn().Err(err).Msg("match memory: unreadable, treating as empty")
	}
	return store.UpdateList(ctx, m.Store, m.key(), onCorrupt, fn)
}

func (m *MatchMemory) key() string {
	if m.Key == "" {
		return defaultMemoryKey
	}
	return m.Key
}

func (m *MatchMemory) fuzzyThreshold() int {
	if m.FuzzyThreshold <= 0 {
		return defaultFuzzyThreshold
	}
	return m.FuzzyThreshold
}

func (m *MatchMemory) learnThreshold() int {
	if m.LearnThreshold <= 0 {
		return defaultLearnThreshold
	}
	return m.LearnThreshold
}

func (m *MatchMemory) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now()
}

func (m *MatchMemory) sink() logging.Sink {
	if m.Sink == nil {
		return logging.NopSink{}
	}
	return m.Sink
}
