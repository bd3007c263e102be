package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/aidat/internal/domain"
	"github.com/jask/aidat/internal/store"
)

func TestMatchMemory_SaveFindRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _, _ := newTestMemory(t)

	require.NoError(t, m.Save(ctx, SaveRequest{Description: "Ahmet Yılmaz Aralık", AthleteID: "a1", AthleteName: "Ahmet Yılmaz"}))

	rec := m.Find(ctx, "Ahmet Yılmaz Aralık")
	require.NotNil(t, rec)
	require.Equal(t, "a1", rec.AthleteID)
	require.Equal(t, 2, rec.UsageCount)
	require.Equal(t, 100, rec.Confidence)
	require.Equal(t, "ahmet yilmaz aralik", rec.NormalizedDescription)
	require.True(t, rec.LastUsed.After(rec.CreatedAt))

	// the increment is persisted
	records := m.Records(ctx)
	require.Len(t, records, 1)
	require.Equal(t, 2, records[0].UsageCount)
}

func TestMatchMemory_SaveReplacesSameKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _, _ := newTestMemory(t)

	require.NoError(t, m.Save(ctx, SaveRequest{Description: "Ahmet Yılmaz", AthleteID: "a1"}))
	require.NoError(t, m.Save(ctx, SaveRequest{Description: "AHMET  YILMAZ!", AthleteID: "a2", IsSiblingPayment: true, SiblingIDs: []string{"a3"}}))

	records := m.Records(ctx)
	require.Len(t, records, 1)
	require.Equal(t, "a2", records[0].AthleteID)
	require.Equal(t, 1, records[0].UsageCount)
	require.True(t, records[0].IsSiblingPayment)
	require.Equal(t, []string{"a3"}, records[0].SiblingIDs)
}

func TestMatchMemory_SaveRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, s, _ := newTestMemory(t)

	require.ErrorIs(t, m.Save(ctx, SaveRequest{Description: "", AthleteID: "a1"}), domain.ErrInvalidInput)
	require.ErrorIs(t, m.Save(ctx, SaveRequest{Description: "!!! ---", AthleteID: "a1"}), domain.ErrInvalidInput)
	require.ErrorIs(t, m.Save(ctx, SaveRequest{Description: "Ahmet", AthleteID: " "}), domain.ErrInvalidInput)
	require.Zero(t, s.Size())
}

func TestMatchMemory_FindFuzzyAndMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _, _ := newTestMemory(t)
	require.NoError(t, m.Save(ctx, SaveRequest{Description: "Ahmet Yılmaz aralık aidat", AthleteID: "a1"}))

	rec := m.Find(ctx, "AHMET YILMAZ ARALIK AIDATI")
	require.NotNil(t, rec)
	require.Equal(t, "a1", rec.AthleteID)

	require.Nil(t, m.Find(ctx, "Mehmet Kaya"))
	require.Nil(t, m.Find(ctx, ""))

	records := m.Records(ctx)
	require.Len(t, records, 1)
	require.Equal(t, 2, records[0].UsageCount)
}

func TestMatchMemory_AutoLearn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _, sink := newTestMemory(t)

	req := LearnRequest{SaveRequest: SaveRequest{Description: "Zeynep Demir", AthleteID: "a1"}, Confidence: 84}
	require.False(t, m.AutoLearn(ctx, req))
	require.Empty(t, m.Records(ctx))

	req.Confidence = 85
	require.True(t, m.AutoLearn(ctx, req))

	req.AthleteID = "a2"
	req.Confidence = 99
	require.False(t, m.AutoLearn(ctx, req), "known description is never overwritten")

	records := m.Records(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, "a1", records[0].AthleteID)
	assert.Equal(t, 85, records[0].Confidence)
	require.Len(t, sink.Learned, 1)
	assert.Equal(t, string(domain.ProvenanceComputed), sink.Learned[0].Source)
}

func TestMatchMemory_CorruptStateDegradesToEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, s, _ := newTestMemory(t)
	require.NoError(t, s.Set(ctx, defaultMemoryKey, []byte("{not json")))

	require.Nil(t, m.Find(ctx, "Ahmet Yılmaz"))
	require.Empty(t, m.Records(ctx))
	require.Zero(t, m.Statistics(ctx).TotalMatches)

	require.NoError(t, m.Save(ctx, SaveRequest{Description: "Ahmet Yılmaz", AthleteID: "a1"}))
	require.Len(t, m.Records(ctx), 1)
}

func TestMatchMemory_Statistics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _, _ := newTestMemory(t)
	for _, d := range []struct{ desc, id string }{
		{"Ahmet Yılmaz", "a1"},
		{"Zeynep Demir", "a2"},
		{"Mehmet Kaya", "a3"},
	} {
		require.NoError(t, m.Save(ctx, SaveRequest{Description: d.desc, AthleteID: d.id}))
	}
	require.NotNil(t, m.Find(ctx, "Zeynep Demir"))
	require.NotNil(t, m.Find(ctx, "zeynep demir"))

	stats := m.Statistics(ctx)
	require.Equal(t, 3, stats.TotalMatches)
	require.Equal(t, 5, stats.TotalUsage)
	require.NotNil(t, stats.MostUsed)
	require.Equal(t, "a2", stats.MostUsed.AthleteID)
	require.Len(t, stats.Recent, 3)
	require.Equal(t, []string{"a2", "a3", "a1"}, []string{stats.Recent[0].AthleteID, stats.Recent[1].AthleteID, stats.Recent[2].AthleteID})
}

func TestMatchMemory_RecentIsCapped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _, _ := newTestMemory(t)
	names := []string{"Ali", "Veli", "Ayşe", "Fatma", "Emre", "Deniz", "Selin", "Burak", "Ceren", "Onur", "Kerem", "Derya"}
	for i, n := range names {
		require.NoError(t, m.Save(ctx, SaveRequest{Description: n + " Öztürk Kayıt " + n, AthleteID: names[i]}))
	}
	stats := m.Statistics(ctx)
	require.Equal(t, len(names), stats.TotalMatches)
	require.Len(t, stats.Recent, 10)
	require.Equal(t, "Derya", stats.Recent[0].AthleteID)
}

func TestMatchMemory_RemoveAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, s, _ := newTestMemory(t)
	require.NoError(t, m.Save(ctx, SaveRequest{Description: "Ahmet Yılmaz", AthleteID: "a1"}))
	require.NoError(t, m.Save(ctx, SaveRequest{Description: "Zeynep Demir", AthleteID: "a2"}))

	require.ErrorIs(t, m.Remove(ctx, "missing"), domain.ErrNotFound)

	id := m.Records(ctx)[0].ID
	require.NoError(t, m.Remove(ctx, id))
	records := m.Records(ctx)
	require.Len(t, records, 1)
	require.Equal(t, "a2", records[0].AthleteID)

	m.Clear(ctx)
	require.Empty(t, m.Records(ctx))
	_, err := s.Get(ctx, defaultMemoryKey)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMatchMemory_CustomKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, s, _ := newTestMemory(t)
	m.Key = "memory_v2"
	require.NoError(t, m.Save(ctx, SaveRequest{Description: "Ahmet Yılmaz", AthleteID: "a1"}))

	_, err := s.Get(ctx, "memory_v2")
	require.NoError(t, err)
	_, err = s.Get(ctx, defaultMemoryKey)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNewMatchMemory_NilStorePanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { NewMatchMemory(nil) })
}
