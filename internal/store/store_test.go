package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/aidat/internal/database"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStore(db)
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "payments", []byte(`[{"id":"p1"}]`)))
			got, err := s.Get(ctx, "payments")
			require.NoError(t, err)
			require.JSONEq(t, `[{"id":"p1"}]`, string(got))

			require.NoError(t, s.Set(ctx, "payments", []byte(`[]`)))
			got, err = s.Get(ctx, "payments")
			require.NoError(t, err)
			require.Equal(t, "[]", string(got))

			require.NoError(t, s.Delete(ctx, "payments"))
			_, err = s.Get(ctx, "payments")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Update(ctx, "counter", func(cur []byte) ([]byte, error) {
				require.Nil(t, cur)
				return []byte("1"), nil
			}))
			require.NoError(t, s.Update(ctx, "counter", func(cur []byte) ([]byte, error) {
				require.Equal(t, "1", string(cur))
				return []byte("2"), nil
			}))
			got, err := s.Get(ctx, "counter")
			require.NoError(t, err)
			require.Equal(t, "2", string(got))

			boom := errors.New("boom")
			err = s.Update(ctx, "counter", func([]byte) ([]byte, error) { return []byte("3"), boom })
			require.ErrorIs(t, err, boom)
			got, err = s.Get(ctx, "counter")
			require.NoError(t, err)
			require.Equal(t, "2", string(got), "failed update must not write")

			require.NoError(t, s.Update(ctx, "counter", func([]byte) ([]byte, error) { return nil, nil }))
			_, err = s.Get(ctx, "counter")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

type item struct {
	ID string `json:"id"`
}

func TestLoadList_MissingAndCorrupt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	items, err := LoadList[item](ctx, s, "items")
	require.NoError(t, err)
	require.Empty(t, items)

	require.NoError(t, SaveList(ctx, s, "items", []item{{ID: "a"}, {ID: "b"}}))
	items, err = LoadList[item](ctx, s, "items")
	require.NoError(t, err)
	require.Equal(t, []item{{ID: "a"}, {ID: "b"}}, items)

	require.NoError(t, s.Set(ctx, "items", []byte("{not json")))
	_, err = LoadList[item](ctx, s, "items")
	require.Error(t, err)
}

func TestUpdateList_ReplacesCorruptDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "items", []byte("{not json")))

	var corrupt error
	err := UpdateList(ctx, s, "items", func(err error) { corrupt = err }, func(items []item) ([]item, error) {
		require.Empty(t, items)
		return append(items, item{ID: "fresh"}), nil
	})
	require.NoError(t, err)
	require.Error(t, corrupt)

	items, err := LoadList[item](ctx, s, "items")
	require.NoError(t, err)
	require.Equal(t, []item{{ID: "fresh"}}, items)
}

func TestSQLiteStore_Keys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newSQLiteStore(t)
	require.NoError(t, s.Set(ctx, "b", []byte("[]")))
	require.NoError(t, s.Set(ctx, "a", []byte("[]")))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, keys)
}
