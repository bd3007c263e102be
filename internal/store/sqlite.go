package store

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jask/aidat/internal/database"
	"github.com/jask/aidat/internal/database/repository"
)

// SQLiteStore keeps documents in the kv_records table.
type SQLiteStore struct {
	mu      sync.Mutex
	db      *sql.DB
	records *repository.RecordRepo
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	if db == nil {
		panic("store: nil db")
	}
	return &SQLiteStore{db: db, records: repository.NewRecordRepo(db)}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	rec, err := s.records.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec.Value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == nil {
		return s.records.Delete(ctx, key)
	}
	return s.records.Put(ctx, key, value)
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.records.Delete(ctx, key)
}

func (s *SQLiteStore) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := s.records.WithTx(tx)
		rec, err := repo.Get(ctx, key)
		if err != nil {
			return err
		}
		var current []byte
		if rec != nil {
			current = rec.Value
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return repo.Delete(ctx, key)
		}
		return repo.Put(ctx, key, next)
	})
}

// Keys lists every stored key.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	return s.records.Keys(ctx)
}
