package repository

import (
	"context"
	"database/sql"
	"errors"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RecordRepo handles named JSON records.
type RecordRepo struct {
	db DBTX
}

func NewRecordRepo(db DBTX) *RecordRepo { return &RecordRepo{db: db} }

// WithTx returns a repo bound to tx.
func (r *RecordRepo) WithTx(tx *sql.Tx) *RecordRepo { return &RecordRepo{db: tx} }

// Get returns nil when the key is absent.
func (r *RecordRepo) Get(ctx context.Context, key string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT key, value, version, updated_at FROM kv_records WHERE key = ?`, key)
	var rec Record
	var value string
	if err := row.Scan(&rec.Key, &value, &rec.Version, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.Value = []byte(value)
	return &rec, nil
}

// Put inserts or replaces the value stored under key and bumps its version.
func (r *RecordRepo) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO kv_records(key, value, version, updated_at)
	VALUES (?, ?, 1, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET
	 value=excluded.value,
	 version=kv_records.version + 1,
	 updated_at=CURRENT_TIMESTAMP;
	`, key, string(value))
	return err
}

func (r *RecordRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv_records WHERE key = ?`, key)
	return err
}

// Keys lists every stored key in order.
func (r *RecordRepo) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM kv_records ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
