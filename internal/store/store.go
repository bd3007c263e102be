// Package store defines the key-value contract the engine persists through:
// named JSON documents that are read, replaced or deleted whole.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("store: key not found")

// Store holds JSON documents keyed by name.
//
// Update is the transaction boundary for read-modify-write: fn receives the
// current value (nil when absent) and returns the replacement. Returning a nil
// slice deletes the key. Implementations serialise Update calls on the same
// store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
}

// LoadList decodes the JSON array stored under key. A missing key yields an
// empty list and no error.
func LoadList[T any](ctx context.Context, s Store, key string) ([]T, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeList[T](key, raw)
}

// SaveList encodes items as a JSON array and stores it under key.
func SaveList[T any](ctx context.Context, s Store, key string, items []T) error {
	raw, err := encodeList(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// UpdateList runs fn over the decoded list under key inside one Update.
// A stored value that fails to decode is reported through onCorrupt and
// treated as an empty list, so a damaged document is replaced rather than
// blocking every later write.
func UpdateList[T any](ctx context.Context, s Store, key string, onCorrupt func(error), fn func(items []T) ([]T, error)) error {
	return s.Update(ctx, key, func(current []byte) ([]byte, error) {
		var items []T
		if current != nil {
			decoded, err := decodeList[T](key, current)
			if err != nil {
				if onCorrupt != nil {
					onCorrupt(err)
				}
			} else {
				items = decoded
			}
		}
		next, err := fn(items)
		if err != nil {
			return nil, err
		}
		return encodeList(next)
	})
}

func decodeList[T any](key string, raw []byte) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}

func encodeList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
