package repository

import "time"

// Record is a row of the kv_records table: one named JSON document.
type Record struct {
	Key       string
	Value     []byte
	Version   int64
	UpdatedAt time.Time
}
