package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when a key has no record.
var ErrNotFound = errors.New("cache record not found")

// Record is the unit persisted by a Store. Data is opaque to the store.
type Record struct {
	Key       string
	Data      []byte
	CreatedAt time.Time
	TTL       time.Duration
	Size      int64 // len(Data) as stored; List fills it and leaves Data nil
}

// Store persists records. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	Put(ctx context.Context, rec Record) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]Record, error)
	// Prune deletes every record for which drop returns true and reports
	// how many were removed.
	Prune(ctx context.Context, drop func(Record) bool) (int, error)
	Clear(ctx context.Context) error
	Close() error
}
