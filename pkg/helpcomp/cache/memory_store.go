package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries bounds a MemoryStore created with a non-positive size.
const DefaultMemoryEntries = 256

// MemoryStore is a bounded in-process store that evicts the least recently
// used record. It backs runs with the cache disabled and tests.
type MemoryStore struct {
	entries *lru.Cache[string, Record]
}

// NewMemoryStore returns a MemoryStore holding at most size records.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	entries, err := lru.New[string, Record](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &MemoryStore{entries: entries}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	rec, ok := s.entries.Get(key)
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Data = append([]byte(nil), rec.Data...)
	return rec, nil
}

func (s *MemoryStore) Put(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec.Data = append([]byte(nil), rec.Data...)
	rec.Size = int64(len(rec.Data))
	s.entries.Add(rec.Key, rec)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.entries.Remove(key)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := s.entries.Keys()
	out := make([]Record, 0, len(keys))
	for _, key := range keys {
		rec, ok := s.entries.Peek(key)
		if !ok {
			continue
		}
		rec.Data = nil
		out = append(out, rec)
	}
	return out, nil
}

func (s *MemoryStore) Prune(ctx context.Context, drop func(Record) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	removed := 0
	for _, key := range s.entries.Keys() {
		rec, ok := s.entries.Peek(key)
		if ok && drop(rec) && s.entries.Remove(key) {
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.entries.Purge()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of records held.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}
