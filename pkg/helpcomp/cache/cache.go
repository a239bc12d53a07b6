// Package cache stores assembled Commands and rendered scripts under a
// content fingerprint with a time-to-live.
//
// Expiry is lazy: a stale entry is reported as a miss when it is looked up
// and removed by InvalidateExpired. Any failure to read or decode an entry
// is a miss as well; the cache never fails a run.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

// DefaultTTL is the lifetime of entries stored without an explicit TTL.
const DefaultTTL = 6 * time.Hour

// Cache wraps a Store with compression, expiry and typed accessors.
type Cache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used to report misses caused by errors.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Cache over store.
func New(store Store, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, errors.New("cache store is nil")
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	c := &Cache{
		store:   store,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  zap.NewNop(),
		encoder: encoder,
		decoder: decoder,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the default entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Lookup returns the unexpired entry stored for fp and kind.
func (c *Cache) Lookup(ctx context.Context, fp Fingerprint, kind Kind) (Entry, bool) {
	key := storeKey(fp, kind)
	rec, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return Entry{}, false
	}

	entry := Entry{
		Fingerprint: fp,
		Kind:        kind,
		CreatedAt:   rec.CreatedAt,
		TTL:         rec.TTL,
		Size:        rec.Size,
	}
	if entry.Expired(c.now()) {
		c.logger.Debug("cache entry expired", zap.String("fingerprint", fp.Short()), zap.String("kind", string(kind)))
		return Entry{}, false
	}

	payload, err := c.decoder.DecodeAll(rec.Data, nil)
	if err != nil {
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = c.store.Delete(ctx, key)
		return Entry{}, false
	}
	entry.Payload = payload
	return entry, true
}

// Store records payload under fp and kind. A non-positive ttl selects the
// default.
func (c *Cache) Store(ctx context.Context, fp Fingerprint, kind Kind, payload []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.store.Put(ctx, Record{
		Key:       storeKey(fp, kind),
		Data:      c.encoder.EncodeAll(payload, nil),
		CreatedAt: c.now(),
		TTL:       ttl,
	})
}

// LookupCommand returns the cached Command for fp.
func (c *Cache) LookupCommand(ctx context.Context, fp Fingerprint) (*model.Command, bool) {
	entry, ok := c.Lookup(ctx, fp, KindIR)
	if !ok {
		return nil, false
	}
	cmd, err := model.Decode(entry.Payload)
	if err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.String("fingerprint", fp.Short()), zap.Error(err))
		_ = c.store.Delete(ctx, storeKey(fp, KindIR))
		return nil, false
	}
	return cmd, true
}

// StoreCommand caches cmd under fp.
func (c *Cache) StoreCommand(ctx context.Context, fp Fingerprint, cmd *model.Command) error {
	data, err := model.Encode(cmd)
	if err != nil {
		return err
	}
	return c.Store(ctx, fp, KindIR, data, 0)
}

// RenderedFingerprint derives the key of the script rendered from fp.
func RenderedFingerprint(fp Fingerprint, format string, compat bool) Fingerprint {
	return fp.Variant(format, strconv.FormatBool(compat))
}

// LookupRendered returns the cached script for fp in format.
func (c *Cache) LookupRendered(ctx context.Context, fp Fingerprint, format string, compat bool) (string, bool) {
	entry, ok := c.Lookup(ctx, RenderedFingerprint(fp, format, compat), KindRendered)
	if !ok {
		return "", false
	}
	return string(entry.Payload), true
}

// StoreRendered caches a rendered script.
func (c *Cache) StoreRendered(ctx context.Context, fp Fingerprint, format string, compat bool, script string) error {
	return c.Store(ctx, RenderedFingerprint(fp, format, compat), KindRendered, []byte(script), 0)
}

// InvalidateExpired removes stale and unreadable entries and reports how
// many were removed.
func (c *Cache) InvalidateExpired(ctx context.Context) (int, error) {
	now := c.now()
	return c.store.Prune(ctx, func(rec Record) bool {
		return rec.CreatedAt.IsZero() || now.After(rec.CreatedAt.Add(rec.TTL))
	})
}

// List returns metadata of every stored entry, newest first. Payloads are
// not loaded.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	records, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		fp, kind := splitStoreKey(rec.Key)
		entries = append(entries, Entry{
			Fingerprint: fp,
			Kind:        kind,
			CreatedAt:   rec.CreatedAt,
			TTL:         rec.TTL,
			Size:        rec.Size,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].Fingerprint < entries[j].Fingerprint
	})
	return entries, nil
}

// Now returns the cache clock's current time.
func (c *Cache) Now() time.Time {
	return c.now()
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Close releases the store and the codecs.
func (c *Cache) Close() error {
	c.decoder.Close()
	encErr := c.encoder.Close()
	if err := c.store.Close(); err != nil {
		return err
	}
	return encErr
}
