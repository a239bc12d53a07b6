package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

var epoch = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "files"))
	require.NoError(t, err)
	sqlStore, err := OpenSQLStore(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		"file":   fileStore,
		"sqlite": sqlStore,
		"memory": NewMemoryStore(16),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func sampleCommand() *model.Command {
	cmd := model.NewCommand("tool", model.SourceHelp)
	cmd.Description = "A tool"
	cmd.Options = []model.Option{
		{Short: "-f", Long: "--file", TakesValue: true, ValueName: "FILE", ValueHint: model.HintFile, Description: "Read input"},
		{Short: "-v", Description: "Verbose output"},
	}
	cmd.AddSubcommand(model.NewCommand("build", model.SourceHelp))
	return cmd
}

func TestFingerprint(t *testing.T) {
	base := Key{Path: []string{"git"}, Depth: 1, Text: "usage: git"}
	fp := NewFingerprint(base)

	assert.Len(t, string(fp), 64)
	assert.Equal(t, fp, NewFingerprint(base), "fingerprints are deterministic")

	variants := []Key{
		{Path: []string{"git"}, Depth: 2, Text: "usage: git"},
		{Path: []string{"git"}, Depth: 1, SkipMan: true, Text: "usage: git"},
		{Path: []string{"git"}, Depth: 1, Text: "usage: git "},
		{Path: []string{"git", "log"}, Depth: 1, Text: "usage: git"},
		{Path: []string{"gi", "t"}, Depth: 1, Text: "usage: git"},
	}
	for _, k := range variants {
		assert.NotEqual(t, fp, NewFingerprint(k), "%+v", k)
	}

	assert.NotEqual(t, RenderedFingerprint(fp, "bash", false), RenderedFingerprint(fp, "bash", true))
	assert.NotEqual(t, RenderedFingerprint(fp, "bash", false), RenderedFingerprint(fp, "zsh", false))
	assert.Equal(t, fp.Variant("a", "b"), fp.Variant("a", "b"))
	assert.NotEqual(t, fp.Variant("ab"), fp.Variant("a", "b"))
	assert.Equal(t, string(fp)[:12], fp.Short())
}

func TestEntryExpired(t *testing.T) {
	e := Entry{CreatedAt: epoch, TTL: time.Hour}
	assert.False(t, e.Expired(epoch))
	assert.False(t, e.Expired(epoch.Add(time.Hour)))
	assert.True(t, e.Expired(epoch.Add(time.Hour+time.Nanosecond)))
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "aa0.ir")
			require.ErrorIs(t, err, ErrNotFound)

			rec := Record{Key: "aa1.ir", Data: []byte("payload\nwith newline"), CreatedAt: epoch, TTL: time.Hour}
			require.NoError(t, store.Put(ctx, rec))

			got, err := store.Get(ctx, "aa1.ir")
			require.NoError(t, err)
			assert.Equal(t, rec.Data, got.Data)
			assert.True(t, epoch.Equal(got.CreatedAt), "created at %v", got.CreatedAt)
			assert.Equal(t, time.Hour, got.TTL)

			// a second put replaces the record
			rec.Data = []byte("second")
			rec.CreatedAt = epoch.Add(time.Minute)
			require.NoError(t, store.Put(ctx, rec))
			got, err = store.Get(ctx, "aa1.ir")
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), got.Data)

			require.NoError(t, store.Put(ctx, Record{Key: "bb2.rendered", Data: []byte("x"), CreatedAt: epoch, TTL: time.Second}))
			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			sizes := map[string]int64{}
			for _, r := range list {
				assert.Nil(t, r.Data)
				sizes[r.Key] = r.Size
			}
			assert.Equal(t, map[string]int64{"aa1.ir": 6, "bb2.rendered": 1}, sizes)

			removed, err := store.Prune(ctx, func(r Record) bool { return r.TTL == time.Second })
			require.NoError(t, err)
			assert.Equal(t, 1, removed)
			_, err = store.Get(ctx, "bb2.rendered")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Delete(ctx, "aa1.ir"))
			require.NoError(t, store.Delete(ctx, "aa1.ir"), "deleting a missing key is not an error")
			_, err = store.Get(ctx, "aa1.ir")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Put(ctx, Record{Key: "cc3.ir", Data: []byte("y"), CreatedAt: epoch, TTL: time.Hour}))
			require.NoError(t, store.Clear(ctx))
			list, err = store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestCacheCommandRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			clock := &stepClock{now: epoch}
			c, err := New(store, WithClock(clock.Now), WithTTL(time.Hour), WithLogger(zaptest.NewLogger(t)))
			require.NoError(t, err)

			fp := NewFingerprint(Key{Path: []string{"tool"}, Depth: 1, Text: name})
			_, ok := c.LookupCommand(ctx, fp)
			assert.False(t, ok)

			want := sampleCommand()
			require.NoError(t, c.StoreCommand(ctx, fp, want))

			clock.Advance(30 * time.Minute)
			got, ok := c.LookupCommand(ctx, fp)
			require.True(t, ok)
			assert.Equal(t, want, got)

			clock.Advance(time.Hour)
			_, ok = c.LookupCommand(ctx, fp)
			assert.False(t, ok, "entry is stale after its TTL")

			removed, err := c.InvalidateExpired(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			// a fresh store revives the fingerprint
			require.NoError(t, c.StoreCommand(ctx, fp, want))
			_, ok = c.LookupCommand(ctx, fp)
			assert.True(t, ok)
		})
	}
}

func TestCacheRendered(t *testing.T) {
	ctx := context.Background()
	c, err := New(NewMemoryStore(0))
	require.NoError(t, err)

	fp := NewFingerprint(Key{Path: []string{"tool"}, Text: "help"})
	require.NoError(t, c.StoreRendered(ctx, fp, "bash", false, "plain"))
	require.NoError(t, c.StoreRendered(ctx, fp, "bash", true, "compat"))

	got, ok := c.LookupRendered(ctx, fp, "bash", false)
	require.True(t, ok)
	assert.Equal(t, "plain", got)
	got, ok = c.LookupRendered(ctx, fp, "bash", true)
	require.True(t, ok)
	assert.Equal(t, "compat", got)
	_, ok = c.LookupRendered(ctx, fp, "zsh", false)
	assert.False(t, ok)
	_, ok = c.LookupCommand(ctx, fp)
	assert.False(t, ok, "rendered entries never satisfy IR lookups")
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	c, err := New(store, WithClock(func() time.Time { return epoch }))
	require.NoError(t, err)

	fp := NewFingerprint(Key{Path: []string{"tool"}})
	require.NoError(t, store.Put(ctx, Record{Key: storeKey(fp, KindIR), Data: []byte("not zstd"), CreatedAt: epoch, TTL: time.Hour}))

	_, ok := c.LookupCommand(ctx, fp)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len(), "corrupt entries are dropped")

	// valid compression, invalid IR
	require.NoError(t, c.Store(ctx, fp, KindIR, []byte(`{"name": ""`), 0))
	_, ok = c.LookupCommand(ctx, fp)
	assert.False(t, ok)
}

func TestCacheList(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: epoch}
	c, err := New(NewMemoryStore(0), WithClock(clock.Now))
	require.NoError(t, err)

	first := NewFingerprint(Key{Path: []string{"a"}})
	second := NewFingerprint(Key{Path: []string{"b"}})
	require.NoError(t, c.StoreCommand(ctx, first, sampleCommand()))
	clock.Advance(time.Minute)
	require.NoError(t, c.StoreRendered(ctx, second, "fish", false, "complete -c b"))

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KindRendered, entries[0].Kind, "newest first")
	assert.Equal(t, KindIR, entries[1].Kind)
	assert.Equal(t, first, entries[1].Fingerprint)
	assert.Equal(t, DefaultTTL, entries[1].TTL)
	assert.Positive(t, entries[1].Size)

	require.NoError(t, c.Clear(ctx))
	entries, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCacheCancelledStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore(0)
	c, err := New(store)
	require.NoError(t, err)

	err = c.StoreCommand(ctx, NewFingerprint(Key{Path: []string{"tool"}}), sampleCommand())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Len())
}

func TestFileStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	payloads := make([][]byte, 8)
	for i := range payloads {
		payloads[i] = []byte(strings.Repeat(fmt.Sprintf("%d", i), 4096))
	}

	var wg sync.WaitGroup
	for _, p := range payloads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, Record{Key: "ab.ir", Data: p, CreatedAt: epoch, TTL: time.Hour}))
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "ab.ir")
	require.NoError(t, err)
	assert.Contains(t, payloads, got.Data, "the record is one complete write")

	entries, err := os.ReadDir(filepath.Join(dir, entriesDir, "ab"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files are left behind")
	assert.Equal(t, "ab.ir", entries[0].Name())
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"", "ab", "../escape", "a/b/c", ".hidden"} {
		err := store.Put(context.Background(), Record{Key: key, CreatedAt: epoch})
		assert.Error(t, err, key)
	}
}

func TestFileStorePrunesUnreadableEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	c, err := New(store, WithClock(func() time.Time { return epoch }))
	require.NoError(t, err)

	shard := filepath.Join(dir, entriesDir, "ff")
	require.NoError(t, os.MkdirAll(shard, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(shard, "ffff.ir"), []byte("garbage"), 0o600))

	_, ok := c.Lookup(ctx, "ffff", KindIR)
	assert.False(t, ok)

	removed, err := c.InvalidateExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestMemoryStoreEvicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)
	for _, key := range []string{"k1", "k2", "k3"} {
		require.NoError(t, store.Put(ctx, Record{Key: key, Data: []byte(key)}))
	}
	assert.Equal(t, 2, store.Len())
	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completions", "bash", "tool.bash")
	require.NoError(t, WriteFile(path, []byte("complete -F _tool tool\n")))
	require.NoError(t, WriteFile(path, []byte("complete -F _tool tool\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "complete -F _tool tool\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
