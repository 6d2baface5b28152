package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
)

type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// failingBackend errors on every operation; the cache front must degrade.
type failingBackend struct{}

func (failingBackend) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}
func (failingBackend) Set(context.Context, string, string, []byte, time.Duration) error {
	return errors.New("backend down")
}
func (failingBackend) Delete(context.Context, string, string) error { return nil }
func (failingBackend) Clear(context.Context) error                  { return nil }
func (failingBackend) Info(context.Context) BackendInfo {
	return BackendInfo{Kind: "failing", Connected: false, Entries: map[string]int{}}
}
func (failingBackend) Close() error { return nil }

// ─── Memory backend ───────────────────────────────────────────────────────────

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	if err := m.Set(ctx, NSSearch, "k1", []byte(`{"a":1}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := m.Get(ctx, NSSearch, "k1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("payload mismatch: %s", got)
	}

	// Same key in another namespace is a different entry.
	if _, ok, _ := m.Get(ctx, NSMetadata, "k1"); ok {
		t.Error("namespaces must not share entries")
	}
}

func TestMemoryPayloadIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	src := []byte("original")
	m.Set(ctx, NSSearch, "k", src, time.Minute)
	src[0] = 'X'

	got, _, _ := m.Get(ctx, NSSearch, "k")
	if string(got) != "original" {
		t.Errorf("stored payload mutated through caller slice: %s", got)
	}
	got[0] = 'Y'
	again, _, _ := m.Get(ctx, NSSearch, "k")
	if string(again) != "original" {
		t.Errorf("stored payload mutated through returned slice: %s", again)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	m := NewMemoryBackend()
	m.now = clock.now

	m.Set(ctx, NSSearch, "k", []byte("v"), 5*time.Minute)

	// Exactly TTL old still counts as live.
	clock.advance(5 * time.Minute)
	if _, ok, _ := m.Get(ctx, NSSearch, "k"); !ok {
		t.Error("entry exactly TTL old should still be live")
	}
	clock.advance(time.Nanosecond)
	if _, ok, _ := m.Get(ctx, NSSearch, "k"); ok {
		t.Error("entry past TTL should be a miss")
	}
}

func TestMemoryInfoSweeps(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	m := NewMemoryBackend()
	m.now = clock.now

	m.Set(ctx, NSSearch, "live", []byte("v"), time.Hour)
	m.Set(ctx, NSSearch, "stale", []byte("v"), time.Minute)
	m.Set(ctx, NSTags, "other", []byte("v"), time.Hour)

	clock.advance(10 * time.Minute)
	info := m.Info(ctx)
	if info.Kind != "memory" || !info.Connected {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Entries[NSSearch] != 1 {
		t.Errorf("search entries: expected 1 after sweep, got %d", info.Entries[NSSearch])
	}
	if info.Entries[NSTags] != 1 {
		t.Errorf("tags entries: expected 1, got %d", info.Entries[NSTags])
	}
}

// ─── Cache front ──────────────────────────────────────────────────────────────

func TestCacheNamespaceTTLs(t *testing.T) {
	c := NewWithBackend(NewMemoryBackend(), 0, nil, nil)
	want := map[string]int{
		NSSearch:       300,
		NSMetadata:     3600,
		NSObservations: 86400,
		NSCategories:   86400,
		NSTags:         1800,
	}
	for ns, secs := range want {
		if got := c.TTL(ns); got != time.Duration(secs)*time.Second {
			t.Errorf("TTL(%s): expected %ds, got %s", ns, secs, got)
		}
	}
	// Unknown namespace falls back to the default.
	if got := c.TTL("fred:unknown"); got != c.defaultTTL {
		t.Errorf("unknown namespace TTL: expected default %s, got %s", c.defaultTTL, got)
	}
}

func TestCacheHitMissCounters(t *testing.T) {
	ctx := context.Background()
	c := NewWithBackend(NewMemoryBackend(), 600, nil, nil)

	if _, ok := c.Get(ctx, NSSearch, "k"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Set(ctx, NSSearch, "k", []byte("v"), 0)
	if _, ok := c.Get(ctx, NSSearch, "k"); !ok {
		t.Fatal("stored entry should hit")
	}

	snap := c.Snapshot(ctx)
	ns := snap.Namespaces[NSSearch]
	if ns.Hits != 1 || ns.Misses != 1 {
		t.Errorf("counters: expected 1 hit / 1 miss, got %d / %d", ns.Hits, ns.Misses)
	}
	if ns.Entries != 1 {
		t.Errorf("entries: expected 1, got %d", ns.Entries)
	}
	if snap.Backend != "memory" || !snap.Connected {
		t.Errorf("snapshot backend: %+v", snap)
	}
}

func TestCacheDegradesBackendErrors(t *testing.T) {
	ctx := context.Background()
	c := NewWithBackend(failingBackend{}, 600, nil, nil)

	// Get error is a miss, Set error is swallowed.
	if _, ok := c.Get(ctx, NSSearch, "k"); ok {
		t.Error("backend error should degrade to a miss")
	}
	c.Set(ctx, NSSearch, "k", []byte("v"), 0)

	snap := c.Snapshot(ctx)
	if snap.Namespaces[NSSearch].Misses != 1 {
		t.Errorf("degraded get should count as a miss, got %+v", snap.Namespaces[NSSearch])
	}
}

func TestCacheSetAppliesNamespaceDefault(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	m := NewMemoryBackend()
	m.now = clock.now
	c := NewWithBackend(m, 600, nil, nil)
	c.now = clock.now

	// Zero override: NSSearch default of 300s applies.
	c.Set(ctx, NSSearch, "k", []byte("v"), 0)
	clock.advance(301 * time.Second)
	if _, ok := c.Get(ctx, NSSearch, "k"); ok {
		t.Error("entry should expire after the namespace default TTL")
	}

	// Explicit override wins over the namespace default.
	c.Set(ctx, NSSearch, "k2", []byte("v"), time.Hour)
	clock.advance(30 * time.Minute)
	if _, ok := c.Get(ctx, NSSearch, "k2"); !ok {
		t.Error("override TTL should keep the entry alive")
	}
}

// ─── Disk backend ─────────────────────────────────────────────────────────────

func TestDiskRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	b, err := NewDiskBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskBackend: %v", err)
	}
	defer b.Close()

	clock := newTestClock()
	b.now = clock.now

	if err := b.Set(ctx, NSObservations, "k", []byte(`{"obs":[]}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := b.Get(ctx, NSObservations, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"obs":[]}` {
		t.Errorf("payload mismatch: %s", got)
	}

	clock.advance(2 * time.Minute)
	if _, ok, _ := b.Get(ctx, NSObservations, "k"); ok {
		t.Error("expired disk entry should miss")
	}
}

func TestDiskCorruptEnvelopeIsMiss(t *testing.T) {
	ctx := context.Background()
	b, err := NewDiskBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskBackend: %v", err)
	}
	defer b.Close()

	err = b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(NSSearch))
		if err != nil {
			return err
		}
		return bkt.Put([]byte("bad"), []byte("not json"))
	})
	if err != nil {
		t.Fatalf("seeding corrupt entry: %v", err)
	}

	_, ok, err := b.Get(ctx, NSSearch, "bad")
	if err != nil {
		t.Fatalf("corrupt entry must not error: %v", err)
	}
	if ok {
		t.Error("corrupt entry should be a miss")
	}
}

func TestDiskClearAndInfo(t *testing.T) {
	ctx := context.Background()
	b, err := NewDiskBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskBackend: %v", err)
	}
	defer b.Close()

	b.Set(ctx, NSSearch, "a", []byte("1"), time.Hour)
	b.Set(ctx, NSSearch, "b", []byte("2"), time.Hour)
	b.Set(ctx, NSTags, "c", []byte("3"), time.Hour)

	info := b.Info(ctx)
	if info.Kind != "disk" || !info.Connected {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Entries[NSSearch] != 2 || info.Entries[NSTags] != 1 {
		t.Errorf("entry counts wrong: %+v", info.Entries)
	}

	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := b.Get(ctx, NSSearch, "a"); ok {
		t.Error("Clear should remove all entries")
	}
	// Clear must survive the metadata bucket and leave the db usable.
	if err := b.Set(ctx, NSSearch, "a", []byte("1"), time.Hour); err != nil {
		t.Fatalf("Set after Clear: %v", err)
	}
}

func TestDiskReopenPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := NewDiskBackend(dir)
	if err != nil {
		t.Fatalf("NewDiskBackend: %v", err)
	}
	b.Set(ctx, NSMetadata, "k", []byte("persisted"), time.Hour)
	b.Close()

	b2, err := NewDiskBackend(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b2.Close()
	got, ok, _ := b2.Get(ctx, NSMetadata, "k")
	if !ok || string(got) != "persisted" {
		t.Errorf("entry should survive reopen: ok=%v payload=%s", ok, got)
	}
}

// ─── External backend ─────────────────────────────────────────────────────────

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	b := NewRedisBackendWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer b.Close()

	if _, ok, err := b.Get(ctx, NSSearch, "missing"); ok || err != nil {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := b.Set(ctx, NSSearch, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := b.Get(ctx, NSSearch, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Get: ok=%v err=%v payload=%s", ok, err, got)
	}

	// TTL is delegated to Redis expiry.
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := b.Get(ctx, NSSearch, "k"); ok {
		t.Error("entry should expire via Redis TTL")
	}
}

func TestRedisClearSparesOtherTenants(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisBackendWithClient(client)
	defer b.Close()

	b.Set(ctx, NSSearch, "k", []byte("v"), time.Minute)
	mr.Set("other-app:key", "keep")

	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := b.Get(ctx, NSSearch, "k"); ok {
		t.Error("Clear should remove prefixed keys")
	}
	if v, err := mr.Get("other-app:key"); err != nil || v != "keep" {
		t.Errorf("Clear must not touch foreign keys: v=%q err=%v", v, err)
	}
}

func TestRedisInfoCountsNamespaces(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	b := NewRedisBackendWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer b.Close()

	b.Set(ctx, NSSearch, "a", []byte("1"), time.Minute)
	b.Set(ctx, NSSearch, "b", []byte("2"), time.Minute)
	b.Set(ctx, NSTags, "c", []byte("3"), time.Minute)

	info := b.Info(ctx)
	if info.Kind != "external" || !info.Connected {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Entries[NSSearch] != 2 || info.Entries[NSTags] != 1 {
		t.Errorf("entry counts wrong: %+v", info.Entries)
	}
}
