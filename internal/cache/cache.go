// Package cache implements the namespaced TTL store shared by every tool.
// Backends (memory, disk, external) are chosen once at bootstrap and hide
// behind a single capability set, so hot paths never branch on backend type.
// Backend failures degrade: a Get error is a miss, a Set error is logged and
// swallowed.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/derickschaefer/fredmcp/internal/config"
	"github.com/derickschaefer/fredmcp/internal/telemetry"
)

// Well-known namespaces. Each namespace has its own default TTL and metric
// labels; these values are configuration, not contracts.
const (
	NSSearch       = "fred:search"
	NSMetadata     = "fred:metadata"
	NSObservations = "fred:observations"
	NSCategories   = "fred:categories"
	NSTags         = "fred:tags"
)

// defaultTTLs maps namespaces to their default TTL in seconds.
var defaultTTLs = map[string]int{
	NSSearch:       300,
	NSMetadata:     3600,
	NSObservations: 86400,
	NSCategories:   86400,
	NSTags:         1800,
}

// Backend is the capability set every cache backend implements.
// Implementations must be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
	Clear(ctx context.Context) error
	// Info reports backend kind, connectivity, and per-namespace entry counts.
	Info(ctx context.Context) BackendInfo
	Close() error
}

// BackendInfo is the backend portion of a cache snapshot.
type BackendInfo struct {
	Kind      string         `json:"kind"`
	Connected bool           `json:"connected"`
	Entries   map[string]int `json:"entries"`
}

// NamespaceStats is the per-namespace portion of a cache snapshot.
type NamespaceStats struct {
	TTLSeconds int   `json:"ttl_seconds"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Entries    int   `json:"entries"`
}

// Snapshot is the serializable cache state for the system_health tool.
type Snapshot struct {
	Backend    string                    `json:"backend"`
	Connected  bool                      `json:"connected"`
	Namespaces map[string]NamespaceStats `json:"namespaces"`
}

// Cache is the namespaced front over a Backend.
type Cache struct {
	backend    Backend
	defaultTTL time.Duration
	ttls       map[string]time.Duration

	mu     sync.Mutex
	hits   map[string]int64
	misses map[string]int64

	tel    *telemetry.Registry
	logger *slog.Logger
	now    func() time.Time
}

// New builds a Cache with the backend selected by cfg.CacheBackend.
func New(cfg *config.Config, tel *telemetry.Registry, logger *slog.Logger) (*Cache, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.CacheBackend {
	case "disk":
		backend, err = NewDiskBackend(cfg.CacheDir)
	case "external":
		backend, err = NewRedisBackend(cfg.CacheExternal)
	default:
		backend = NewMemoryBackend()
	}
	if err != nil {
		return nil, err
	}
	return NewWithBackend(backend, cfg.CacheDefaultTTL, tel, logger), nil
}

// NewWithBackend wires an explicit backend; tests use this directly.
func NewWithBackend(backend Backend, defaultTTLSeconds int, tel *telemetry.Registry, logger *slog.Logger) *Cache {
	if defaultTTLSeconds <= 0 {
		defaultTTLSeconds = config.DefaultCacheTTL
	}
	ttls := make(map[string]time.Duration, len(defaultTTLs))
	for ns, secs := range defaultTTLs {
		ttls[ns] = time.Duration(secs) * time.Second
	}
	return &Cache{
		backend:    backend,
		defaultTTL: time.Duration(defaultTTLSeconds) * time.Second,
		ttls:       ttls,
		hits:       map[string]int64{},
		misses:     map[string]int64{},
		tel:        tel,
		logger:     logger,
		now:        time.Now,
	}
}

// TTL returns the default TTL for namespace.
func (c *Cache) TTL(namespace string) time.Duration {
	if ttl, ok := c.ttls[namespace]; ok {
		return ttl
	}
	return c.defaultTTL
}

// Get returns the stored payload if present and unexpired. Backend errors
// degrade to a miss and never propagate.
func (c *Cache) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	start := c.now()
	payload, ok, err := c.backend.Get(ctx, namespace, key)
	c.observeOp(namespace, start)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("cache get degraded to miss", "namespace", namespace, "error", err)
		}
		ok = false
	}
	c.count(namespace, ok)
	if !ok {
		return nil, false
	}
	return payload, true
}

// Set stores the payload under (namespace, key). A zero ttlOverride applies
// the namespace default. Errors are logged and swallowed: the caller's work
// was already done.
func (c *Cache) Set(ctx context.Context, namespace, key string, payload []byte, ttlOverride time.Duration) {
	ttl := ttlOverride
	if ttl <= 0 {
		ttl = c.TTL(namespace)
	}
	start := c.now()
	err := c.backend.Set(ctx, namespace, key, payload, ttl)
	c.observeOp(namespace, start)
	if err != nil && c.logger != nil {
		c.logger.Warn("cache set failed", "namespace", namespace, "error", err)
	}
	if c.tel != nil {
		if info := c.backend.Info(ctx); info.Connected {
			c.tel.SetCacheSize(namespace, info.Entries[namespace])
		}
	}
}

// Delete removes one entry.
func (c *Cache) Delete(ctx context.Context, namespace, key string) error {
	return c.backend.Delete(ctx, namespace, key)
}

// Clear removes every entry in every namespace.
func (c *Cache) Clear(ctx context.Context) error {
	return c.backend.Clear(ctx)
}

// Close releases backend resources.
func (c *Cache) Close() error {
	return c.backend.Close()
}

// Snapshot produces a telemetry snapshot without mutating state.
func (c *Cache) Snapshot(ctx context.Context) Snapshot {
	info := c.backend.Info(ctx)
	snap := Snapshot{
		Backend:    info.Kind,
		Connected:  info.Connected,
		Namespaces: map[string]NamespaceStats{},
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for ns := range c.ttls {
		snap.Namespaces[ns] = NamespaceStats{
			TTLSeconds: int(c.TTL(ns) / time.Second),
			Hits:       c.hits[ns],
			Misses:     c.misses[ns],
			Entries:    info.Entries[ns],
		}
	}
	// Namespaces seen at runtime but not in the default table.
	for ns := range c.hits {
		if _, ok := snap.Namespaces[ns]; !ok {
			snap.Namespaces[ns] = NamespaceStats{
				TTLSeconds: int(c.defaultTTL / time.Second),
				Hits:       c.hits[ns],
				Misses:     c.misses[ns],
				Entries:    info.Entries[ns],
			}
		}
	}
	return snap
}

func (c *Cache) count(namespace string, hit bool) {
	c.mu.Lock()
	if hit {
		c.hits[namespace]++
	} else {
		c.misses[namespace]++
	}
	c.mu.Unlock()
	if c.tel != nil {
		if hit {
			c.tel.CacheHit(namespace)
		} else {
			c.tel.CacheMiss(namespace)
		}
	}
}

func (c *Cache) observeOp(namespace string, start time.Time) {
	if c.tel != nil {
		c.tel.ObserveCacheOp(namespace, float64(c.now().Sub(start).Microseconds())/1000)
	}
}
