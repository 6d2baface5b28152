package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend is the default in-process backend: a map guarded by an
// RWMutex. Expired entries are dropped lazily on Get and swept during Info.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	namespace  string
	payload    []byte
	insertedAt time.Time
	ttl        time.Duration
}

func (e memEntry) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: map[string]memEntry{},
		now:     time.Now,
	}
}

func memKey(namespace, key string) string {
	return namespace + "\x00" + key
}

// Get returns the payload if present and unexpired.
func (m *MemoryBackend) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	k := memKey(namespace, key)
	m.mu.RLock()
	e, ok := m.entries[k]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.expired(m.now()) {
		m.mu.Lock()
		delete(m.entries, k)
		m.mu.Unlock()
		return nil, false, nil
	}
	// Copy so callers can't mutate the stored payload.
	out := make([]byte, len(e.payload))
	copy(out, e.payload)
	return out, true, nil
}

// Set stores the payload, overwriting any previous entry.
func (m *MemoryBackend) Set(_ context.Context, namespace, key string, payload []byte, ttl time.Duration) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.mu.Lock()
	m.entries[memKey(namespace, key)] = memEntry{
		namespace:  namespace,
		payload:    cp,
		insertedAt: m.now(),
		ttl:        ttl,
	}
	m.mu.Unlock()
	return nil
}

// Delete removes one entry.
func (m *MemoryBackend) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	delete(m.entries, memKey(namespace, key))
	m.mu.Unlock()
	return nil
}

// Clear removes everything.
func (m *MemoryBackend) Clear(context.Context) error {
	m.mu.Lock()
	m.entries = map[string]memEntry{}
	m.mu.Unlock()
	return nil
}

// Info sweeps expired entries and reports live counts per namespace.
func (m *MemoryBackend) Info(context.Context) BackendInfo {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
			continue
		}
		counts[e.namespace]++
	}
	return BackendInfo{Kind: "memory", Connected: true, Entries: counts}
}

// Close is a no-op for the memory backend.
func (m *MemoryBackend) Close() error { return nil }
