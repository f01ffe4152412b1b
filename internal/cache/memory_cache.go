package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// MemoryStore is a single-process Store used when redis is not configured.
// OTP codes and rate counters must survive between requests even in dev
// mode, so the no-redis fallback needs real storage, not Noop.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	counts  map[string]counterEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type counterEntry struct {
	value     int64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		counts:  make(map[string]counterEntry),
	}
}

func (c *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if len(value) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

func (c *MemoryStore) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	delete(c.counts, key)
	return nil
}

func (c *MemoryStore) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
		}
	}
	for key := range c.counts {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.counts, key)
		}
	}
	return nil
}

// Incr starts a fresh window when the counter is missing or expired, matching
// redis INCR-with-TTL-on-first-increment semantics.
func (c *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry, ok := c.counts[key]
	if !ok || (!entry.expiresAt.IsZero() && now.After(entry.expiresAt)) {
		entry = counterEntry{}
		if ttl > 0 {
			entry.expiresAt = now.Add(ttl)
		}
	}
	entry.value++
	c.counts[key] = entry
	return entry.value, nil
}
