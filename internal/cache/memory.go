package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"classhub.org/internal/obs"
)

const defaultMemoryEntries = 10000

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is a capacity-bounded in-process backend. It supports only the
// single global TTL fixed at construction; per-entry TTLs passed to
// Insert are ignored. Expired entries are dropped lazily on Get.
type Memory struct {
	entries *lru.Cache[string, memoryEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory builds an in-process backend with the given capacity and
// global TTL. A zero ttl means entries never expire.
func NewMemory(maxEntries int, ttl time.Duration) (*Memory, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryEntries
	}
	entries, err := lru.New[string, memoryEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Memory{entries: entries, ttl: ttl, now: time.Now}, nil
}

func (m *Memory) Get(_ context.Context, key string) Result {
	entry, ok := m.entries.Get(key)
	if !ok {
		obs.CacheRequest(KindMemory, "miss")
		return Result{State: NotFound}
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.entries.Remove(key)
		obs.CacheRequest(KindMemory, "miss")
		return Result{State: NotFound}
	}
	obs.CacheRequest(KindMemory, "hit")
	return Result{State: Found, Value: entry.value}
}

func (m *Memory) Insert(_ context.Context, key, value string, _ time.Duration) error {
	entry := memoryEntry{value: value}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.entries.Add(key, entry)
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}

func (m *Memory) InvalidateAll(_ context.Context) error {
	m.entries.Purge()
	return nil
}

func (m *Memory) SupportsPerEntryTTL() bool { return false }

func (m *Memory) Name() string { return KindMemory }
