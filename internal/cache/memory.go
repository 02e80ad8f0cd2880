package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is a per-process TTL cache backed by go-cache. Expired entries
// are invisible on read and removed by go-cache's janitor.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore runs the janitor every checkPeriod; checkPeriod <= 0 disables it.
func NewMemoryStore(defaultTTL, checkPeriod time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(defaultTTL, checkPeriod)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v.([]byte), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	m.c.Set(key, cp, ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}

// Keys scans the live entries; Items already skips expired ones.
func (m *MemoryStore) Keys(_ context.Context, substr string) ([]string, error) {
	var keys []string
	for k := range m.c.Items() {
		if strings.Contains(k, substr) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *MemoryStore) Flush(_ context.Context) error {
	m.c.Flush()
	return nil
}

// Len counts live entries. ItemCount would include expired ones the janitor
// has not reached yet.
func (m *MemoryStore) Len(_ context.Context) (int, error) {
	return len(m.c.Items()), nil
}

// DeleteExpired sweeps now instead of waiting for the janitor.
func (m *MemoryStore) DeleteExpired() {
	m.c.DeleteExpired()
}
