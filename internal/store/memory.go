package store

import (
	"context"
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	valuePrefix = "value:"
	pagePrefix  = "page:"
)

// MemoryStore implements Store in process memory. State does not survive the
// process; it backs tests and one-off runs.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }

func (m *MemoryStore) Close() error {
	m.c.Flush()
	return nil
}

func (m *MemoryStore) GetValue(_ context.Context, name string) ([]byte, error) {
	return m.get(valuePrefix + name), nil
}

func (m *MemoryStore) SetValue(_ context.Context, name string, value []byte) error {
	m.c.Set(valuePrefix+name, slices.Clone(value), gocache.NoExpiration)
	return nil
}

func (m *MemoryStore) DeleteValue(_ context.Context, name string) error {
	m.c.Delete(valuePrefix + name)
	return nil
}

func (m *MemoryStore) GetCachedPage(_ context.Context, url string) ([]byte, error) {
	return m.get(pagePrefix + url), nil
}

func (m *MemoryStore) SetCachedPage(_ context.Context, url string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		m.c.Delete(pagePrefix + url)
		return nil
	}
	m.c.Set(pagePrefix+url, slices.Clone(data), ttl)
	return nil
}

func (m *MemoryStore) DeleteExpiredPages(context.Context) (int, error) {
	before := m.c.ItemCount()
	m.c.DeleteExpired()
	return before - m.c.ItemCount(), nil
}

func (m *MemoryStore) get(key string) []byte {
	v, ok := m.c.Get(key)
	if !ok {
		return nil
	}
	b, _ := v.([]byte)
	return slices.Clone(b)
}
