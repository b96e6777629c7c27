package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryCache implements Backend using sync.Map
type MemoryCache struct {
	data            sync.Map
	maxSize         int
	cleanupInterval time.Duration
	stopCh          chan struct{}
	closeOnce       sync.Once
}

type memoryCacheEntry struct {
	entry     Entry
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int, cleanupInterval time.Duration) *MemoryCache {
	mc := &MemoryCache{
		maxSize:         maxSize,
		cleanupInterval: cleanupInterval,
		stopCh:          make(chan struct{}),
	}
	go mc.cleanupLoop()
	return mc
}

func (m *MemoryCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	val, ok := m.data.Load(key)
	if !ok {
		return Entry{}, false, nil
	}
	e := val.(*memoryCacheEntry)
	if time.Now().After(e.expiresAt) {
		m.data.Delete(key)
		return Entry{}, false, nil
	}
	return e.entry, true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	m.data.Store(key, &memoryCacheEntry{
		entry:     entry,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

func (m *MemoryCache) Close() error {
	m.closeOnce.Do(func() { close(m.stopCh) })
	return nil
}

func (m *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *MemoryCache) cleanup() {
	now := time.Now()
	var entries []struct {
		key       string
		expiresAt time.Time
	}

	// Remove expired entries and collect remaining
	m.data.Range(func(key, value interface{}) bool {
		k := key.(string)
		e := value.(*memoryCacheEntry)
		if now.After(e.expiresAt) {
			m.data.Delete(k)
		} else {
			entries = append(entries, struct {
				key       string
				expiresAt time.Time
			}{k, e.expiresAt})
		}
		return true
	})

	// Evict the entries closest to expiry when over capacity
	if m.maxSize > 0 && len(entries) > m.maxSize {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].expiresAt.Before(entries[j].expiresAt)
		})
		for i := 0; i < len(entries)-m.maxSize; i++ {
			m.data.Delete(entries[i].key)
		}
	}
}
