package cache

import (
	"sort"
	"sync"
	"time"
)

const defaultMaxEntries = 1000

type memoryEntry struct {
	value     []byte
	createdAt time.Time
	expiresAt time.Time // zero means never
}

// Memory is a mutex-guarded in-process cache with lazy expiry. When an
// insert would exceed the configured size, the oldest 10% of entries by
// insertion time are evicted first.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

// NewMemory creates an in-process cache holding at most maxEntries
// entries. A non-positive maxEntries uses the default of 1000.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Memory{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

// Get returns the value for key, or false if absent or expired. Expired
// entries are removed on the way out.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.expired(e) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. A ttl of zero or less means the entry
// never expires.
func (m *Memory) Set(key string, value []byte, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictIfNeeded()

	e := memoryEntry{value: value, createdAt: m.now()}
	if ttl > 0 {
		e.expiresAt = e.createdAt.Add(ttl)
	}
	m.entries[key] = e
	return true
}

// evictIfNeeded drops the oldest 10% of entries by insertion time when
// the cache is full. Caller must hold the write lock.
func (m *Memory) evictIfNeeded() {
	if len(m.entries) < m.maxEntries {
		return
	}

	type aged struct {
		key       string
		createdAt time.Time
	}
	all := make([]aged, 0, len(m.entries))
	for k, e := range m.entries {
		all = append(all, aged{k, e.createdAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].createdAt.Before(all[j].createdAt) })

	n := m.maxEntries / 10
	if n < 1 {
		n = 1
	}
	for _, a := range all[:n] {
		delete(m.entries, a.key)
	}
}

// Delete removes key, reporting whether it was present.
func (m *Memory) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	return true
}

// Clear removes every entry.
func (m *Memory) Clear() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]memoryEntry)
	return true
}

// Len reports the number of physically present entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats reports cache occupancy.
func (m *Memory) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	expired := 0
	for _, e := range m.entries {
		if m.expired(e) {
			expired++
		}
	}
	return map[string]int{
		"size":            len(m.entries),
		"max_size":        m.maxEntries,
		"expired_entries": expired,
	}
}
