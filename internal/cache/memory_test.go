package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestMemory_SetThenGet(t *testing.T) {
	m := NewMemory(10)

	if !m.Set("k", []byte("v"), time.Minute) {
		t.Fatal("Set returned false")
	}
	got, ok := m.Get("k")
	if !ok {
		t.Fatal("Get: expected hit")
	}
	if string(got) != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory(10)
	now := time.Now()
	m.SetClock(func() time.Time { return now })

	m.Set("k", []byte("v"), time.Minute)

	if _, ok := m.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(time.Minute + time.Second)
	if _, ok := m.Get("k"); ok {
		t.Error("expected miss after TTL elapsed")
	}
	if m.Len() != 0 {
		t.Errorf("expired entry should be removed on read, len = %d", m.Len())
	}
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	m := NewMemory(10)
	now := time.Now()
	m.SetClock(func() time.Time { return now })

	m.Set("k", []byte("v"), 0)

	now = now.Add(1000 * time.Hour)
	if _, ok := m.Get("k"); !ok {
		t.Error("entry with zero TTL should never expire")
	}
}

func TestMemory_EvictionBound(t *testing.T) {
	const maxEntries = 50
	m := NewMemory(maxEntries)
	now := time.Now()
	m.SetClock(func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	})

	for i := 0; i < maxEntries*3; i++ {
		m.Set(fmt.Sprintf("key-%d", i), []byte("v"), time.Hour)
	}

	if m.Len() > maxEntries {
		t.Errorf("len = %d, want <= %d", m.Len(), maxEntries)
	}
}

func TestMemory_EvictsOldestFirst(t *testing.T) {
	m := NewMemory(10)
	now := time.Now()
	m.SetClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	})

	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("key-%d", i), []byte("v"), time.Hour)
	}
	// Cache is full; the next insert evicts the oldest 10%.
	m.Set("newest", []byte("v"), time.Hour)

	if _, ok := m.Get("key-0"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := m.Get("newest"); !ok {
		t.Error("newest entry should be present")
	}
	if _, ok := m.Get("key-9"); !ok {
		t.Error("recent entry should survive eviction")
	}
}

func TestMemory_DeleteAndClear(t *testing.T) {
	m := NewMemory(10)
	m.Set("a", []byte("1"), 0)
	m.Set("b", []byte("2"), 0)

	if !m.Delete("a") {
		t.Error("Delete of present key should return true")
	}
	if m.Delete("a") {
		t.Error("Delete of absent key should return false")
	}

	if !m.Clear() {
		t.Error("Clear returned false")
	}
	if m.Len() != 0 {
		t.Errorf("len after Clear = %d, want 0", m.Len())
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory(100)
	done := make(chan struct{})

	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d-%d", g, i)
				m.Set(key, []byte("v"), time.Minute)
				m.Get(key)
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
