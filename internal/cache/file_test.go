package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestFileCache(t *testing.T) *File {
	t.Helper()
	fc, err := NewFile(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	return fc
}

func TestFile_SetThenGet(t *testing.T) {
	fc := newTestFileCache(t)

	if !fc.Set("topic", []byte(`{"a":1}`), time.Minute) {
		t.Fatal("Set returned false")
	}
	got, ok := fc.Get("topic")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

func TestFile_PersistedEntryFormat(t *testing.T) {
	fc := newTestFileCache(t)
	fc.Set("k", []byte("v"), time.Hour)

	matches, err := filepath.Glob(filepath.Join(fc.dir, "*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one cache file, got %v (err %v)", matches, err)
	}

	raw, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	var entry struct {
		Key       string `json:"key"`
		Value     []byte `json:"value"`
		CreatedAt int64  `json:"created_at"`
		ExpiresAt *int64 `json:"expires_at"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("cache file is not valid JSON: %v", err)
	}
	if entry.Key != "k" || string(entry.Value) != "v" {
		t.Errorf("unexpected entry contents: %+v", entry)
	}
	if entry.CreatedAt == 0 || entry.ExpiresAt == nil {
		t.Errorf("timestamps not persisted: %+v", entry)
	}
}

func TestFile_NoTTLPersistsNullExpiry(t *testing.T) {
	fc := newTestFileCache(t)
	fc.Set("k", []byte("v"), 0)

	matches, _ := filepath.Glob(filepath.Join(fc.dir, "*.json"))
	raw, _ := os.ReadFile(matches[0])

	var entry map[string]any
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if entry["expires_at"] != nil {
		t.Errorf("expires_at = %v, want null", entry["expires_at"])
	}
}

func TestFile_ExpiredEntryIsDeletedOnRead(t *testing.T) {
	fc := newTestFileCache(t)
	now := time.Now()
	fc.SetClock(func() time.Time { return now })

	fc.Set("k", []byte("v"), time.Minute)

	now = now.Add(2 * time.Minute)
	if _, ok := fc.Get("k"); ok {
		t.Fatal("expected miss after expiry")
	}

	matches, _ := filepath.Glob(filepath.Join(fc.dir, "*.json"))
	if len(matches) != 0 {
		t.Errorf("expired file should be deleted, found %v", matches)
	}
}

func TestFile_CorruptFileIsAMiss(t *testing.T) {
	fc := newTestFileCache(t)
	fc.Set("k", []byte("v"), time.Minute)

	matches, _ := filepath.Glob(filepath.Join(fc.dir, "*.json"))
	if err := os.WriteFile(matches[0], []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt file: %v", err)
	}

	if _, ok := fc.Get("k"); ok {
		t.Error("corrupt entry should read as a miss")
	}
}

func TestFile_DeleteAndClear(t *testing.T) {
	fc := newTestFileCache(t)
	fc.Set("a", []byte("1"), 0)
	fc.Set("b", []byte("2"), 0)

	if !fc.Delete("a") {
		t.Error("Delete of present key should return true")
	}
	if fc.Delete("a") {
		t.Error("Delete of absent key should return false")
	}

	if !fc.Clear() {
		t.Error("Clear returned false")
	}
	matches, _ := filepath.Glob(filepath.Join(fc.dir, "*.json"))
	if len(matches) != 0 {
		t.Errorf("Clear left files behind: %v", matches)
	}
}

func TestFile_DistinctKeysDistinctFiles(t *testing.T) {
	fc := newTestFileCache(t)
	fc.Set("one", []byte("1"), 0)
	fc.Set("two", []byte("2"), 0)

	got, ok := fc.Get("one")
	if !ok || string(got) != "1" {
		t.Errorf("key one: got %q, %v", got, ok)
	}
	got, ok = fc.Get("two")
	if !ok || string(got) != "2" {
		t.Errorf("key two: got %q, %v", got, ok)
	}
}
