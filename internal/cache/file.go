package cache

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// fileEntry is the persisted cache entry format: epoch seconds, with a
// null expires_at for entries that never expire.
type fileEntry struct {
	Key       string `json:"key"`
	Value     []byte `json:"value"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt *int64 `json:"expires_at"`
}

// File stores one JSON file per key under a cache directory, named by a
// content hash of the key. Hash collisions overwrite each other; that is
// an accepted limitation. Corrupt or unreadable files read as misses.
// Writes replace the whole file via rename, so concurrent readers never
// observe a partial write.
type File struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewFile creates a file-backed cache rooted at dir, creating it if
// needed.
func NewFile(dir string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %q: %w", dir, err)
	}
	return &File{dir: dir, logger: logger, now: time.Now}, nil
}

// SetClock replaces the time source. Test hook.
func (f *File) SetClock(now func() time.Time) { f.now = now }

func (f *File) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.dir, base64.RawURLEncoding.EncodeToString(sum[:])+".json")
}

// Get returns the value for key. Missing, expired, or unreadable entries
// are misses; expired files are deleted on read.
func (f *File) Get(key string) ([]byte, bool) {
	path := f.path(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("cache read failed", "path", path, "error", err)
		}
		return nil, false
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		f.logger.Warn("cache entry corrupt", "path", path, "error", err)
		return nil, false
	}

	if entry.ExpiresAt != nil && f.now().Unix() >= *entry.ExpiresAt {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			f.logger.Warn("cache expiry delete failed", "path", path, "error", err)
		}
		return nil, false
	}

	return entry.Value, true
}

// Set writes value under key. Returns false (and logs) on any I/O
// failure instead of surfacing an error.
func (f *File) Set(key string, value []byte, ttl time.Duration) bool {
	entry := fileEntry{
		Key:       key,
		Value:     value,
		CreatedAt: f.now().Unix(),
	}
	if ttl > 0 {
		exp := f.now().Add(ttl).Unix()
		entry.ExpiresAt = &exp
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		f.logger.Warn("cache entry encode failed", "key", key, "error", err)
		return false
	}

	path := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".cache-*")
	if err != nil {
		f.logger.Warn("cache temp file failed", "dir", f.dir, "error", err)
		return false
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		f.logger.Warn("cache write failed", "path", path, "error", err)
		return false
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		f.logger.Warn("cache write failed", "path", path, "error", err)
		return false
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		f.logger.Warn("cache rename failed", "path", path, "error", err)
		return false
	}

	return true
}

// Delete removes key, reporting whether a file was present.
func (f *File) Delete(key string) bool {
	err := os.Remove(f.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("cache delete failed", "key", key, "error", err)
		}
		return false
	}
	return true
}

// Clear removes every entry file in the cache directory.
func (f *File) Clear() bool {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		f.logger.Warn("cache clear failed", "dir", f.dir, "error", err)
		return false
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			f.logger.Warn("cache clear failed", "path", path, "error", err)
		}
	}
	return true
}
