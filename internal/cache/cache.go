// Package cache provides the tiered result cache: an in-process map, a
// file-backed store, and a Redis-backed store, all behind one Backend
// interface. A failed cache operation degrades to a miss or a no-op and
// never propagates an error to the caller.
package cache

import (
	"log/slog"
	"time"
)

// Backend is a key-value store with per-entry TTL. A ttl of zero or less
// means the entry never expires. Implementations must be safe for
// concurrent use.
type Backend interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) bool
	Delete(key string) bool
	Clear() bool
}

// Kind selects a backend implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindFile   Kind = "file"
	KindRedis  Kind = "redis"
)

// Valid reports whether k names a known backend.
func (k Kind) Valid() bool {
	return k == KindMemory || k == KindFile || k == KindRedis
}

// Options configures backend construction.
type Options struct {
	Kind       Kind
	Dir        string // file backend
	RedisAddr  string // redis backend
	RedisDB    int
	Prefix     string
	MaxEntries int // memory backend
}

// New builds the configured backend, degrading down the chain
// redis -> file -> memory when a tier cannot be set up. Construction
// never fails; the worst case is a plain in-process cache.
func New(opts Options, logger *slog.Logger) Backend {
	if logger == nil {
		logger = slog.Default()
	}

	switch opts.Kind {
	case KindRedis:
		return NewRedis(opts.RedisAddr, opts.RedisDB, opts.Prefix, logger)
	case KindFile:
		fc, err := NewFile(opts.Dir, logger)
		if err != nil {
			logger.Warn("file cache unavailable, using memory", "dir", opts.Dir, "error", err)
			return NewMemory(opts.MaxEntries)
		}
		return fc
	default:
		return NewMemory(opts.MaxEntries)
	}
}
