// Package research wraps the aggregator with the result cache so that
// repeated requests for the same topic inside the TTL window skip the
// network fan-out entirely. The wrapper is explicit composition: the
// uncached aggregation function and the cache backend are injected, and
// no hidden global lookup exists.
package research

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/briefcast/briefcast/internal/cache"
	"github.com/briefcast/briefcast/internal/models"
	"github.com/briefcast/briefcast/internal/validate"
)

// DefaultTTL is the default result cache window. Aggregation is
// expensive and a few hours of staleness is acceptable for this domain.
const DefaultTTL = 2 * time.Hour

// sanitize bounds for cached payloads.
const (
	storageMaxDepth     = 10
	storageMaxStringLen = 10000
)

// AggregateFunc is the uncached aggregation operation.
type AggregateFunc func(ctx context.Context, topic string, daysBack, maxPerPlatform int) (*models.AggregateResult, error)

// CachedAggregator serves aggregation requests through a cache backend.
type CachedAggregator struct {
	fn          AggregateFunc
	cache       cache.Backend
	ttl         time.Duration
	fingerprint string
	logger      *slog.Logger
}

// New creates a cache-aware wrapper around fn. fingerprint must be a
// deterministic digest of the adapter configuration so that config
// changes invalidate prior results.
func New(fn AggregateFunc, backend cache.Backend, ttl time.Duration, fingerprint string, logger *slog.Logger) *CachedAggregator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedAggregator{
		fn:          fn,
		cache:       backend,
		ttl:         ttl,
		fingerprint: fingerprint,
		logger:      logger,
	}
}

// Key returns the deterministic cache key for a request. Same inputs
// always produce the same key.
func (c *CachedAggregator) Key(topic string, daysBack, maxPerPlatform int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d|%s", topic, daysBack, maxPerPlatform, c.fingerprint))
	return fmt.Sprintf("research:%x", sum[:16])
}

// AggregateAll returns the cached result for the request when present,
// otherwise runs the wrapped aggregation and caches a successful result.
// Failed aggregations are never cached.
func (c *CachedAggregator) AggregateAll(ctx context.Context, topic string, daysBack, maxPerPlatform int) (*models.AggregateResult, error) {
	topic, err := validate.Topic(topic)
	if err != nil {
		return nil, err
	}

	key := c.Key(topic, daysBack, maxPerPlatform)
	if raw, ok := c.cache.Get(key); ok {
		var cached models.AggregateResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.logger.Debug("research cache hit", "topic", topic, "key", key)
			return &cached, nil
		}
		// Undecodable entries are treated as misses and overwritten.
		c.logger.Warn("research cache entry undecodable", "key", key)
	}

	result, err := c.fn(ctx, topic, daysBack, maxPerPlatform)
	if err != nil {
		return nil, err
	}

	if raw, err := marshalBounded(result); err != nil {
		c.logger.Warn("research result not cacheable", "topic", topic, "error", err)
	} else {
		c.cache.Set(key, raw, c.ttl)
	}

	return result, nil
}

// marshalBounded encodes a result for storage, passing it through the
// sanitizer so adversarial upstream payloads cannot blow up the cache.
func marshalBounded(result *models.AggregateResult) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return json.Marshal(validate.SanitizeForStorage(decoded, storageMaxDepth, storageMaxStringLen))
}
