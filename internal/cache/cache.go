// Package cache implements the query-result cache: a TTL-bounded LRU keyed
// on (indexName, normalized query, options), with request coalescing via
// singleflight and invalidation on any write to the index, per spec.md §5.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	fdoc "github.com/ftsengine/ftsengine/internal/doc"
	"github.com/ftsengine/ftsengine/internal/query"
)

// DefaultSize and DefaultTTL mirror typical small-deployment defaults; an
// engine exposes these as configuration, per spec.md §5.
const (
	DefaultSize = 1000
	DefaultTTL  = 30 * time.Second
)

// ResultCache caches arbitrary search/facet results keyed by a normalized
// (index, query, options) signature, deduplicating concurrent identical
// requests with singleflight.
type ResultCache struct {
	entries *lru.LRU[string, any]
	group   singleflight.Group

	mu        sync.Mutex
	keysByIdx map[fdoc.IndexName]map[string]struct{}
}

// New creates a ResultCache holding up to size entries for up to ttl.
func New(size int, ttl time.Duration) *ResultCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{
		entries:   lru.NewLRU[string, any](size, nil, ttl),
		keysByIdx: make(map[fdoc.IndexName]map[string]struct{}),
	}
}

// Key derives a stable cache key from an index name, a query tree, and an
// arbitrary options value (pagination, facet requests, ...). Two logically
// identical calls produce the same key regardless of Go struct field
// ordering, since %#v is deterministic per type.
func Key(index fdoc.IndexName, node query.Node, opts any) string {
	combined := fmt.Sprintf("%s\x00%#v\x00%#v", index, node, opts)
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])
}

// GetOrCompute returns the cached value for key if present and unexpired;
// otherwise it calls compute exactly once across any concurrently racing
// callers for the same key (singleflight), caches the result under index,
// and returns it.
func (c *ResultCache) GetOrCompute(ctx context.Context, index fdoc.IndexName, key string, compute func(context.Context) (any, error)) (any, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, result)
		c.track(index, key)
		return result, nil
	})
	return v, err
}

func (c *ResultCache) track(index fdoc.IndexName, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys, ok := c.keysByIdx[index]
	if !ok {
		keys = make(map[string]struct{})
		c.keysByIdx[index] = keys
	}
	keys[key] = struct{}{}
}

// Invalidate drops every cached entry for index, per spec.md §5: any
// write to an index invalidates its cached query results.
func (c *ResultCache) Invalidate(index fdoc.IndexName) {
	c.mu.Lock()
	keys := c.keysByIdx[index]
	delete(c.keysByIdx, index)
	c.mu.Unlock()

	for key := range keys {
		c.entries.Remove(key)
	}
}

// Len returns the number of entries currently cached, for diagnostics.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}
