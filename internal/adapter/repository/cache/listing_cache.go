package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
	"github.com/subleasefinder/sublease-client/internal/platform/metrics"
)

const (
	DefaultTTL           = 5 * time.Minute
	DefaultMemoryEntries = 100
)

// cachedResult is the persisted form of one entry.
type cachedResult struct {
	Response  domain.ListingResponse `json:"response"`
	Timestamp time.Time              `json:"timestamp"`
	Query     domain.Query           `json:"query"`
}

// ListingCache is a two-tier TTL cache of search results: a bounded LRU in
// memory in front of a persistent Store. Store failures are logged and
// treated as misses.
type ListingCache struct {
	mu      sync.Mutex
	memory  *lru.Cache[string, *cachedResult]
	store   Store
	ttl     time.Duration
	now     func() time.Time
	logger  *logger.Logger
	metrics *metrics.MetricsManager
}

var _ domain.ResponseCache = (*ListingCache)(nil)

type Option func(*ListingCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *ListingCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *ListingCache) { c.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *ListingCache) { c.logger = l }
}

func WithMetrics(m *metrics.MetricsManager) Option {
	return func(c *ListingCache) { c.metrics = m }
}

// NewListingCache builds the cache. store may be nil for a memory-only cache.
func NewListingCache(store Store, memoryEntries int, opts ...Option) (*ListingCache, error) {
	if memoryEntries <= 0 {
		memoryEntries = DefaultMemoryEntries
	}
	memory, err := lru.New[string, *cachedResult](memoryEntries)
	if err != nil {
		return nil, err
	}
	c := &ListingCache{
		memory: memory,
		store:  store,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *ListingCache) fresh(entry *cachedResult) bool {
	return c.now().Sub(entry.Timestamp) <= c.ttl
}

func (c *ListingCache) Get(ctx context.Context, q domain.Query) (*domain.ListingResponse, bool) {
	key := q.CacheKey()
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.memory.Get(key); ok {
		if c.fresh(entry) {
			c.metrics.CacheLookup("memory", true)
			return entry.Response.Clone(), true
		}
		c.logger.Debug("ListingCache.Get: evicting stale entry", "key", key, "age", c.now().Sub(entry.Timestamp))
		c.memory.Remove(key)
		c.removeFromStore(ctx, key)
		c.metrics.CacheLookup("memory", false)
		return nil, false
	}
	c.metrics.CacheLookup("memory", false)

	if c.store == nil {
		return nil, false
	}
	entry, ok := c.loadFromStore(ctx, key)
	if !ok {
		c.metrics.CacheLookup(c.store.Name(), false)
		return nil, false
	}
	if !c.fresh(entry) {
		c.logger.Debug("ListingCache.Get: evicting stale stored entry", "key", key)
		c.removeFromStore(ctx, key)
		c.metrics.CacheLookup(c.store.Name(), false)
		return nil, false
	}
	c.metrics.CacheLookup(c.store.Name(), true)
	c.memory.Add(key, entry)
	return entry.Response.Clone(), true
}

func (c *ListingCache) Put(ctx context.Context, q domain.Query, resp *domain.ListingResponse) {
	if resp == nil {
		return
	}
	key := q.CacheKey()
	entry := &cachedResult{Response: *resp.Clone(), Timestamp: c.now(), Query: q}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory.Add(key, entry)

	if c.store == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("ListingCache.Put: failed to encode entry", "key", key, "error", err)
		return
	}
	if err := c.store.Save(ctx, key, data); err != nil {
		c.logger.Warn("ListingCache.Put: store write failed, keeping memory copy only", "key", key, "store", c.store.Name(), "error", err)
	}
}

func (c *ListingCache) InvalidateAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory.Purge()
	if c.store == nil {
		return
	}
	if err := c.store.Purge(ctx); err != nil {
		c.logger.Warn("ListingCache.InvalidateAll: store purge failed", "store", c.store.Name(), "error", err)
	}
}

func (c *ListingCache) loadFromStore(ctx context.Context, key string) (*cachedResult, bool) {
	data, err := c.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("ListingCache.Get: store read failed, treating as miss", "key", key, "store", c.store.Name(), "error", err)
		}
		return nil, false
	}
	var entry cachedResult
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("ListingCache.Get: corrupt entry, removing", "key", key, "error", err)
		c.removeFromStore(ctx, key)
		return nil, false
	}
	return &entry, true
}

func (c *ListingCache) removeFromStore(ctx context.Context, key string) {
	if c.store == nil {
		return
	}
	if err := c.store.Remove(ctx, key); err != nil {
		c.logger.Debug("ListingCache: store remove failed", "key", key, "error", err)
	}
}
