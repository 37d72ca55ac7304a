package catalog

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// CachedResolver memoizes resolved grids per request for a bounded time.
// Concurrent identical requests share one resolution. Cached grids are shared
// between callers and must be treated as read-only.
type CachedResolver struct {
	next        Resolver
	ttl         time.Duration
	maxSize     int
	loadTimeout time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	sf      singleflight.Group

	metrics *MetricsRecorder
	logger  zerolog.Logger
	now     func() time.Time
}

type cacheEntry struct {
	grids     []ItemGrid
	storedAt  time.Time
	expiresAt time.Time
}

// NewCachedResolver wraps next with a TTL cache sized by the configuration.
func NewCachedResolver(next Resolver, config *Config) *CachedResolver {
	return &CachedResolver{
		next:        next,
		ttl:         config.CacheTTL,
		maxSize:     config.CacheMaxSize,
		loadTimeout: config.LoadTimeout,
		entries:     make(map[string]cacheEntry),
		metrics:     NewMetricsRecorder(),
		logger:      log.With().Str("component", "grid_cache").Logger(),
		now:         time.Now,
	}
}

// Resolve returns a cached grid when one is fresh, otherwise resolves and stores it.
// Errors are never cached.
func (c *CachedResolver) Resolve(ctx context.Context, req *ResolveRequest) ([]ItemGrid, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := cacheKey(req)
	if grids, ok := c.get(key); ok {
		c.metrics.RecordCacheHit()
		return grids, nil
	}
	c.metrics.RecordCacheMiss()

	// Shared resolutions run detached from the caller, bounded by the load timeout
	ch := c.sf.DoChan(key, func() (interface{}, error) {
		runCtx, cancel := c.detach(ctx)
		defer cancel()

		grids, err := c.next.Resolve(runCtx, req)
		if err != nil {
			return nil, err
		}
		c.put(key, grids)
		return grids, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug().Str("key", key).Msg("Shared in-flight grid resolution")
		}
		return res.Val.([]ItemGrid), nil
	}
}

func (c *CachedResolver) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if c.loadTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, c.loadTimeout)
}

// Invalidate drops every cached grid.
func (c *CachedResolver) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.metrics.RecordCacheEntries(0)
}

// Len returns the number of cached grids, including expired ones not yet evicted.
func (c *CachedResolver) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *CachedResolver) get(key string) ([]ItemGrid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.metrics.RecordCacheEntries(len(c.entries))
		return nil, false
	}
	return e.grids, true
}

func (c *CachedResolver) put(key string, grids []ItemGrid) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked(now)
	}
	c.entries[key] = cacheEntry{grids: grids, storedAt: now, expiresAt: now.Add(c.ttl)}
	c.metrics.RecordCacheEntries(len(c.entries))
}

// evictLocked removes expired entries, then the oldest entry if still full.
func (c *CachedResolver) evictLocked(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxSize {
		return
	}

	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
		}
	}
	delete(c.entries, oldestKey)
}

// cacheKey is independent of the order in which ids were supplied.
func cacheKey(req *ResolveRequest) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(req.PriceListID, 10))

	b.WriteString("|i:")
	b.WriteString(joinSorted(req.Filter.ItemIDs))

	b.WriteString("|c:")
	if req.Filter.CategoryID != nil {
		b.WriteString(strconv.FormatInt(*req.Filter.CategoryID, 10))
	}

	b.WriteString("|t:")
	b.WriteString(joinSorted(req.Filter.TypeIDs))
	return b.String()
}

func joinSorted(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
