package curve

import (
	"log/slog"
	"sync"
)

// TableCache memoizes generated tables keyed by the identity-relevant parts
// of the generator config (start, end, maturity set, seed, inversion
// windows). Any distinct key always misses; there is no implicit
// module-level state. Cached tables are immutable, so handing the same
// *RateTable to concurrent readers is safe. When an insert would push the
// cache past maxEntries the whole map is flushed; regeneration is
// deterministic, so a flush only costs recomputation.
type TableCache struct {
	mu     sync.RWMutex
	tables map[string]*RateTable
	hits   int64
	misses int64

	generator  *SeriesGenerator
	maxEntries int
	logger     *slog.Logger
}

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewTableCache creates a cache backed by the given generator. maxEntries
// bounds the number of resident tables; zero or negative means unbounded.
func NewTableCache(generator *SeriesGenerator, maxEntries int, logger *slog.Logger) *TableCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableCache{
		tables:     make(map[string]*RateTable),
		generator:  generator,
		maxEntries: maxEntries,
		logger:     logger.With(slog.String("component", "table_cache")),
	}
}

// GetOrGenerate returns the cached table for cfg's key, generating and
// storing it on a miss. The returned bool reports whether this was a hit.
func (c *TableCache) GetOrGenerate(cfg GeneratorConfig) (*RateTable, bool, error) {
	key := cfg.CacheKey()

	c.mu.RLock()
	table, ok := c.tables[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return table, true, nil
	}

	table, err := c.generator.Generate(cfg)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	// A concurrent miss may have raced us here; keeping the first stored
	// table preserves pointer identity for earlier callers. Either table is
	// byte-identical because generation is deterministic.
	if existing, ok := c.tables[key]; ok {
		table = existing
	} else {
		if c.maxEntries > 0 && len(c.tables) >= c.maxEntries {
			c.tables = make(map[string]*RateTable, c.maxEntries)
			c.logger.Debug("table cache flushed", slog.Int("max_entries", c.maxEntries))
		}
		c.tables[key] = table
	}
	c.misses++
	c.mu.Unlock()

	c.logger.Debug("table cache miss", slog.String("key", key))
	return table, false, nil
}

// Invalidate drops the entry for cfg's key, if present.
func (c *TableCache) Invalidate(cfg GeneratorConfig) {
	c.mu.Lock()
	delete(c.tables, cfg.CacheKey())
	c.mu.Unlock()
}

// Clear drops every cached table.
func (c *TableCache) Clear() {
	c.mu.Lock()
	c.tables = make(map[string]*RateTable)
	c.mu.Unlock()
}

// Stats returns a snapshot of entry count and hit/miss counters.
func (c *TableCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Entries: len(c.tables), Hits: c.hits, Misses: c.misses}
}
