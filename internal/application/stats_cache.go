package application

import "sync"

// statsCache memoizes season statistics until the next roster mutation.
type statsCache struct {
	mu         sync.RWMutex
	maxEntries int
	entries    map[int][]RefereeStats
}

func newStatsCache(maxEntries int) *statsCache {
	if maxEntries <= 0 {
		maxEntries = 16
	}
	return &statsCache{
		maxEntries: maxEntries,
		entries:    make(map[int][]RefereeStats),
	}
}

func (c *statsCache) Get(season int) ([]RefereeStats, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[season]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneStats(entry), true
}

func (c *statsCache) Store(season int, stats []RefereeStats) {
	if c == nil {
		return
	}
	cloned := cloneStats(stats)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[season]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[season] = cloned
}

func (c *statsCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[int][]RefereeStats)
	c.mu.Unlock()
}

func (c *statsCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *statsCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneStats(stats []RefereeStats) []RefereeStats {
	if stats == nil {
		return nil
	}
	out := make([]RefereeStats, len(stats))
	copy(out, stats)
	return out
}
