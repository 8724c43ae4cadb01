package services

import (
	"sync"
	"time"
)

const (
	snapshotTTL        = 5 * time.Minute
	cacheSweepInterval = 10 * time.Minute
)

type cacheEntry struct {
	snapshot  *MetricSnapshot
	expiresAt time.Time
}

// SnapshotCache is a TTL cache of aggregated metric snapshots keyed by
// metric ID. Expired entries are dropped lazily on read and in bulk by
// Sweep; there is no size bound because the key space is the metric
// table, which is small by construction.
type SnapshotCache struct {
	mu      sync.Mutex
	entries map[uint]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[uint]cacheEntry),
		ttl:     snapshotTTL,
		now:     time.Now,
	}
}

// Get returns the cached snapshot for a metric, or nil if absent or
// expired. An expired entry is removed on the spot.
func (c *SnapshotCache) Get(metricID uint) *MetricSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[metricID]
	if !ok {
		return nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, metricID)
		return nil
	}
	return entry.snapshot
}

// Put stores a snapshot, resetting its TTL.
func (c *SnapshotCache) Put(metricID uint, snapshot *MetricSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[metricID] = cacheEntry{
		snapshot:  snapshot,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Invalidate drops a single metric's entry. Called after data-point
// writes so the next read re-aggregates.
func (c *SnapshotCache) Invalidate(metricID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, metricID)
}

// Clear drops everything.
func (c *SnapshotCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint]cacheEntry)
}

// Sweep removes all expired entries and reports how many were dropped.
func (c *SnapshotCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of entries currently held, including any that
// have expired but not yet been swept.
func (c *SnapshotCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweeper runs Sweep on a fixed interval until stop is closed.
func (c *SnapshotCache) StartSweeper(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(cacheSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
