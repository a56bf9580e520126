package cache

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// MaxSnapshotAge is the staleness ceiling for restores. A snapshot
// older than this is discarded wholesale rather than partially
// restored.
const MaxSnapshotAge = 24 * time.Hour

// SnapshotEntry is the persisted form of one cache entry. The format
// is internal to placegate and carries no compatibility guarantee.
type SnapshotEntry struct {
	Key            string        `json:"key"`
	Value          []byte        `json:"value"`
	CreatedAt      time.Time     `json:"created_at"`
	TTL            time.Duration `json:"ttl"`
	AccessCount    uint64        `json:"access_count"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
}

// Snapshot is a bounded capture of cache state.
type Snapshot struct {
	Timestamp time.Time       `json:"timestamp"`
	Entries   []SnapshotEntry `json:"entries"`
}

// Snapshot captures up to SnapshotLimit fresh entries, preferring the
// most-accessed ones so the restored cache keeps its hottest keys
// while the persisted blob stays small.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entries := make([]SnapshotEntry, 0, c.lru.Len())
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*entry)
		if e.expiredAt(now) {
			continue
		}
		entries = append(entries, SnapshotEntry{
			Key:            e.key,
			Value:          e.value,
			CreatedAt:      e.createdAt,
			TTL:            e.ttl,
			AccessCount:    e.accessCount,
			LastAccessedAt: e.lastAccessedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AccessCount > entries[j].AccessCount
	})
	if len(entries) > c.cfg.SnapshotLimit {
		entries = entries[:c.cfg.SnapshotLimit]
	}

	return Snapshot{Timestamp: now, Entries: entries}
}

// Restore reloads entries from a snapshot, skipping those whose TTL
// has already elapsed relative to the current wall clock. Original
// creation times and access stats survive the round trip. Returns the
// number of entries restored; a snapshot past MaxSnapshotAge restores
// nothing.
func (c *Cache) Restore(snap Snapshot) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(snap.Timestamp) > MaxSnapshotAge {
		c.logger.Info("Discarding stale cache snapshot",
			zap.Time("snapshot_timestamp", snap.Timestamp),
		)
		return 0
	}

	// Replay in ascending last-access order so the LRU list ends up
	// with the most recently used entries at the front.
	entries := make([]SnapshotEntry, len(snap.Entries))
	copy(entries, snap.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastAccessedAt.Before(entries[j].LastAccessedAt)
	})

	restored := 0
	for _, se := range entries {
		e := &entry{
			key:            se.Key,
			value:          se.Value,
			createdAt:      se.CreatedAt,
			ttl:            se.TTL,
			accessCount:    se.AccessCount,
			lastAccessedAt: se.LastAccessedAt,
		}
		if e.expiredAt(now) {
			continue
		}
		if old, ok := c.entries[se.Key]; ok {
			c.removeElement(old)
		}
		if c.cfg.MaxSize > 0 && c.lru.Len() >= c.cfg.MaxSize {
			c.evictOldest()
		}
		c.entries[se.Key] = c.lru.PushFront(e)
		restored++
	}
	return restored
}
