package cache

import "time"

// Stats is a read-only snapshot of cache counters and entry ages.
type Stats struct {
	Size           int           `json:"size"`
	MaxSize        int           `json:"max_size"`
	Hits           uint64        `json:"hits"`
	Misses         uint64        `json:"misses"`
	Evictions      uint64        `json:"evictions"`
	Expirations    uint64        `json:"expirations"`
	OldestEntryAge time.Duration `json:"oldest_entry_age_ns"`
	NewestEntryAge time.Duration `json:"newest_entry_age_ns"`
}

// Stats returns current counters. Entry ages are measured from
// createdAt; expired entries awaiting a sweep are skipped, so the
// oldest age never exceeds the longest TTL. Both ages are zero when
// no live entry exists.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:        c.lru.Len(),
		MaxSize:     c.cfg.MaxSize,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}

	now := c.now()
	first := true
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*entry)
		if e.expiredAt(now) {
			continue
		}
		age := now.Sub(e.createdAt)
		if first {
			s.OldestEntryAge = age
			s.NewestEntryAge = age
			first = false
			continue
		}
		if age > s.OldestEntryAge {
			s.OldestEntryAge = age
		}
		if age < s.NewestEntryAge {
			s.NewestEntryAge = age
		}
	}
	return s
}
