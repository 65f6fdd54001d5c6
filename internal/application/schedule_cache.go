package application

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const scheduleCacheKey = "schedule:all"

// scheduleCache holds the most recent master schedule listing. Every write
// bumps the generation and purges it. A listing read before a write is
// dropped instead of stored, so the TTL only bounds staleness against other
// processes sharing the database.
type scheduleCache struct {
	mu         sync.Mutex
	generation uint64
	lru        *expirable.LRU[string, []ScheduleEntry]
}

func newScheduleCache(ttl time.Duration) *scheduleCache {
	if ttl <= 0 {
		return nil
	}
	return &scheduleCache{lru: expirable.NewLRU[string, []ScheduleEntry](1, nil, ttl)}
}

func (c *scheduleCache) Get() ([]ScheduleEntry, bool) {
	if c == nil {
		return nil, false
	}
	entries, ok := c.lru.Get(scheduleCacheKey)
	if !ok {
		return nil, false
	}
	return cloneEntries(entries), true
}

// Generation identifies the cache state a repository read starts from.
func (c *scheduleCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// StoreIfCurrent caches entries unless a write invalidated the cache since
// gen was taken. It reports whether entries were stored.
func (c *scheduleCache) StoreIfCurrent(gen uint64, entries []ScheduleEntry) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.lru.Add(scheduleCacheKey, cloneEntries(entries))
	return true
}

func (c *scheduleCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.lru.Purge()
}

func cloneEntries(entries []ScheduleEntry) []ScheduleEntry {
	if entries == nil {
		return nil
	}
	out := make([]ScheduleEntry, len(entries))
	for i, e := range entries {
		e.SessionChair = cloneString(e.SessionChair)
		e.SessionCoordinator = cloneString(e.SessionCoordinator)
		out[i] = e
	}
	return out
}
