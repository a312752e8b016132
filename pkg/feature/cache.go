package feature

import (
	"sync"
	"time"
)

// flagCache is a short-lived read cache over feature definitions. It
// holds a single expiry timestamp for the whole map: any populate pushes
// the expiry forward, and any write to the underlying store drops the
// map in full. Readers racing an invalidation see at worst a value that
// was current within the TTL; an invalidation is never lost because it
// holds the write lock.
type flagCache struct {
	mu        sync.RWMutex
	entries   map[string]*Feature
	expiresAt time.Time
	ttl       time.Duration
}

func newFlagCache(ttl time.Duration) *flagCache {
	return &flagCache{
		entries: make(map[string]*Feature),
		ttl:     ttl,
	}
}

// get returns the cached feature if present and the cache has not
// expired. Negative lookups are never cached, so a miss always reaches
// the store.
func (c *flagCache) get(id string, now time.Time) (*Feature, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !now.Before(c.expiresAt) {
		return nil, false
	}
	f, ok := c.entries[id]
	return f, ok
}

// put stores a freshly read feature and resets the expiry to now+ttl.
func (c *flagCache) put(id string, f *Feature, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = f
	c.expiresAt = now.Add(c.ttl)
}

// invalidate drops the whole cache. Called after every successful
// create, update, or delete; per-key invalidation is deliberately not
// offered.
func (c *flagCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Feature)
	c.expiresAt = time.Time{}
}

func (c *flagCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
