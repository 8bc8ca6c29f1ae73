package notify

import (
	"sync"
)

// recipientCache holds resolved customer and worker display data so the
// dispatcher does not hit the database for every transition of a busy
// order.
type recipientCache struct {
	enabled bool
	maxSize int
	entries map[string]recipient
	mu      sync.RWMutex
}

type recipient struct {
	Name  string
	Email string
}

func newRecipientCache(enabled bool, maxSize int) *recipientCache {
	c := &recipientCache{
		enabled: enabled,
		maxSize: maxSize,
	}
	if enabled {
		c.entries = make(map[string]recipient, maxSize)
	}
	return c
}

func cacheKey(kind, id string) string {
	return kind + "::" + id
}

func (c *recipientCache) Get(kind, id string) (recipient, bool) {
	if !c.enabled || c.entries == nil {
		return recipient{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[cacheKey(kind, id)]
	return r, ok
}

func (c *recipientCache) Set(kind, id string, r recipient) {
	if !c.enabled || c.entries == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[cacheKey(kind, id)] = r
}

func (c *recipientCache) Delete(kind, id string) {
	if !c.enabled || c.entries == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(kind, id))
}

func (c *recipientCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
