// Package cache holds successful read responses from the contract backend.
package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 100
)

type entry struct {
	key      string
	value    json.RawMessage
	storedAt time.Time
	elem     *list.Element
}

// Stats is a point-in-time view of the cache. Keys are in insertion order.
type Stats struct {
	Size      int      `json:"size"`
	Keys      []string `json:"keys"`
	Evictions int64    `json:"evictions"`
	Expired   int64    `json:"expired"`
}

// Cache is a TTL and size bounded map. When full, the oldest inserted key is dropped.
// Refreshing an existing key does not move it in the eviction order.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	order     *list.List
	ttl       time.Duration
	capacity  int
	now       func() time.Time
	evictions int64
	expired   int64
}

type Option func(*Cache)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(ttl time.Duration, capacity int, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		entries:  make(map[string]*entry),
		order:    list.New(),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the canonical key: action, underscore, params as JSON with sorted keys.
func Key(action string, params map[string]string) string {
	if params == nil {
		params = map[string]string{}
	}
	// encoding/json writes map keys in sorted order.
	b, _ := json.Marshal(params)
	return action + "_" + string(b)
}

// Get returns the stored payload if it is younger than the TTL.
// An expired entry is removed on the spot.
func (c *Cache) Get(action string, params map[string]string) (json.RawMessage, bool) {
	key := Key(action, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.remove(e)
		c.expired++
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Put(action string, params map[string]string, value json.RawMessage) {
	key := Key(action, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.storedAt = c.now()
		return
	}

	if len(c.entries) >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			c.remove(oldest.Value.(*entry))
			c.evictions++
		}
	}

	e := &entry{key: key, value: value, storedAt: c.now()}
	e.elem = c.order.PushBack(e)
	c.entries[key] = e
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.order.Init()
}

// CleanupExpired drops every expired entry and reports how many went.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*entry)
		if now.Sub(e.storedAt) >= c.ttl {
			c.remove(e)
			removed++
		}
		el = next
	}
	c.expired += int64(removed)
	return removed
}

// RunCleanup sweeps expired entries every interval until ctx is done.
func (c *Cache) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CleanupExpired()
		}
	}
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry).key)
	}
	return Stats{
		Size:      len(c.entries),
		Keys:      keys,
		Evictions: c.evictions,
		Expired:   c.expired,
	}
}

// caller holds mu
func (c *Cache) remove(e *entry) {
	c.order.Remove(e.elem)
	delete(c.entries, e.key)
}
