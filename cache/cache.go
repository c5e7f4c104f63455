// Package cache holds catalog API responses in memory for a short time.
//
// Entries are keyed by request URL and expire after a fixed TTL. Expired or
// cleared payloads are kept aside as stale records so a caller can still serve
// something when the network gives up entirely.
package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	// DefaultCapacity is the number of live entries kept when none is given
	DefaultCapacity = 50
	// DefaultTTL is how long an entry stays fresh when none is given
	DefaultTTL = time.Minute
)

// Entry is a cached response payload
type Entry struct {
	Key      string
	Payload  []byte
	StoredAt time.Time
}

// Cache is a bounded, time-expiring LRU cache of raw JSON payloads
type Cache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	live  *list.List
	items map[string]*list.Element

	// stale records survive expiry, eviction and Clear
	stale      *list.List
	staleItems map[string]*list.Element
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces the time source, mostly useful in tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache holding at most capacity fresh entries for ttl each
func New(capacity int, ttl time.Duration, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Cache{
		capacity:   capacity,
		ttl:        ttl,
		now:        time.Now,
		live:       list.New(),
		items:      make(map[string]*list.Element),
		stale:      list.New(),
		staleItems: make(map[string]*list.Element),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the payload for key if it is still fresh.
// An expired entry is dropped from the live set on this check.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		return nil, false
	}

	ent := node.Value.(*Entry)
	if c.now().Sub(ent.StoredAt) >= c.ttl {
		c.removeLive(node)
		c.keepStale(ent)
		return nil, false
	}

	c.live.MoveToFront(node)
	return ent.Payload, true
}

// Set stores payload under key, evicting the least recently used entry when full
func (c *Cache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.dropStale(key)

	if node, ok := c.items[key]; ok {
		ent := node.Value.(*Entry)
		ent.Payload = payload
		ent.StoredAt = now
		c.live.MoveToFront(node)
		return
	}

	if c.live.Len() >= c.capacity {
		if oldest := c.live.Back(); oldest != nil {
			c.removeLive(oldest)
			c.keepStale(oldest.Value.(*Entry))
		}
	}

	c.items[key] = c.live.PushFront(&Entry{Key: key, Payload: payload, StoredAt: now})
}

// Stale returns the last payload stored for key regardless of its age
func (c *Cache) Stale(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		return node.Value.(*Entry).Payload, true
	}
	if node, ok := c.staleItems[key]; ok {
		return node.Value.(*Entry).Payload, true
	}
	return nil, false
}

// Clear removes every live entry. Payloads remain reachable through Stale.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for node := c.live.Back(); node != nil; node = node.Prev() {
		c.keepStale(node.Value.(*Entry))
	}
	c.items = make(map[string]*list.Element)
	c.live.Init()
}

// Len returns the number of live entries, fresh or not yet checked
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.live.Len()
}

// TTL returns the freshness window
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) removeLive(node *list.Element) {
	c.live.Remove(node)
	delete(c.items, node.Value.(*Entry).Key)
}

func (c *Cache) keepStale(ent *Entry) {
	if node, ok := c.staleItems[ent.Key]; ok {
		node.Value = ent
		c.stale.MoveToFront(node)
		return
	}

	c.staleItems[ent.Key] = c.stale.PushFront(ent)
	if c.stale.Len() > c.capacity {
		oldest := c.stale.Back()
		c.stale.Remove(oldest)
		delete(c.staleItems, oldest.Value.(*Entry).Key)
	}
}

func (c *Cache) dropStale(key string) {
	if node, ok := c.staleItems[key]; ok {
		c.stale.Remove(node)
		delete(c.staleItems, key)
	}
}
