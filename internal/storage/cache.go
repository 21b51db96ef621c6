package storage

import (
	"container/list"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// ContentCache is an in-memory TTL+LRU cache for fetched page content, keyed
// by the xxh3 hash of the normalized URL. A re-audit inside the TTL reuses
// the cached extraction instead of re-fetching.
type ContentCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[uint64]*list.Element
	order    *list.List

	now func() time.Time
}

type cacheEntry struct {
	key       uint64
	value     []byte
	expiresAt time.Time
}

func NewContentCache(capacity int, ttl time.Duration) *ContentCache {
	if capacity <= 0 {
		capacity = 64
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ContentCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[uint64]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

func cacheKey(url string) uint64 {
	return xxh3.HashString(url)
}

// Get returns the cached value and whether it was present and fresh. Expired
// entries are evicted on access.
func (c *ContentCache) Get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(url)
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.removeLocked(elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores the value, evicting the least recently used entry when over
// capacity.
func (c *ContentCache) Set(url string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(url)
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = c.now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	})
	c.entries[key] = elem

	for c.order.Len() > c.capacity {
		c.removeLocked(c.order.Back())
	}
}

func (c *ContentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *ContentCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*list.Element, c.capacity)
	c.order.Init()
}

func (c *ContentCache) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.order.Remove(elem)
}
