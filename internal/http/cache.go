package http

import (
	"container/list"
	"sync"
	"time"

	"kalendar/internal/core"
)

// monthCache is an LRU cache with TTL for built Month view models, keyed
// by the request's notation string. Building a month is cheap; the cache
// exists so repeated hits on the same month skip the build entirely.
type monthCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type monthCacheItem struct {
	key       string
	month     core.Month
	expiresAt time.Time
}

func newMonthCache(maxSize int, ttl time.Duration) *monthCache {
	return &monthCache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *monthCache) get(key string) (core.Month, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		return core.Month{}, false
	}

	item := elem.Value.(*monthCacheItem)

	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return core.Month{}, false
	}

	c.lru.MoveToFront(elem)
	return item.month, true
}

func (c *monthCache) set(key string, month core.Month) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &monthCacheItem{
		key:       key,
		month:     month,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *monthCache) removeElement(elem *list.Element) {
	item := elem.Value.(*monthCacheItem)
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// cleanExpired removes all expired entries and returns how many were removed.
func (c *monthCache) cleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element

	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*monthCacheItem)
		if now.After(item.expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem)
	}

	return len(toRemove)
}

func (c *monthCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
