// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

// Package cache provides the ephemeral GET-response cache used by the HTTP
// client. Entries are keyed by request URL, expire after a TTL, and are never
// persisted.
package cache

import (
	"strings"
	"sync"
	"time"
)

// entry is a node in the LRU's doubly-linked list.
type entry[V any] struct {
	key       string
	value     V
	prev      *entry[V]
	next      *entry[V]
	expiresAt time.Time
}

// LRU is a thread-safe least-recently-used cache with TTL support.
// Get, Add and eviction are all O(1): a doubly-linked list maintains recency
// order and a map provides lookup. Expired entries are dropped lazily on Get.
type LRU[V any] struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration

	items map[string]*entry[V]

	// head.next is most recently used, tail.prev is least recently used.
	head *entry[V]
	tail *entry[V]

	hits   int64
	misses int64
}

// NewLRU creates an LRU cache with the given capacity and TTL.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 256
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*entry[V], capacity),
		head:     &entry[V]{},
		tail:     &entry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get retrieves a value. Found entries move to the front (most recently used).
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		c.misses++
		return zero, false
	}

	c.moveToFront(e)
	c.hits++
	return e.value, true
}

// Add inserts or updates a value. At capacity the least recently used entry
// is evicted.
func (c *LRU[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(c.ttl)
		c.moveToFront(e)
		return
	}

	if len(c.items) >= c.capacity {
		c.removeEntry(c.tail.prev)
	}

	e := &entry[V]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.items[key] = e
	c.pushFront(e)
}

// Remove deletes a single key. Removing a missing key is a no-op.
func (c *LRU[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.removeEntry(e)
	}
}

// RemovePrefix deletes every key with the given prefix. Used to invalidate a
// resource's cached listings after a mutation.
func (c *LRU[V]) RemovePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeEntry(e)
			removed++
		}
	}
	return removed
}

// Purge drops all entries.
func (c *LRU[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Len returns the number of entries, including any not-yet-collected expired
// ones.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns cumulative hit and miss counts.
func (c *LRU[V]) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// pushFront inserts e right after the head sentinel. Must hold mu.
func (c *LRU[V]) pushFront(e *entry[V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

// moveToFront relinks e as most recently used. Must hold mu.
func (c *LRU[V]) moveToFront(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.pushFront(e)
}

// removeEntry unlinks e and deletes it from the map. Must hold mu.
func (c *LRU[V]) removeEntry(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}
