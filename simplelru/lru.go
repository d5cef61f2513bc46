package simplelru

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned when an LRU is constructed with a
// non-positive capacity.
var ErrInvalidSize = errors.New("simplelru: size must be positive")

// EvictCallback is used to get a callback when a cache entry is evicted
type EvictCallback[K comparable, V any] func(key K, value V)

// maxPrealloc bounds how many nodes NewLRU reserves up front. Larger
// caches grow the arena as entries arrive.
const maxPrealloc = 1 << 16

// root is the sentinel node: root.next is the most recently used entry
// and root.prev the least recently used one.
const root = 0

// LRU implements a non-thread safe fixed size LRU cache
type LRU[K comparable, V any] struct {
	nodes   []node[K, V]
	items   map[K]int
	free    int
	size    int
	onEvict EvictCallback[K, V]
}

// node is a slot in the arena. Free slots are chained through next.
type node[K comparable, V any] struct {
	key   K
	value V
	prev  int
	next  int
}

// NewLRU constructs an LRU of the given size
func NewLRU[K comparable, V any](size int, onEvict EvictCallback[K, V]) (*LRU[K, V], error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	prealloc := size
	if prealloc > maxPrealloc {
		prealloc = maxPrealloc
	}
	c := &LRU[K, V]{
		nodes:   make([]node[K, V], 1, prealloc+1),
		items:   make(map[K]int, prealloc),
		size:    size,
		onEvict: onEvict,
	}
	return c, nil
}

// Purge is used to completely clear the cache.
func (c *LRU[K, V]) Purge() {
	if c.onEvict != nil {
		for i := c.nodes[root].prev; i != root; i = c.nodes[i].prev {
			c.onEvict(c.nodes[i].key, c.nodes[i].value)
		}
	}
	// the arena must not pin purged keys and values
	clear(c.nodes[:cap(c.nodes)])
	c.nodes = c.nodes[:1]
	c.free = 0
	clear(c.items)
}

// Put adds a value to the cache, or replaces the value of a resident key.
// Either way the key becomes the most recently used. Returns true if an
// eviction occurred.
func (c *LRU[K, V]) Put(key K, value V) (evicted bool) {
	if i, ok := c.items[key]; ok {
		c.nodes[i].value = value
		c.moveToFront(i)
		return false
	}

	var i int
	if len(c.items) >= c.size {
		// Reuse the victim's slot rather than freeing and reallocating it.
		i = c.nodes[root].prev
		victim := c.nodes[i]
		c.unlink(i)
		delete(c.items, victim.key)
		if c.onEvict != nil {
			c.onEvict(victim.key, victim.value)
		}
		evicted = true
	} else {
		i = c.alloc()
	}

	c.nodes[i].key = key
	c.nodes[i].value = value
	c.pushFront(i)
	c.items[key] = i
	return evicted
}

// Get looks up a key's value from the cache, marking it most recently
// used on a hit.
func (c *LRU[K, V]) Get(key K) (value V, ok bool) {
	if i, ok := c.items[key]; ok {
		c.moveToFront(i)
		return c.nodes[i].value, true
	}
	return value, false
}

// Contains checks if a key is in the cache, without updating the recent-ness.
func (c *LRU[K, V]) Contains(key K) (ok bool) {
	_, ok = c.items[key]
	return ok
}

// Peek returns the key value (or undefined if not found) without updating
// the "recently used"-ness of the key.
func (c *LRU[K, V]) Peek(key K) (value V, ok bool) {
	if i, ok := c.items[key]; ok {
		return c.nodes[i].value, true
	}
	return value, false
}

// Remove removes the provided key from the cache, returning if the
// key was contained.
func (c *LRU[K, V]) Remove(key K) (present bool) {
	if i, ok := c.items[key]; ok {
		c.removeElement(i)
		return true
	}
	return false
}

// RemoveOldest removes the least recently used entry.
func (c *LRU[K, V]) RemoveOldest() (key K, value V, ok bool) {
	i := c.nodes[root].prev
	if i == root {
		return key, value, false
	}
	ent := c.nodes[i]
	c.removeElement(i)
	return ent.key, ent.value, true
}

// GetOldest returns the least recently used entry without touching it.
func (c *LRU[K, V]) GetOldest() (key K, value V, ok bool) {
	i := c.nodes[root].prev
	if i == root {
		return key, value, false
	}
	return c.nodes[i].key, c.nodes[i].value, true
}

// Keys returns the resident keys, from least to most recently used.
func (c *LRU[K, V]) Keys() []K {
	keys := make([]K, 0, len(c.items))
	for i := c.nodes[root].prev; i != root; i = c.nodes[i].prev {
		keys = append(keys, c.nodes[i].key)
	}
	return keys
}

// Len returns the number of items in the cache.
func (c *LRU[K, V]) Len() int {
	return len(c.items)
}

// Cap returns the fixed capacity the cache was built with.
func (c *LRU[K, V]) Cap() int {
	return c.size
}

// alloc hands out a free slot, growing the arena if none is left.
func (c *LRU[K, V]) alloc() int {
	if c.free != 0 {
		i := c.free
		c.free = c.nodes[i].next
		return i
	}
	c.nodes = append(c.nodes, node[K, V]{})
	return len(c.nodes) - 1
}

// release zeroes a slot so it does not pin the key or value, and puts
// it on the free list.
func (c *LRU[K, V]) release(i int) {
	c.nodes[i] = node[K, V]{next: c.free}
	c.free = i
}

func (c *LRU[K, V]) pushFront(i int) {
	first := c.nodes[root].next
	c.nodes[i].prev = root
	c.nodes[i].next = first
	c.nodes[first].prev = i
	c.nodes[root].next = i
}

func (c *LRU[K, V]) unlink(i int) {
	prev, next := c.nodes[i].prev, c.nodes[i].next
	c.nodes[prev].next = next
	c.nodes[next].prev = prev
}

func (c *LRU[K, V]) moveToFront(i int) {
	if c.nodes[root].next == i {
		return
	}
	c.unlink(i)
	c.pushFront(i)
}

// removeElement is used to remove a given list element from the cache
func (c *LRU[K, V]) removeElement(i int) {
	ent := c.nodes[i]
	c.unlink(i)
	delete(c.items, ent.key)
	c.release(i)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
