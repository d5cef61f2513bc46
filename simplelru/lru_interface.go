// Package simplelru provides an exact, non-thread-safe LRU cache with O(1)
// Get and Put. Entries live in an index-addressed arena threaded into a
// doubly linked recency list; the key map points into the arena.
package simplelru

// LRUCache is the interface for simple LRU cache.
type LRUCache[K comparable, V any] interface {
	// Adds a value to the cache, returns true if an eviction occurred and
	// updates the "recently used"-ness of the key.
	Put(key K, value V) bool

	// Returns key's value from the cache and
	// updates the "recently used"-ness of the key. #value, isFound
	Get(key K) (value V, ok bool)

	// Checks if a key exists in cache without updating the recent-ness.
	Contains(key K) (ok bool)

	// Returns key's value without updating the "recently used"-ness of the key.
	Peek(key K) (value V, ok bool)

	// Removes a key from the cache.
	Remove(key K) bool

	// Removes the least recently used entry.
	RemoveOldest() (K, V, bool)

	// Returns the least recently used entry without touching it.
	GetOldest() (K, V, bool)

	// Returns the keys from least to most recently used.
	Keys() []K

	// Returns the number of items in the cache.
	Len() int

	// Returns the fixed capacity.
	Cap() int

	// Clears all cache entries.
	Purge()
}

var _ LRUCache[string, int] = (*LRU[string, int])(nil)
