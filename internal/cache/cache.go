package cache

import "sync"

// Cache is a thread-safe LRU cache. When it holds more than its limit the
// least recently used entries are evicted and passed to the eviction hook.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	order   lruList[K, V]
	limit   int
	onEvict func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a cache holding at most limit entries. A limit of 0 means
// unlimited. onEvict, if not nil, is called for every entry removed by
// eviction, Delete or Purge, outside the cache lock.
func New[K comparable, V any](limit int, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[K, V]),
		limit:   limit,
		onEvict: onEvict,
	}
}

// Get returns the cached value and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.MoveToFront(e)
	return e.value, true
}

// Set stores value under key, replacing (and evicting) any previous value.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	var evicted []*entry[K, V]
	if old, ok := c.entries[key]; ok {
		c.order.Remove(old)
		evicted = append(evicted, old)
	}
	c.entries[key] = c.order.PushFront(key, value)
	evicted = c.trim(evicted)
	c.mu.Unlock()

	c.notify(evicted)
}

// GetOrCreate returns the cached value or stores the result of create.
//
// create runs under the cache lock so a key is never created twice. Errors
// are returned and nothing is cached.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		c.order.MoveToFront(e)
		c.mu.Unlock()
		return e.value, nil
	}
	c.misses++

	value, err := create()
	if err != nil {
		c.mu.Unlock()
		var zero V
		return zero, err
	}
	c.entries[key] = c.order.PushFront(key, value)
	evicted := c.trim(nil)
	c.mu.Unlock()

	c.notify(evicted)
	return value, nil
}

// Delete removes key. It reports whether the key was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
		c.order.Remove(e)
	}
	c.mu.Unlock()

	if ok {
		c.notify([]*entry[K, V]{e})
	}
	return ok
}

// Purge removes all entries, calling the eviction hook for each, oldest
// first.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	evicted := make([]*entry[K, V], 0, c.order.Len())
	for e := c.order.RemoveOldest(); e != nil; e = c.order.RemoveOldest() {
		evicted = append(evicted, e)
	}
	clear(c.entries)
	c.order.Clear()
	c.mu.Unlock()

	c.notify(evicted)
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the entry limit.
func (c *Cache[K, V]) Capacity() int { return c.limit }

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.limit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// trim evicts the oldest entries above the limit, appending them to
// evicted. Caller must hold c.mu.
func (c *Cache[K, V]) trim(evicted []*entry[K, V]) []*entry[K, V] {
	if c.limit <= 0 {
		return evicted
	}
	for len(c.entries) > c.limit {
		e := c.order.RemoveOldest()
		if e == nil {
			break
		}
		delete(c.entries, e.key)
		c.evictions++
		evicted = append(evicted, e)
	}
	return evicted
}

func (c *Cache[K, V]) notify(evicted []*entry[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range evicted {
		c.onEvict(e.key, e.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the entry limit, 0 for unlimited.
	Capacity int
	// Hits is the number of lookups that found an entry.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0 before any lookup.
	HitRate float64
	// Evictions is the number of entries dropped for exceeding Capacity.
	Evictions uint64
}
