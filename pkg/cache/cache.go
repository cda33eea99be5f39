// Package cache holds statically evaluated expressions keyed by their
// source text.
//
// A compile is the whole static pass of an expression (name resolution,
// function lookup, type checks), so hosts applying one query to many
// documents compile it once. Concurrent lookups of a key that is still
// compiling wait for the running compile instead of starting their own.
//
//	c := cache.New[*evaluator.Compiled](1024)
//	compiled, hit, err := c.GetOrCompile("//book[@id = 1]", compile)
package cache

import (
	"container/list"
	"sync"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

type slot[V any] struct {
	key   string
	value V
}

// inflight is a compile in progress; waiters block on done.
type inflight[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	// Shared counts lookups that waited on another caller's compile.
	Shared    uint64
}

// Cache is a bounded LRU of compiled values. It is safe for concurrent
// use.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	slots    map[string]*list.Element
	pending  map[string]*inflight[V]
	stats    Stats
}

// New creates a cache holding at most capacity values.
func New[V any](capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[V]{
		capacity: capacity,
		order:    list.New(),
		slots:    make(map[string]*list.Element, capacity),
		pending:  make(map[string]*inflight[V]),
	}
}

// Get returns the value stored under key and marks it recently used.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(key)
}

func (c *Cache[V]) lookupLocked(key string) (V, bool) {
	el, ok := c.slots[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	c.order.MoveToFront(el)
	return el.Value.(*slot[V]).value, true
}

// Set stores value under key, evicting the least recently used value when
// the cache is full.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(key, value)
}

func (c *Cache[V]) storeLocked(key string, value V) {
	if el, ok := c.slots[key]; ok {
		el.Value.(*slot[V]).value = value
		c.order.MoveToFront(el)
		return
	}
	for c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.slots, oldest.Value.(*slot[V]).key)
		c.stats.Evictions++
	}
	c.slots[key] = c.order.PushFront(&slot[V]{key: key, value: value})
}

// GetOrCompile returns the value stored under key, or runs compile and
// stores its result. hit reports whether compile was skipped, either
// because the value was cached or because another caller compiled it.
//
// Errors are returned to every waiter of that compile but never stored;
// the next lookup of a failing key compiles again.
func (c *Cache[V]) GetOrCompile(key string, compile func() (V, error)) (value V, hit bool, err error) {
	c.mu.Lock()
	if v, ok := c.lookupLocked(key); ok {
		c.mu.Unlock()
		return v, true, nil
	}
	if call, ok := c.pending[key]; ok {
		c.stats.Shared++
		c.mu.Unlock()
		<-call.done
		return call.value, true, call.err
	}
	call := &inflight[V]{done: make(chan struct{})}
	c.pending[key] = call
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, key)
		if call.err == nil {
			c.storeLocked(key, call.value)
		}
		c.mu.Unlock()
		close(call.done)
	}()
	call.value, call.err = compile()
	return call.value, false, call.err
}

// Len returns the number of stored values.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Capacity returns the maximum number of stored values.
func (c *Cache[V]) Capacity() int { return c.capacity }

// Stats returns a snapshot of the counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Invalidate drops the value stored under key.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.slots[key]; ok {
		c.order.Remove(el)
		delete(c.slots, key)
	}
}

// Clear drops every stored value. Counters are kept.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.slots = make(map[string]*list.Element, c.capacity)
}
