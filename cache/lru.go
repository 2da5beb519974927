/*
Copyright 2025 The Tokenmint authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// node is a node in a doubly linked list
// that is used to implement an LRU cache
type node[T any] struct {
	object T
	key    string
	prev   *node[T]
	next   *node[T]
}

func (n *node[T]) addNext(node *node[T]) {
	n.next = node
}

func (n *node[T]) addPrev(node *node[T]) {
	n.prev = node
}

// flight is a fetch in progress for a key. Callers finding a flight for
// their key await its done channel instead of fetching themselves.
type flight[T any] struct {
	object T
	err    error
	done   chan struct{}
}

// LRU is a thread-safe in-memory key/object store.
// All methods are safe for concurrent use.
// All operations are O(1). The hash map lookup is O(1) and so is the doubly
// linked list insertion/deletion.
//
// The LRU is implemented as a doubly linked list, where the most recently accessed
// item is at the front of the list and the least recently accessed item is at
// the back. When an item is accessed, it is moved to the front of the list.
// When the cache is full, the least recently accessed item is removed from the
// back of the list.
//
// Use the NewLRU function to create a new cache that is ready to use.
type LRU[T any] struct {
	cache    map[string]*node[T]
	flights  map[string]*flight[T]
	capacity int
	metrics  *cacheMetrics
	head     *node[T]
	tail     *node[T]
	mu       sync.Mutex
}

var _ Store[any] = &LRU[any]{}

// NewLRU creates a new LRU cache with the given capacity.
func NewLRU[T any](capacity int, opts ...Options) (*LRU[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidSize
	}

	var o storeOptions
	if err := o.apply(opts...); err != nil {
		return nil, fmt.Errorf("failed to apply options: %w", err)
	}

	head := &node[T]{}
	tail := &node[T]{}
	head.addNext(tail)
	tail.addPrev(head)

	lru := &LRU[T]{
		cache:    make(map[string]*node[T]),
		flights:  make(map[string]*flight[T]),
		capacity: capacity,
		head:     head,
		tail:     tail,
	}

	if o.registerer != nil {
		lru.metrics = newCacheMetrics(o.metricsPrefix, o.registerer)
	}

	return lru, nil
}

// Set stores an item in the cache for the given key.
// An existing item for the key is overwritten.
func (c *LRU[T]) Set(key string, object T) {
	c.mu.Lock()
	if curr, ok := c.cache[key]; ok {
		c.delete(curr)
		_ = c.add(&node[T]{key: key, object: object})
		c.mu.Unlock()
		recordRequest(c.metrics, StatusSuccess)
		return
	}

	evicted := c.add(&node[T]{key: key, object: object})
	c.mu.Unlock()
	recordRequest(c.metrics, StatusSuccess)
	if evicted {
		recordEviction(c.metrics)
		return
	}
	recordItemIncrement(c.metrics)
}

func (c *LRU[T]) add(node *node[T]) (evicted bool) {
	prev := c.tail.prev
	prev.addNext(node)
	c.tail.addPrev(node)
	node.addPrev(prev)
	node.addNext(c.tail)

	c.cache[node.key] = node

	if len(c.cache) > c.capacity {
		c.delete(c.head.next)
		return true
	}
	return false
}

// Delete removes the item stored for the given key.
// Does nothing if the key is not in the cache.
func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	node, ok := c.cache[key]
	if !ok {
		c.mu.Unlock()
		recordRequest(c.metrics, StatusSuccess)
		return
	}

	c.delete(node)
	c.mu.Unlock()
	recordRequest(c.metrics, StatusSuccess)
	recordDecrement(c.metrics)
}

func (c *LRU[T]) delete(node *node[T]) {
	node.prev.next, node.next.prev = node.next, node.prev
	node.next, node.prev = nil, nil // avoid memory leaks
	delete(c.cache, node.key)
}

// Get returns the item stored for the given key and whether it was found.
// A found item is moved to the front of the list.
func (c *LRU[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.Lock()
	node, ok := c.cache[key]
	if !ok {
		c.mu.Unlock()
		recordRequest(c.metrics, StatusSuccess)
		recordEvent(c.metrics, CacheEventTypeMiss, "", "", "", "")
		return zero, false
	}
	c.delete(node)
	_ = c.add(node)
	c.mu.Unlock()
	recordRequest(c.metrics, StatusSuccess)
	recordEvent(c.metrics, CacheEventTypeHit, "", "", "", "")
	return node.object, true
}

// GetIfOrSet returns the item stored for the given key if it satisfies the
// given condition, or fetches a new item and stores it for the key.
//
// The fetch is single-flight: at most one fetch per key is in flight at any
// time, and concurrent callers for the same key await the result of the
// in-flight fetch instead of issuing their own. A fetch error is observed by
// every caller of the flight, unchanged.
//
// The fetch runs detached from the calling context, so the cancellation of a
// caller, including the one that initiated the fetch, does not cancel a fetch
// whose result is shared with other callers. A canceled caller unblocks with
// its context error.
//
// The boolean return value indicates whether the item was served from the
// cache.
func (c *LRU[T]) GetIfOrSet(ctx context.Context,
	key string,
	condition func(T) bool,
	fetch func(context.Context) (T, error),
	opts ...Options,
) (T, bool, error) {

	var zero T

	var o storeOptions
	if err := o.apply(opts...); err != nil {
		recordRequest(c.metrics, StatusFailure)
		return zero, false, fmt.Errorf("failed to apply options: %w", err)
	}
	lvs := o.involvedObject.labelValues()

	c.mu.Lock()

	if node, ok := c.cache[key]; ok && (condition == nil || condition(node.object)) {
		c.delete(node)
		_ = c.add(node)
		c.mu.Unlock()
		recordRequest(c.metrics, StatusSuccess)
		recordEvent(c.metrics, CacheEventTypeHit, lvs...)
		return node.object, true, nil
	}

	f, inFlight := c.flights[key]
	if !inFlight {
		f = &flight[T]{done: make(chan struct{})}
		c.flights[key] = f
	}
	c.mu.Unlock()
	recordEvent(c.metrics, CacheEventTypeMiss, lvs...)

	if !inFlight {
		go c.fetchFlight(context.WithoutCancel(ctx), key, f, fetch, &o)
	}

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case <-f.done:
	}
	if f.err != nil {
		recordRequest(c.metrics, StatusFailure)
		return zero, false, f.err
	}
	recordRequest(c.metrics, StatusSuccess)
	return f.object, false, nil
}

// fetchFlight performs the fetch for a flight, stores the result in the
// cache and publishes it to the flight's waiters.
func (c *LRU[T]) fetchFlight(ctx context.Context, key string, f *flight[T],
	fetch func(context.Context) (T, error), o *storeOptions) {

	object, err := fetch(ctx)

	var evicted, inserted bool
	c.mu.Lock()
	delete(c.flights, key)
	if err == nil {
		if curr, ok := c.cache[key]; ok {
			c.delete(curr)
			_ = c.add(&node[T]{key: key, object: object})
		} else {
			evicted = c.add(&node[T]{key: key, object: object})
			inserted = !evicted
		}
	}
	c.mu.Unlock()

	f.object, f.err = object, err
	close(f.done)

	if evicted {
		recordEviction(c.metrics)
	}
	if inserted {
		recordItemIncrement(c.metrics)
	}

	if err == nil && o.debugKey != "" {
		value := any(object)
		if o.debugValueFunc != nil {
			value = o.debugValueFunc(value)
		}
		logr.FromContextOrDiscard(ctx).V(1).Info("new value fetched and cached",
			"key", key, o.debugKey, value)
	}
}

// ListKeys returns a list of the keys currently in the cache.
func (c *LRU[T]) ListKeys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.cache))
	for k := range c.cache {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	recordRequest(c.metrics, StatusSuccess)
	return keys
}

// Resize resizes the cache and returns the number of items removed.
func (c *LRU[T]) Resize(size int) (int, error) {
	if size <= 0 {
		recordRequest(c.metrics, StatusFailure)
		return 0, ErrInvalidSize
	}

	c.mu.Lock()
	overflow := len(c.cache) - size
	c.capacity = size
	if overflow <= 0 {
		c.mu.Unlock()
		recordRequest(c.metrics, StatusSuccess)
		return 0, nil
	}

	for i := 0; i < overflow; i++ {
		c.delete(c.head.next)
		recordEviction(c.metrics)
		recordDecrement(c.metrics)
	}
	c.mu.Unlock()
	recordRequest(c.metrics, StatusSuccess)
	return overflow, nil
}

// RecordCacheEvent records a cache event (cache_miss or cache_hit) for the
// involved object, given its kind, name and namespace, and the operation
// being performed on its behalf.
func (c *LRU[T]) RecordCacheEvent(event, kind, name, namespace, operation string) {
	recordEvent(c.metrics, event, kind, name, namespace, operation)
}

// DeleteCacheEvent deletes the cache event (cache_miss or cache_hit) metric
// for the involved object, given its kind, name and namespace, and the
// operation performed on its behalf.
func (c *LRU[T]) DeleteCacheEvent(event, kind, name, namespace, operation string) {
	deleteEvent(c.metrics, event, kind, name, namespace, operation)
}
