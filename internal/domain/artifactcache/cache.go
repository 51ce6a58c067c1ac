// Package artifactcache caches intermediate source artifacts keyed by
// (source, date) with an explicit TTL and oldest-first eviction. It is
// injected where needed; there is no package-level instance.
package artifactcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/swing/pkg/metrics"
)

// Key identifies one cached artifact.
type Key struct {
	Source string
	Date   string
}

// Cache stores values of type V.
type Cache[V any] interface {
	// Get returns the value for key if present and not expired.
	Get(ctx context.Context, key Key) (V, bool)
	// Put stores v, evicting the oldest entry when full.
	Put(ctx context.Context, key Key, v V)
	// Invalidate removes key.
	Invalidate(ctx context.Context, key Key)
	Size() int64
}

// node is one entry in the insertion-ordered list.
type node[V any] struct {
	key       Key
	value     V
	expiresAt time.Time
	prev      *node[V]
	next      *node[V]
}

func (n *node[V]) reset() {
	var zero V
	n.key = Key{}
	n.value = zero
	n.expiresAt = time.Time{}
	n.prev, n.next = nil, nil
}

// InMemory implements Cache with a map plus a doubly linked list, newest at head.
type InMemory[V any] struct {
	mu       sync.Mutex
	entries  map[Key]*node[V]
	head     *node[V]
	tail     *node[V]
	size     atomic.Int64
	nodePool sync.Pool
	settings
}

// NewInMemory creates a cache with configuration options.
func NewInMemory[V any](opts ...Option) *InMemory[V] {
	c := &InMemory[V]{settings: defaultSettings()}
	for _, opt := range opts {
		opt(&c.settings)
	}
	c.entries = make(map[Key]*node[V])
	c.nodePool = sync.Pool{New: func() any { return &node[V]{} }}
	return c
}

// Get returns the value for key if present and not expired.
func (c *InMemory[V]) Get(ctx context.Context, key Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		metrics.RecordArtifactCache("miss")
		var zero V
		return zero, false
	}
	if c.ttl > 0 && !c.now().Before(n.expiresAt) {
		c.remove(n)
		metrics.RecordArtifactCache("expired")
		var zero V
		return zero, false
	}
	metrics.RecordArtifactCache("hit")
	return n.value, true
}

// Put stores v under key, replacing any existing entry.
func (c *InMemory[V]) Put(ctx context.Context, key Key, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.remove(old)
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node[V])
	n.key, n.value = key, v
	if c.ttl > 0 {
		n.expiresAt = c.now().Add(c.ttl)
	}
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
	c.entries[key] = n
	c.size.Add(1)
}

// Invalidate removes key if present.
func (c *InMemory[V]) Invalidate(ctx context.Context, key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		c.remove(n)
	}
}

// Size returns the current number of entries.
func (c *InMemory[V]) Size() int64 {
	return c.size.Load()
}

// evictOldest drops the tail. Must be called with c.mu held.
func (c *InMemory[V]) evictOldest() {
	if c.tail == nil {
		return
	}
	c.remove(c.tail)
	metrics.RecordArtifactCache("evicted")
}

// remove unlinks n and returns it to the pool. Must be called with c.mu held.
func (c *InMemory[V]) remove(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	delete(c.entries, n.key)
	n.reset()
	c.nodePool.Put(n)
	c.size.Add(-1)
}
