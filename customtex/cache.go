package customtex

import (
	"sync"
	"sync/atomic"
)

// Texture is a decoded replacement texture ready to upload in place of a
// guest texture's original pixels. Exactly one of RGBA or Compressed is
// populated: PNG replacements decode fully to RGBA, while DDS/KTX
// replacements keep their block-compressed payload untouched for direct
// upload to the host backend.
type Texture struct {
	Width, Height uint32
	RGBA          []byte // tightly packed, 4 bytes per pixel; nil if Compressed != nil

	// Compressed, when non-nil, is the raw block-compressed payload read
	// from a DDS or KTX replacement file. No CPU-side decode is performed
	// on it; the backend uploads it as-is.
	Compressed *CompressedTexture
}

// CompressedTexture is the block-compressed payload and format tag
// extracted from a DDS or KTX container, passed through unmodified.
type CompressedTexture struct {
	// Format identifies the compression scheme: a DDS FourCC ("DXT1",
	// "DXT5", "DX10", ...) or a KTX glInternalFormat token rendered as
	// "GL:0x<hex>" when no FourCC equivalent applies.
	Format string
	Data   []byte
}

const (
	shardCount = 16
	shardMask  = shardCount - 1
)

// Stats reports cumulative hit/miss/eviction counts for a Cache.
type Stats struct {
	Len       int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// Cache is a sharded, capacity-bounded LRU cache mapping a guest texture's
// content hash to its decoded replacement. Sharding by the low bits of the
// hash keeps lock contention low when many distinct textures are queried
// every frame.
type Cache struct {
	shards   [shardCount]*shard
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard struct {
	mu      sync.RWMutex
	entries map[uint64]*node
	head    *node
	tail    *node
	len     int
}

type node struct {
	key        uint64
	value      *Texture
	prev, next *node
}

// NewCache returns a Cache with capacity entries per shard. A non-positive
// capacity defaults to 256.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	c := &Cache{capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[uint64]*node)}
	}
	return c
}

func (c *Cache) shardFor(hash uint64) *shard { return c.shards[hash&shardMask] }

// Get returns the cached texture for hash, moving it to the front of its
// shard's LRU list on hit.
func (c *Cache) Get(hash uint64) (*Texture, bool) {
	s := c.shardFor(hash)
	s.mu.Lock()
	n, ok := s.entries[hash]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}
	s.moveToFront(n)
	v := n.value
	s.mu.Unlock()
	c.hits.Add(1)
	return v, true
}

// Set stores tex under hash, evicting the shard's least recently used entry
// if it is now over capacity.
func (c *Cache) Set(hash uint64, tex *Texture) {
	s := c.shardFor(hash)
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.entries[hash]; ok {
		n.value = tex
		s.moveToFront(n)
		return
	}
	for s.len >= c.capacity {
		if !s.evictOldest() {
			break
		}
		c.evictions.Add(1)
	}
	n := &node{key: hash, value: tex}
	s.pushFront(n)
	s.entries[hash] = n
}

// Delete removes hash from the cache, reporting whether it was present.
func (c *Cache) Delete(hash uint64) bool {
	s := c.shardFor(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.entries[hash]
	if !ok {
		return false
	}
	s.unlink(n)
	delete(s.entries, hash)
	return true
}

// Len returns the total number of entries across all shards.
func (c *Cache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[uint64]*node)
		s.head, s.tail, s.len = nil, nil, 0
		s.mu.Unlock()
	}
}

// Stats returns the cache's cumulative hit/miss/eviction counters.
func (c *Cache) Stats() Stats {
	hits, misses, evictions := c.hits.Load(), c.misses.Load(), c.evictions.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{Len: c.Len(), Hits: hits, Misses: misses, Evictions: evictions, HitRate: hitRate}
}

func (s *shard) pushFront(n *node) {
	n.prev, n.next = nil, s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
}

func (s *shard) moveToFront(n *node) {
	if n == s.head {
		return
	}
	s.unlink(n)
	s.pushFront(n)
}

func (s *shard) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		s.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
}

func (s *shard) evictOldest() bool {
	if s.tail == nil {
		return false
	}
	oldest := s.tail
	s.unlink(oldest)
	delete(s.entries, oldest.key)
	return true
}
