package solver

import (
	"sync"
	"sync/atomic"
)

// stateKind separates the three value functions inside one table.
type stateKind uint8

const (
	kindPlayer stateKind = iota
	kindDeal
	kindDealer
)

func (k stateKind) String() string {
	switch k {
	case kindPlayer:
		return "player"
	case kindDeal:
		return "deal"
	case kindDealer:
		return "dealer"
	default:
		return "unknown"
	}
}

// stateKey identifies a memoised state. Every solve starts from the full
// 52-card deck, so the shoe is fully determined by the two hands and does not
// need to be part of the key.
type stateKey uint64

func packKey(kind stateKind, player Hand, suited bool, dealer Hand) stateKey {
	k := uint64(kind)<<47 | player.key()<<23 | dealer.key()
	if suited {
		k |= 1 << 46
	}
	return stateKey(k)
}

const cacheShardCount = 64
const cacheShardMask = cacheShardCount - 1

type cacheShard struct {
	mu      sync.RWMutex
	entries map[stateKey]float64
	hits    atomic.Int64
	misses  atomic.Int64
	flushes atomic.Int64
}

// evCache is the process-wide memo table shared by concurrent solves. Entries
// are written once and never change. When limit is positive each shard may
// hold limit/64 entries; a full shard is flushed whole before the next write.
type evCache struct {
	shards     [cacheShardCount]cacheShard
	shardLimit int
}

// CacheStats summarises memo table usage.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Flushes int64 `json:"flushes"`
}

func newEVCache(limit int) *evCache {
	c := &evCache{}
	if limit > 0 {
		c.shardLimit = limit / cacheShardCount
		if c.shardLimit == 0 {
			c.shardLimit = 1
		}
	}
	for i := 0; i < cacheShardCount; i++ {
		c.shards[i].entries = make(map[stateKey]float64)
	}
	return c
}

func (c *evCache) get(key stateKey) (float64, bool) {
	shard := c.shardFor(key)
	shard.mu.RLock()
	v, ok := shard.entries[key]
	shard.mu.RUnlock()
	if ok {
		shard.hits.Add(1)
	} else {
		shard.misses.Add(1)
	}
	return v, ok
}

func (c *evCache) put(key stateKey, v float64) {
	shard := c.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if c.shardLimit > 0 && len(shard.entries) >= c.shardLimit {
		if _, ok := shard.entries[key]; !ok {
			shard.entries = make(map[stateKey]float64, c.shardLimit)
			shard.flushes.Add(1)
		}
	}
	shard.entries[key] = v
}

// Len returns the number of memoised states.
func (c *evCache) Len() int {
	total := 0
	for i := 0; i < cacheShardCount; i++ {
		shard := &c.shards[i]
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total
}

func (c *evCache) reset() {
	for i := 0; i < cacheShardCount; i++ {
		shard := &c.shards[i]
		shard.mu.Lock()
		shard.entries = make(map[stateKey]float64)
		shard.mu.Unlock()
		shard.hits.Store(0)
		shard.misses.Store(0)
		shard.flushes.Store(0)
	}
}

func (c *evCache) stats() CacheStats {
	var st CacheStats
	for i := 0; i < cacheShardCount; i++ {
		shard := &c.shards[i]
		shard.mu.RLock()
		st.Entries += len(shard.entries)
		shard.mu.RUnlock()
		st.Hits += shard.hits.Load()
		st.Misses += shard.misses.Load()
		st.Flushes += shard.flushes.Load()
	}
	return st
}

func (c *evCache) shardFor(key stateKey) *cacheShard {
	return &c.shards[hashKey(key)&cacheShardMask]
}

// hashKey is FNV-1a over the eight key bytes.
func hashKey(key stateKey) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	var hash uint32 = offset32
	k := uint64(key)
	for i := 0; i < 8; i++ {
		hash ^= uint32(k & 0xff)
		hash *= prime32
		k >>= 8
	}
	return hash
}
