package router

import (
	"sync"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"

	"github.com/hqvu/agent-swap/internal/domain"
	"github.com/hqvu/agent-swap/internal/metrics"
)

const (
	quoteCacheDefaultSize = 1024 // Power of 2 for efficient modulo
	quoteCacheShards      = 16   // Number of shards for reduced lock contention
)

// FNV-1a constants for zero-allocation hashing
const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// cacheEntry represents a cached quote in contiguous memory
type cacheEntry struct {
	key   uint64
	quote *domain.Quote
	used  uint32 // Clock bit for eviction
}

// cacheShard is a single shard of the cache
type cacheShard struct {
	mu      sync.RWMutex
	entries []cacheEntry
	size    int
	hand    int // Clock hand for eviction
}

// QuoteCache is a sharded clock-based cache for best quotes.
// Entries have no TTL: cached quotes stay valid until a pool update
// calls Reset or the clock hand evicts them under capacity pressure.
// Uses array-based storage for better cache locality.
type QuoteCache struct {
	shards [quoteCacheShards]cacheShard
}

func NewQuoteCache(maxSize int) *QuoteCache {
	if maxSize < quoteCacheShards {
		maxSize = quoteCacheDefaultSize
	}
	qc := &QuoteCache{}
	// Initialize each shard with pre-allocated entries
	entriesPerShard := maxSize / quoteCacheShards
	for i := 0; i < quoteCacheShards; i++ {
		qc.shards[i].entries = make([]cacheEntry, entriesPerShard)
	}
	return qc
}

// makeKeyInline generates a fast cache key using inline FNV-1a (zero allocation)
func makeKeyInline(tokenIn, tokenOut solana.PublicKey, amountIn uint64) uint64 {
	h := uint64(fnvOffset64)

	// Hash input mint (32 bytes)
	for _, b := range tokenIn {
		h ^= uint64(b)
		h *= fnvPrime64
	}

	// Hash output mint (32 bytes)
	for _, b := range tokenOut {
		h ^= uint64(b)
		h *= fnvPrime64
	}

	// Hash amount little-endian byte by byte
	for i := 0; i < 8; i++ {
		h ^= (amountIn >> (i * 8)) & 0xFF
		h *= fnvPrime64
	}

	return h
}

// getShard returns the shard for a given key
func (qc *QuoteCache) getShard(key uint64) *cacheShard {
	return &qc.shards[key%quoteCacheShards]
}

func (qc *QuoteCache) Get(tokenIn, tokenOut solana.PublicKey, amountIn uint64) *domain.Quote {
	key := makeKeyInline(tokenIn, tokenOut, amountIn)

	shard := qc.getShard(key)
	shard.mu.RLock()

	// Linear search in shard (good cache locality for small arrays)
	for i := 0; i < shard.size; i++ {
		entry := &shard.entries[i]
		if entry.key == key {
			// Mark as used (atomic for clock algorithm)
			atomic.StoreUint32(&entry.used, 1)
			quote := entry.quote
			shard.mu.RUnlock()
			return quote
		}
	}

	shard.mu.RUnlock()
	return nil
}

func (qc *QuoteCache) Set(tokenIn, tokenOut solana.PublicKey, amountIn uint64, quote *domain.Quote) {
	key := makeKeyInline(tokenIn, tokenOut, amountIn)

	shard := qc.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	// Check if entry already exists, update if so
	for i := 0; i < shard.size; i++ {
		entry := &shard.entries[i]
		if entry.key == key {
			entry.quote = quote
			atomic.StoreUint32(&entry.used, 1)
			return
		}
	}

	// Find a slot: either empty or use clock eviction
	entriesPerShard := len(shard.entries)

	if shard.size < entriesPerShard {
		// Have empty slot
		entry := &shard.entries[shard.size]
		entry.key = key
		entry.quote = quote
		entry.used = 1
		shard.size++
		metrics.QuoteCacheSize.Inc()
		return
	}

	// Clock eviction: find an entry to evict
	for attempts := 0; attempts < entriesPerShard*2; attempts++ {
		entry := &shard.entries[shard.hand]
		shard.hand = (shard.hand + 1) % entriesPerShard

		if atomic.LoadUint32(&entry.used) == 0 {
			entry.key = key
			entry.quote = quote
			entry.used = 1
			return
		}

		// Clear used bit (second chance)
		atomic.StoreUint32(&entry.used, 0)
	}

	// Fallback: overwrite at current hand position
	entry := &shard.entries[shard.hand]
	entry.key = key
	entry.quote = quote
	entry.used = 1
	shard.hand = (shard.hand + 1) % entriesPerShard
}

// Size returns current cache size across all shards
func (qc *QuoteCache) Size() int {
	total := 0
	for i := 0; i < quoteCacheShards; i++ {
		shard := &qc.shards[i]
		shard.mu.RLock()
		total += shard.size
		shard.mu.RUnlock()
	}
	return total
}

// Reset drops every cached quote. Called when pool state changes so stale
// prices never survive a reserve update.
func (qc *QuoteCache) Reset() {
	for i := 0; i < quoteCacheShards; i++ {
		shard := &qc.shards[i]
		shard.mu.Lock()
		for j := range shard.entries {
			shard.entries[j] = cacheEntry{}
		}
		shard.size = 0
		shard.hand = 0
		shard.mu.Unlock()
	}
	metrics.QuoteCacheSize.Set(0)
}
