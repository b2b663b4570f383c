package market

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hqvu/agent-swap/internal/domain"
)

const numShards = 16

// PairKey addresses a pool by its token pair, as stored. A pool is
// undirected, so lookups probe both orientations.
type PairKey struct {
	A solana.PublicKey
	B solana.PublicKey
}

// ShardedPoolMap is a sharded pair-keyed map for pools to reduce lock
// contention between the refresh collaborator and concurrent quote fan-outs.
type ShardedPoolMap struct {
	shards [numShards]poolShard
}

type poolShard struct {
	mu    sync.RWMutex
	pools map[PairKey]*domain.Pool
}

// NewShardedPoolMap creates a new sharded pool map
func NewShardedPoolMap() *ShardedPoolMap {
	m := &ShardedPoolMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].pools = make(map[PairKey]*domain.Pool)
	}
	return m
}

// getShard returns the shard for a given pair. XOR of the leading mint bytes
// keeps both orientations of a pair in the same shard.
func (m *ShardedPoolMap) getShard(key PairKey) *poolShard {
	idx := (key.A[0] ^ key.B[0]) % numShards
	return &m.shards[idx]
}

// Set stores a pool under its own (A, B) orientation.
func (m *ShardedPoolMap) Set(pool *domain.Pool) {
	key := PairKey{A: pool.TokenMintA, B: pool.TokenMintB}
	shard := m.getShard(key)
	shard.mu.Lock()
	shard.pools[key] = pool
	shard.mu.Unlock()
}

// Lookup finds the pool trading (tokenIn, tokenOut), trying the ordered pair
// first and the reversed pair second.
func (m *ShardedPoolMap) Lookup(tokenIn, tokenOut solana.PublicKey) (*domain.Pool, bool) {
	key := PairKey{A: tokenIn, B: tokenOut}
	shard := m.getShard(key)
	shard.mu.RLock()
	pool, ok := shard.pools[key]
	if !ok {
		pool, ok = shard.pools[PairKey{A: tokenOut, B: tokenIn}]
	}
	shard.mu.RUnlock()
	return pool, ok
}

// Delete removes the pool stored for the pair, in either orientation.
func (m *ShardedPoolMap) Delete(tokenA, tokenB solana.PublicKey) {
	key := PairKey{A: tokenA, B: tokenB}
	shard := m.getShard(key)
	shard.mu.Lock()
	delete(shard.pools, key)
	delete(shard.pools, PairKey{A: tokenB, B: tokenA})
	shard.mu.Unlock()
}

// Len returns total count across all shards
func (m *ShardedPoolMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].pools)
		m.shards[i].mu.RUnlock()
	}
	return total
}

// GetAll returns all pools as a slice
func (m *ShardedPoolMap) GetAll() []*domain.Pool {
	result := make([]*domain.Pool, 0, m.Len())
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		for _, pool := range m.shards[i].pools {
			result = append(result, pool)
		}
		m.shards[i].mu.RUnlock()
	}
	return result
}
