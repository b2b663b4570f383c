package router

import (
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqvu/agent-swap/internal/domain"
)

func TestQuoteCacheSetGet(t *testing.T) {
	cache := NewQuoteCache(1024)

	tokenIn := solana.NewWallet().PublicKey()
	tokenOut := solana.NewWallet().PublicKey()
	quote := &domain.Quote{Venue: domain.VenueRaydium, AmountIn: 100, AmountOut: 99}

	require.Nil(t, cache.Get(tokenIn, tokenOut, 100))

	cache.Set(tokenIn, tokenOut, 100, quote)
	assert.Same(t, quote, cache.Get(tokenIn, tokenOut, 100))

	// Amount is part of the key.
	assert.Nil(t, cache.Get(tokenIn, tokenOut, 200))

	// Direction is part of the key.
	assert.Nil(t, cache.Get(tokenOut, tokenIn, 100))
}

func TestQuoteCacheOverwrite(t *testing.T) {
	cache := NewQuoteCache(1024)

	tokenIn := solana.NewWallet().PublicKey()
	tokenOut := solana.NewWallet().PublicKey()

	first := &domain.Quote{AmountOut: 1}
	second := &domain.Quote{AmountOut: 2}

	cache.Set(tokenIn, tokenOut, 100, first)
	cache.Set(tokenIn, tokenOut, 100, second)

	assert.Same(t, second, cache.Get(tokenIn, tokenOut, 100))
	assert.Equal(t, 1, cache.Size())
}

func TestQuoteCacheReset(t *testing.T) {
	cache := NewQuoteCache(1024)

	tokenIn := solana.NewWallet().PublicKey()
	tokenOut := solana.NewWallet().PublicKey()

	for amount := uint64(1); amount <= 10; amount++ {
		cache.Set(tokenIn, tokenOut, amount, &domain.Quote{AmountIn: amount})
	}
	require.Equal(t, 10, cache.Size())

	cache.Reset()
	assert.Equal(t, 0, cache.Size())
	assert.Nil(t, cache.Get(tokenIn, tokenOut, 1))
}

func TestQuoteCacheEvictsUnderPressure(t *testing.T) {
	// 16 shards * 1 entry keeps the whole cache at 16 slots.
	cache := NewQuoteCache(16)

	tokenIn := solana.NewWallet().PublicKey()
	tokenOut := solana.NewWallet().PublicKey()

	for amount := uint64(1); amount <= 1000; amount++ {
		cache.Set(tokenIn, tokenOut, amount, &domain.Quote{AmountIn: amount})
	}

	assert.LessOrEqual(t, cache.Size(), 16, "cache must not grow past its capacity")
}

func TestMakeKeyInlineDistributesAcrossInputs(t *testing.T) {
	tokenIn := solana.NewWallet().PublicKey()
	tokenOut := solana.NewWallet().PublicKey()

	seen := make(map[uint64]string)
	for amount := uint64(0); amount < 10_000; amount++ {
		key := makeKeyInline(tokenIn, tokenOut, amount)
		if prev, dup := seen[key]; dup {
			t.Fatalf("key collision between amounts %s and %d", prev, amount)
		}
		seen[key] = fmt.Sprintf("%d", amount)
	}
}
