package router

import (
	"context"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqvu/agent-swap/internal/common"
	"github.com/hqvu/agent-swap/internal/domain"
	"github.com/hqvu/agent-swap/internal/services/market"
)

var (
	mintSOL  = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	mintUSDC = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

// seedBothVenues installs one pool per venue for the SOL/USDC pair. The
// whirlpool's active liquidity is tuned so it outbids the raydium pool.
func seedBothVenues(t *testing.T, registry *market.Registry) {
	t.Helper()

	require.NoError(t, registry.UpsertPool(&domain.Pool{
		Address:    solana.NewWallet().PublicKey(),
		Venue:      domain.VenueRaydium,
		TokenMintA: mintSOL,
		TokenMintB: mintUSDC,
		ReserveA:   1_000_000_000,
		ReserveB:   1_000_000_000,
		FeeRateBps: 30,
	}))

	require.NoError(t, registry.UpsertPool(&domain.Pool{
		Address:    solana.NewWallet().PublicKey(),
		Venue:      domain.VenueWhirlpool,
		TokenMintA: mintSOL,
		TokenMintB: mintUSDC,
		FeeRateBps: 30,
		Whirlpool: &domain.WhirlpoolData{
			TickCurrentIndex: 0,
			TickSpacing:      64,
			Liquidity:        bin.Uint128{Lo: 1_500_000_000_000},
		},
	}))
}

func TestGetBestQuotePicksHighestOutput(t *testing.T) {
	registry := market.NewDefaultRegistry()
	seedBothVenues(t, registry)
	engine := NewEngine(registry, 100, 0, 0)

	quote, err := engine.GetBestQuote(context.Background(), mintSOL, mintUSDC, 1_000_000)
	require.NoError(t, err)

	// whirlpool: 997000 * 1.5 = 1495500, raydium: 996006
	assert.Equal(t, domain.VenueWhirlpool, quote.Venue)
	assert.Equal(t, uint64(1_495_500), quote.AmountOut)
}

func TestGetBestQuoteSkipsVenuesWithoutPool(t *testing.T) {
	registry := market.NewDefaultRegistry()
	require.NoError(t, registry.UpsertPool(&domain.Pool{
		Address:    solana.NewWallet().PublicKey(),
		Venue:      domain.VenueRaydium,
		TokenMintA: mintSOL,
		TokenMintB: mintUSDC,
		ReserveA:   1_000_000_000,
		ReserveB:   1_000_000_000,
		FeeRateBps: 30,
	}))
	engine := NewEngine(registry, 100, 0, 0)

	quote, err := engine.GetBestQuote(context.Background(), mintSOL, mintUSDC, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, domain.VenueRaydium, quote.Venue)
}

func TestGetBestQuoteRejectsDustAmounts(t *testing.T) {
	registry := market.NewDefaultRegistry()
	seedBothVenues(t, registry)
	engine := NewEngine(registry, 100, 0, 1000)

	_, err := engine.GetBestQuote(context.Background(), mintSOL, mintUSDC, 999)
	assert.ErrorIs(t, err, common.ErrAmountTooSmall)
	assert.Equal(t, 0, engine.CacheSize())

	_, err = engine.GetQuote(context.Background(), domain.VenueRaydium, mintSOL, mintUSDC, 999)
	assert.ErrorIs(t, err, common.ErrAmountTooSmall)
}

func TestGetBestQuoteNoRoute(t *testing.T) {
	registry := market.NewDefaultRegistry()
	engine := NewEngine(registry, 100, 0, 0)

	_, err := engine.GetBestQuote(context.Background(), mintSOL, mintUSDC, 1_000_000)
	assert.ErrorIs(t, err, common.ErrNoRouteFound)
}

func TestGetBestQuoteCachesWinner(t *testing.T) {
	registry := market.NewDefaultRegistry()
	seedBothVenues(t, registry)
	engine := NewEngine(registry, 100, 0, 0)

	first, err := engine.GetBestQuote(context.Background(), mintSOL, mintUSDC, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, 1, engine.CacheSize())

	second, err := engine.GetBestQuote(context.Background(), mintSOL, mintUSDC, 1_000_000)
	require.NoError(t, err)
	assert.Same(t, first, second, "repeat request must be served from cache")

	// A different amount is a different cache key.
	third, err := engine.GetBestQuote(context.Background(), mintSOL, mintUSDC, 2_000_000)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, engine.CacheSize())
}

func TestUpsertPoolInvalidatesCache(t *testing.T) {
	registry := market.NewDefaultRegistry()
	seedBothVenues(t, registry)
	engine := NewEngine(registry, 100, 0, 0)

	_, err := engine.GetBestQuote(context.Background(), mintSOL, mintUSDC, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, 1, engine.CacheSize())

	require.NoError(t, engine.UpsertPool(&domain.Pool{
		Address:    solana.NewWallet().PublicKey(),
		Venue:      domain.VenueRaydium,
		TokenMintA: mintSOL,
		TokenMintB: mintUSDC,
		ReserveA:   5_000_000_000,
		ReserveB:   5_000_000_000,
		FeeRateBps: 30,
	}))

	assert.Equal(t, 0, engine.CacheSize(), "pool update must drop cached quotes")
}

func TestGetBestQuoteCancelledContextNotCached(t *testing.T) {
	registry := market.NewDefaultRegistry()
	seedBothVenues(t, registry)
	engine := NewEngine(registry, 100, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.GetBestQuote(ctx, mintSOL, mintUSDC, 1_000_000)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, engine.CacheSize(), "cancelled request must not populate the cache")
}

func TestGetQuoteSingleVenue(t *testing.T) {
	registry := market.NewDefaultRegistry()
	seedBothVenues(t, registry)
	engine := NewEngine(registry, 100, 0, 0)

	quote, err := engine.GetQuote(context.Background(), domain.VenueRaydium, mintSOL, mintUSDC, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, domain.VenueRaydium, quote.Venue)
	assert.Equal(t, uint64(996_006), quote.AmountOut)
}

func TestPrepareSwapDispatchesToWinningVenue(t *testing.T) {
	registry := market.NewDefaultRegistry()
	seedBothVenues(t, registry)
	engine := NewEngine(registry, 100, 0, 0)

	quote, err := engine.GetBestQuote(context.Background(), mintSOL, mintUSDC, 1_000_000)
	require.NoError(t, err)

	user := solana.NewWallet().PublicKey()
	payload, err := engine.PrepareSwap(quote, user)
	require.NoError(t, err)
	assert.Equal(t, quote.Route.ProgramID, payload.ProgramID)
	assert.Equal(t, quote.MinimumOut, payload.MinimumOut)
}

type fakeExecutor struct {
	signature string
	called    bool
}

func (f *fakeExecutor) ExecuteSwap(ctx context.Context, quote *domain.Quote, wallet solana.PrivateKey) (string, error) {
	f.called = true
	return f.signature, nil
}

func TestExecuteSwapRequiresExecutor(t *testing.T) {
	registry := market.NewDefaultRegistry()
	seedBothVenues(t, registry)
	engine := NewEngine(registry, 100, 0, 0)

	quote, err := engine.GetBestQuote(context.Background(), mintSOL, mintUSDC, 1_000_000)
	require.NoError(t, err)

	wallet := solana.NewWallet()

	_, err = engine.ExecuteSwap(context.Background(), quote, wallet.PrivateKey)
	assert.ErrorIs(t, err, common.ErrNoExecutor)

	exec := &fakeExecutor{signature: "sig123"}
	engine.RegisterExecutor(quote.Venue, exec)

	sig, err := engine.ExecuteSwap(context.Background(), quote, wallet.PrivateKey)
	require.NoError(t, err)
	assert.True(t, exec.called)
	assert.Equal(t, "sig123", sig)
}
