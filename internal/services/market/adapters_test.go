package market

import (
	"context"
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/hqvu/agent-swap/internal/common"
	"github.com/hqvu/agent-swap/internal/domain"
)

var (
	testMintA = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testMintB = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testUser  = solana.MustPublicKeyFromBase58("Vote111111111111111111111111111111111111111")
)

func newRaydiumPool() *domain.Pool {
	return &domain.Pool{
		Address:    solana.NewWallet().PublicKey(),
		Venue:      domain.VenueRaydium,
		TokenMintA: testMintA,
		TokenMintB: testMintB,
		ReserveA:   1_000_000_000,
		ReserveB:   1_000_000_000,
		FeeRateBps: 30,
	}
}

func newWhirlpoolPool() *domain.Pool {
	return &domain.Pool{
		Address:    solana.NewWallet().PublicKey(),
		Venue:      domain.VenueWhirlpool,
		TokenMintA: testMintA,
		TokenMintB: testMintB,
		FeeRateBps: 30,
		Whirlpool: &domain.WhirlpoolData{
			TickCurrentIndex: 128,
			TickSpacing:      64,
			Liquidity:        bin.Uint128{Lo: 1_000_000_000_000},
		},
	}
}

func TestRaydiumGetQuote(t *testing.T) {
	adapter := NewRaydiumAdapter()
	pool := newRaydiumPool()
	if err := adapter.UpsertPool(pool); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	quote, err := adapter.GetQuote(context.Background(), testMintA, testMintB, 1_000_000, 100)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	if quote.Venue != domain.VenueRaydium {
		t.Errorf("venue = %s", quote.Venue)
	}
	if quote.AmountOut != 996_006 {
		t.Errorf("amountOut = %d, want 996006", quote.AmountOut)
	}
	if quote.PriceImpactBps != 10 {
		t.Errorf("priceImpactBps = %d, want 10", quote.PriceImpactBps)
	}
	if quote.MinimumOut != 986_045 {
		t.Errorf("minimumOut = %d, want 986045", quote.MinimumOut)
	}
	if !quote.Route.AToB {
		t.Error("expected aToB direction")
	}
	if !quote.Route.Pool.Equals(pool.Address) {
		t.Error("route should pin the pool address")
	}
}

func TestRaydiumGetQuoteReversedPair(t *testing.T) {
	adapter := NewRaydiumAdapter()
	pool := newRaydiumPool()
	pool.ReserveB = 2_000_000_000 // tokenIn side when swapping B->A
	if err := adapter.UpsertPool(pool); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	quote, err := adapter.GetQuote(context.Background(), testMintB, testMintA, 1_000_000, 0)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	if quote.Route.AToB {
		t.Error("expected bToA direction")
	}
	// impact prices against the B reserve: 1e6/2e9 = 5 bps
	if quote.PriceImpactBps != 5 {
		t.Errorf("priceImpactBps = %d, want 5", quote.PriceImpactBps)
	}
}

func TestRaydiumPoolNotFound(t *testing.T) {
	adapter := NewRaydiumAdapter()

	_, err := adapter.GetQuote(context.Background(), testMintA, testMintB, 1_000_000, 0)
	if !errors.Is(err, common.ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestRaydiumRejectsForeignVenue(t *testing.T) {
	adapter := NewRaydiumAdapter()
	pool := newWhirlpoolPool()

	if err := adapter.UpsertPool(pool); !errors.Is(err, common.ErrUnsupportedVenue) {
		t.Fatalf("expected ErrUnsupportedVenue, got %v", err)
	}
}

func TestRaydiumCancelledContext(t *testing.T) {
	adapter := NewRaydiumAdapter()
	if err := adapter.UpsertPool(newRaydiumPool()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := adapter.GetQuote(ctx, testMintA, testMintB, 1_000_000, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRaydiumPrepareSwap(t *testing.T) {
	adapter := NewRaydiumAdapter()
	pool := newRaydiumPool()
	if err := adapter.UpsertPool(pool); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	quote, err := adapter.GetQuote(context.Background(), testMintA, testMintB, 1_000_000, 100)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	payload, err := adapter.PrepareSwap(quote, testUser)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if !payload.ProgramID.Equals(common.RaydiumProgramID) {
		t.Errorf("programID = %s", payload.ProgramID)
	}
	if len(payload.Accounts) != 6 {
		t.Fatalf("accounts = %d, want 6", len(payload.Accounts))
	}
	if !payload.Accounts[0].Equals(testUser) || !payload.Accounts[1].Equals(pool.Address) {
		t.Error("payload must lead with user then pool")
	}
	if payload.AmountIn != quote.AmountIn || payload.MinimumOut != quote.MinimumOut {
		t.Error("payload amounts must mirror the quote")
	}
}

func TestWhirlpoolGetQuote(t *testing.T) {
	adapter := NewWhirlpoolAdapter()
	pool := newWhirlpoolPool()
	if err := adapter.UpsertPool(pool); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	quote, err := adapter.GetQuote(context.Background(), testMintA, testMintB, 1_000_000, 100)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	if quote.Venue != domain.VenueWhirlpool {
		t.Errorf("venue = %s", quote.Venue)
	}
	if quote.AmountOut != 997_000 {
		t.Errorf("amountOut = %d, want 997000", quote.AmountOut)
	}
	if len(quote.Route.TickArrays) != tickArraysPerSwap {
		t.Fatalf("tick arrays = %d, want %d", len(quote.Route.TickArrays), tickArraysPerSwap)
	}
}

func TestWhirlpoolTickArraysDeterministic(t *testing.T) {
	adapter := NewWhirlpoolAdapter()
	pool := newWhirlpoolPool()
	if err := adapter.UpsertPool(pool); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	first, err := adapter.GetQuote(context.Background(), testMintA, testMintB, 1_000_000, 100)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	second, err := adapter.GetQuote(context.Background(), testMintA, testMintB, 2_000_000, 100)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	for i := range first.Route.TickArrays {
		if !first.Route.TickArrays[i].Equals(second.Route.TickArrays[i]) {
			t.Fatalf("tick array %d differs between identical pool states", i)
		}
	}

	reversed, err := adapter.GetQuote(context.Background(), testMintB, testMintA, 1_000_000, 100)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if reversed.Route.TickArrays[0].Equals(first.Route.TickArrays[0]) {
		t.Error("opposite direction should start from a different tick array window")
	}
}

func TestWhirlpoolRejectsMissingState(t *testing.T) {
	adapter := NewWhirlpoolAdapter()
	pool := newWhirlpoolPool()
	pool.Whirlpool = nil

	if err := adapter.UpsertPool(pool); !errors.Is(err, domain.ErrMissingCLState) {
		t.Fatalf("expected ErrMissingCLState, got %v", err)
	}
}

func TestWhirlpoolPrepareSwap(t *testing.T) {
	adapter := NewWhirlpoolAdapter()
	pool := newWhirlpoolPool()
	if err := adapter.UpsertPool(pool); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	quote, err := adapter.GetQuote(context.Background(), testMintA, testMintB, 1_000_000, 100)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	payload, err := adapter.PrepareSwap(quote, testUser)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	want := 4 + len(quote.Route.TickArrays)
	if len(payload.Accounts) != want {
		t.Fatalf("accounts = %d, want %d", len(payload.Accounts), want)
	}
	if !payload.Accounts[2].Equals(common.WhirlpoolConfig) {
		t.Error("third account must be the whirlpool config")
	}
}

func TestShardedPoolMapLookupBothOrientations(t *testing.T) {
	m := NewShardedPoolMap()
	pool := newRaydiumPool()
	m.Set(pool)

	if _, ok := m.Lookup(testMintA, testMintB); !ok {
		t.Fatal("ordered lookup failed")
	}
	if _, ok := m.Lookup(testMintB, testMintA); !ok {
		t.Fatal("reversed lookup failed")
	}

	m.Delete(testMintA, testMintB)
	if m.Len() != 0 {
		t.Fatalf("len = %d after delete", m.Len())
	}
}
