package market

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hqvu/agent-swap/internal/common"
	"github.com/hqvu/agent-swap/internal/domain"
)

// tickArraySpan is the number of initialized ticks covered by one tick-array
// account; its price span is tickArraySpan * tickSpacing.
const tickArraySpan = 88

// tickArraysPerSwap is how many consecutive arrays a swap may reference.
const tickArraysPerSwap = 3

type tickArrayCacheKey struct {
	pool        solana.PublicKey
	tickIndex   int32
	tickSpacing uint16
	aToB        bool
}

// WhirlpoolAdapter quotes concentrated-liquidity pools. The output math uses
// a single-segment approximation, but the tick-array account set covers the
// full range a real tick walk could cross, so execution never misses state.
type WhirlpoolAdapter struct {
	pools *ShardedPoolMap

	tickArrayPDAs   map[tickArrayCacheKey][]solana.PublicKey
	tickArrayPDAsMu sync.RWMutex
}

func NewWhirlpoolAdapter() *WhirlpoolAdapter {
	return &WhirlpoolAdapter{
		pools:         NewShardedPoolMap(),
		tickArrayPDAs: make(map[tickArrayCacheKey][]solana.PublicKey),
	}
}

func (a *WhirlpoolAdapter) Venue() domain.Venue {
	return domain.VenueWhirlpool
}

func (a *WhirlpoolAdapter) UpsertPool(pool *domain.Pool) error {
	if pool.Venue != domain.VenueWhirlpool {
		return fmt.Errorf("%w: %s pool offered to Whirlpool adapter", common.ErrUnsupportedVenue, pool.Venue)
	}
	if err := pool.Validate(); err != nil {
		return err
	}
	if pool.ProgramID.IsZero() {
		pool.ProgramID = common.WhirlpoolProgramID
	}
	a.pools.Set(pool)
	return nil
}

func (a *WhirlpoolAdapter) Pools() []*domain.Pool {
	return a.pools.GetAll()
}

func (a *WhirlpoolAdapter) GetQuote(ctx context.Context, tokenIn, tokenOut solana.PublicKey, amountIn uint64, slippageBps uint16) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool, ok := a.pools.Lookup(tokenIn, tokenOut)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s on %s", common.ErrPoolNotFound, tokenIn, tokenOut, a.Venue())
	}

	cl := pool.Whirlpool
	aToB := pool.TokenMintA.Equals(tokenIn)

	amountOut, err := WhirlpoolOut(amountIn, cl.Liquidity, pool.FeeRateBps, cl.ProtocolFeeRateBps)
	if err != nil {
		return nil, err
	}

	tickArrays, err := a.tickArraysForSwap(pool, aToB)
	if err != nil {
		return nil, err
	}

	if slippageBps == 0 {
		slippageBps = common.DefaultSlippageBps
	}

	return &domain.Quote{
		Venue:          a.Venue(),
		TokenIn:        tokenIn,
		TokenOut:       tokenOut,
		AmountIn:       amountIn,
		AmountOut:      amountOut,
		PriceImpactBps: WhirlpoolImpactBps(amountIn, cl.Liquidity),
		MinimumOut:     MinimumOut(amountOut, slippageBps),
		Route: domain.RoutePlan{
			ProgramID:  pool.ProgramID,
			Pool:       pool.Address,
			AToB:       aToB,
			TickArrays: tickArrays,
		},
	}, nil
}

func (a *WhirlpoolAdapter) PrepareSwap(quote *domain.Quote, user solana.PublicKey) (*domain.ExecutionPayload, error) {
	pool, ok := a.pools.Lookup(quote.TokenIn, quote.TokenOut)
	if !ok || !pool.Address.Equals(quote.Route.Pool) {
		return nil, fmt.Errorf("%w: quote references stale pool %s", common.ErrPoolNotFound, quote.Route.Pool)
	}

	accounts := make([]solana.PublicKey, 0, 4+len(quote.Route.TickArrays))
	accounts = append(accounts, user, pool.Address, common.WhirlpoolConfig)
	accounts = append(accounts, quote.Route.TickArrays...)
	accounts = append(accounts, common.TokenProgramID)

	return &domain.ExecutionPayload{
		ProgramID:  quote.Route.ProgramID,
		Accounts:   accounts,
		AmountIn:   quote.AmountIn,
		MinimumOut: quote.MinimumOut,
	}, nil
}

// tickArraysForSwap derives the tick-array PDAs a swap starting at the
// current tick may cross. Selling A moves price down, so the window starts
// one span below the current tick; selling B starts at the current tick.
func (a *WhirlpoolAdapter) tickArraysForSwap(pool *domain.Pool, aToB bool) ([]solana.PublicKey, error) {
	cl := pool.Whirlpool
	key := tickArrayCacheKey{
		pool:        pool.Address,
		tickIndex:   cl.TickCurrentIndex,
		tickSpacing: cl.TickSpacing,
		aToB:        aToB,
	}

	a.tickArrayPDAsMu.RLock()
	if cached, ok := a.tickArrayPDAs[key]; ok {
		a.tickArrayPDAsMu.RUnlock()
		return cached, nil
	}
	a.tickArrayPDAsMu.RUnlock()

	span := int32(tickArraySpan) * int32(cl.TickSpacing)
	if span == 0 {
		return nil, fmt.Errorf("%w: zero tick spacing on pool %s", common.ErrInsufficientLiquidity, pool.Address)
	}

	start := cl.TickCurrentIndex
	if aToB {
		start -= span
	}

	pdas := make([]solana.PublicKey, 0, tickArraysPerSwap)
	for i := int32(0); i < tickArraysPerSwap; i++ {
		startTick := start + i*span
		pda, _, err := solana.FindProgramAddress(
			[][]byte{
				[]byte(common.TickArraySeed),
				pool.Address[:],
				[]byte(strconv.FormatInt(int64(startTick), 10)),
			},
			pool.ProgramID,
		)
		if err != nil {
			return nil, fmt.Errorf("derive tick array for start tick %d: %w", startTick, err)
		}
		pdas = append(pdas, pda)
	}

	a.tickArrayPDAsMu.Lock()
	a.tickArrayPDAs[key] = pdas
	a.tickArrayPDAsMu.Unlock()

	return pdas, nil
}
