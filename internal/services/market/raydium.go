package market

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hqvu/agent-swap/internal/common"
	"github.com/hqvu/agent-swap/internal/domain"
)

// RaydiumAdapter quotes constant-product AMM pools.
type RaydiumAdapter struct {
	pools *ShardedPoolMap
}

func NewRaydiumAdapter() *RaydiumAdapter {
	return &RaydiumAdapter{pools: NewShardedPoolMap()}
}

func (a *RaydiumAdapter) Venue() domain.Venue {
	return domain.VenueRaydium
}

func (a *RaydiumAdapter) UpsertPool(pool *domain.Pool) error {
	if pool.Venue != domain.VenueRaydium {
		return fmt.Errorf("%w: %s pool offered to Raydium adapter", common.ErrUnsupportedVenue, pool.Venue)
	}
	if err := pool.Validate(); err != nil {
		return err
	}
	if pool.ProgramID.IsZero() {
		pool.ProgramID = common.RaydiumProgramID
	}
	a.pools.Set(pool)
	return nil
}

func (a *RaydiumAdapter) Pools() []*domain.Pool {
	return a.pools.GetAll()
}

func (a *RaydiumAdapter) GetQuote(ctx context.Context, tokenIn, tokenOut solana.PublicKey, amountIn uint64, slippageBps uint16) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool, ok := a.pools.Lookup(tokenIn, tokenOut)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s on %s", common.ErrPoolNotFound, tokenIn, tokenOut, a.Venue())
	}

	aToB := pool.TokenMintA.Equals(tokenIn)
	reserveIn, reserveOut := pool.ReserveA, pool.ReserveB
	if !aToB {
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
	}

	amountOut, err := ConstantProductOut(amountIn, reserveIn, reserveOut, pool.FeeRateBps)
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
		PriceImpactBps: ConstantProductImpactBps(amountIn, reserveIn),
		MinimumOut:     MinimumOut(amountOut, slippageBps),
		Route: domain.RoutePlan{
			ProgramID: pool.ProgramID,
			Pool:      pool.Address,
			AToB:      aToB,
		},
	}, nil
}

func (a *RaydiumAdapter) PrepareSwap(quote *domain.Quote, user solana.PublicKey) (*domain.ExecutionPayload, error) {
	pool, ok := a.pools.Lookup(quote.TokenIn, quote.TokenOut)
	if !ok || !pool.Address.Equals(quote.Route.Pool) {
		return nil, fmt.Errorf("%w: quote references stale pool %s", common.ErrPoolNotFound, quote.Route.Pool)
	}

	accounts := []solana.PublicKey{
		user,
		pool.Address,
		pool.TokenMintA,
		pool.TokenMintB,
		common.TokenProgramID,
		common.RaydiumFeeAccount,
	}

	return &domain.ExecutionPayload{
		ProgramID:  quote.Route.ProgramID,
		Accounts:   accounts,
		AmountIn:   quote.AmountIn,
		MinimumOut: quote.MinimumOut,
	}, nil
}
