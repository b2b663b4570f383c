package market

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/hqvu/agent-swap/internal/domain"
)

// Adapter is the single capability boundary a venue integration implements.
// New venues are added as new implementations registered with the Registry,
// never by special-casing callers.
type Adapter interface {
	// Venue returns the identifier this adapter quotes for.
	Venue() domain.Venue

	// GetQuote prices a swap of amountIn tokenIn for tokenOut against this
	// venue's current liquidity snapshot. It fails with
	// common.ErrPoolNotFound when the venue holds no pool for the pair and
	// common.ErrInsufficientLiquidity when the computed output is invalid.
	GetQuote(ctx context.Context, tokenIn, tokenOut solana.PublicKey, amountIn uint64, slippageBps uint16) (*domain.Quote, error)

	// PrepareSwap assembles the execution payload for a quote previously
	// produced by this adapter: every account the on-chain swap will
	// reference, in venue order.
	PrepareSwap(quote *domain.Quote, user solana.PublicKey) (*domain.ExecutionPayload, error)

	// UpsertPool installs or replaces a liquidity snapshot. Called by the
	// external refresh collaborator, never by the quoting path.
	UpsertPool(pool *domain.Pool) error

	// Pools returns the adapter's current snapshots.
	Pools() []*domain.Pool
}
