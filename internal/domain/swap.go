package domain

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

// RouteKey identifies a (tokenIn, tokenOut, venue) route for history lookups.
// Direction matters: A->B and B->A accumulate separate metrics.
type RouteKey struct {
	TokenIn  solana.PublicKey
	TokenOut solana.PublicKey
	Venue    Venue
}

// SwapRecord is an append-only fact about one completed (or attempted) swap.
// It is never mutated after creation.
type SwapRecord struct {
	Timestamp      time.Time        `json:"timestamp"`
	TokenIn        solana.PublicKey `json:"tokenIn"`
	TokenOut       solana.PublicKey `json:"tokenOut"`
	AmountIn       uint64           `json:"amountIn"`
	AmountOut      uint64           `json:"amountOut"`
	Venue          Venue            `json:"venue"`
	Success        bool             `json:"success"`
	PriceImpactBps uint16           `json:"priceImpactBps"`
	Signature      string           `json:"signature,omitempty"`
}

// RouteMetrics aggregates outcomes per route. Counters are cumulative for the
// store's lifetime: evicting an old SwapRecord from the bounded log does not
// roll back its contribution here.
type RouteMetrics struct {
	TotalSwaps      uint64    `json:"totalSwaps"`
	SuccessfulSwaps uint64    `json:"successfulSwaps"`
	AvgPriceImpact  float64   `json:"avgPriceImpact"`
	BestRate        float64   `json:"bestRate"`
	WorstRate       float64   `json:"worstRate"`
	VolumeIn        uint64    `json:"volumeIn"`
	VolumeOut       uint64    `json:"volumeOut"`
	LastUpdate      time.Time `json:"lastUpdate"`
}

// SwapStats aggregates route metrics across every observed route.
type SwapStats struct {
	TotalSwaps      uint64  `json:"totalSwaps"`
	SuccessfulSwaps uint64  `json:"successfulSwaps"`
	SuccessRate     float64 `json:"successRate"`
	VolumeIn        uint64  `json:"volumeIn"`
	VolumeOut       uint64  `json:"volumeOut"`
	Routes          int     `json:"routes"`
}

// SwapExecutor submits a quoted swap on its owning venue and returns an
// opaque execution reference (transaction signature). Implementations live
// outside this module.
type SwapExecutor interface {
	ExecuteSwap(ctx context.Context, quote *Quote, wallet solana.PrivateKey) (string, error)
}

// PolicyDecider is the boundary to the confidence-scoring component: it sees
// the winning quote and the route's history and approves or rejects the
// trade. Its scoring internals are not part of this module.
type PolicyDecider interface {
	Approve(quote *Quote, history RouteMetrics) bool
}
