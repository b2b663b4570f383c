package domain

import (
	"github.com/gagliardetto/solana-go"
)

// Quote is the normalized result of pricing a swap on one venue. A quote is
// immutable once produced; the aggregator hands out cached quotes verbatim.
type Quote struct {
	Venue          Venue            `json:"venue"`
	TokenIn        solana.PublicKey `json:"tokenIn"`
	TokenOut       solana.PublicKey `json:"tokenOut"`
	AmountIn       uint64           `json:"amountIn"`
	AmountOut      uint64           `json:"amountOut"`
	PriceImpactBps uint16           `json:"priceImpactBps"`
	MinimumOut     uint64           `json:"minimumOut"`

	// Route is the opaque payload the execution layer needs to build the
	// on-chain swap for the owning venue.
	Route RoutePlan `json:"route"`
}

// RoutePlan pins a quote to the state its execution will reference. For
// concentrated-liquidity venues TickArrays lists every tick-array account the
// swap may touch; omitting one would make execution fail on chain.
type RoutePlan struct {
	ProgramID  solana.PublicKey   `json:"programId"`
	Pool       solana.PublicKey   `json:"pool"`
	AToB       bool               `json:"aToB"`
	TickArrays []solana.PublicKey `json:"tickArrays,omitempty"`
}

// ExecutionPayload is what PrepareSwap hands to the execution collaborator:
// the full ordered account set plus the amounts the instruction must encode.
// Instruction data encoding itself happens downstream.
type ExecutionPayload struct {
	ProgramID  solana.PublicKey   `json:"programId"`
	Accounts   []solana.PublicKey `json:"accounts"`
	AmountIn   uint64             `json:"amountIn"`
	MinimumOut uint64             `json:"minimumOut"`
}
