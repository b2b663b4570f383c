package domain

import (
	"errors"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Venue identifies the DEX a pool (and any quote derived from it) belongs to.
type Venue uint8

const (
	VenueRaydium Venue = iota
	VenueWhirlpool
)

// Venues lists all supported venues in enumeration order. Ranking ties in the
// aggregator are broken by this order, so it must stay stable.
var Venues = []Venue{VenueRaydium, VenueWhirlpool}

func (v Venue) String() string {
	switch v {
	case VenueRaydium:
		return "Raydium"
	case VenueWhirlpool:
		return "Whirlpool"
	default:
		return "UNKNOWN"
	}
}

// ParseVenue maps a venue name back to its identifier, ignoring case.
func ParseVenue(s string) (Venue, error) {
	switch strings.ToLower(s) {
	case "raydium":
		return VenueRaydium, nil
	case "whirlpool":
		return VenueWhirlpool, nil
	default:
		return 0, errors.New("unknown venue: " + s)
	}
}

// Pool is a per-venue liquidity snapshot. The owning adapter refreshes it out
// of band; quote math only ever reads it.
type Pool struct {
	Address         solana.PublicKey `json:"address"`
	Venue           Venue            `json:"venue"`
	ProgramID       solana.PublicKey `json:"programId"`
	TokenMintA      solana.PublicKey `json:"tokenMintA"`
	TokenMintB      solana.PublicKey `json:"tokenMintB"`
	ReserveA        uint64           `json:"reserveA"`
	ReserveB        uint64           `json:"reserveB"`
	FeeRateBps      uint16           `json:"feeRateBps"`
	LastUpdatedSlot uint64           `json:"lastUpdatedSlot"`

	// Whirlpool carries concentrated-liquidity state; nil for
	// constant-product pools.
	Whirlpool *WhirlpoolData `json:"whirlpool,omitempty"`
}

// WhirlpoolData is the tick/liquidity state of a concentrated-liquidity pool.
type WhirlpoolData struct {
	TickCurrentIndex   int32       `json:"tickCurrentIndex"`
	TickSpacing        uint16      `json:"tickSpacing"`
	ProtocolFeeRateBps uint16      `json:"protocolFeeRateBps"`
	Liquidity          bin.Uint128 `json:"-"`
}

var (
	ErrSameMints      = errors.New("pool tokens must be distinct")
	ErrMissingCLState = errors.New("whirlpool pool missing tick/liquidity state")
)

// Validate enforces the snapshot invariants: distinct mints and, for
// concentrated-liquidity pools, present tick state.
func (p *Pool) Validate() error {
	if p.TokenMintA.Equals(p.TokenMintB) {
		return ErrSameMints
	}
	if p.Venue == VenueWhirlpool && p.Whirlpool == nil {
		return ErrMissingCLState
	}
	return nil
}

// HasPair reports whether the pool trades the given pair, in either direction.
func (p *Pool) HasPair(tokenA, tokenB solana.PublicKey) bool {
	return (p.TokenMintA.Equals(tokenA) && p.TokenMintB.Equals(tokenB)) ||
		(p.TokenMintA.Equals(tokenB) && p.TokenMintB.Equals(tokenA))
}
