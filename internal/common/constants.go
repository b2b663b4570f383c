// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	RaydiumProgramID  = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	RaydiumFeeAccount = solana.MustPublicKeyFromBase58("3XMrhbv989VxAMi3DErLV9eJht1pHppW5LbKxe9fkEFR")

	WhirlpoolProgramID = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")
	WhirlpoolConfig    = solana.MustPublicKeyFromBase58("2LecshUwdy9xi7meFgHtFJQNSKk4KdTrcpvaB56dP2NQ")

	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	TickArraySeed = "tick_array"
)

const (
	// BpsDenominator is the basis-point scale used by every fee and
	// slippage calculation.
	BpsDenominator = 10000

	// DefaultSlippageBps is applied when a caller does not override the
	// slippage tolerance (1%).
	DefaultSlippageBps uint16 = 100

	// DefaultMinSwapAmount rejects dust inputs before any venue math runs.
	DefaultMinSwapAmount uint64 = 1000
)
