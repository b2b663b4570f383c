package market

import (
	"fmt"
	"sync"

	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"

	"github.com/hqvu/agent-swap/internal/common"
)

// Pre-computed constants (avoid allocation on every call)
var (
	u256BpsDenom = uint256.NewInt(common.BpsDenominator)

	// whirlpoolScale is the liquidity normalization divisor of the
	// single-segment concentrated-liquidity approximation.
	u256WhirlpoolScale = uint256.NewInt(1_000_000_000_000)
)

var uint256Pool = sync.Pool{
	New: func() interface{} {
		return new(uint256.Int)
	},
}

// GetU256 gets a uint256.Int from the pool
func GetU256() *uint256.Int {
	return uint256Pool.Get().(*uint256.Int)
}

// PutU256 returns a uint256.Int to the pool
func PutU256(v *uint256.Int) {
	v.Clear()
	uint256Pool.Put(v)
}

// MulDivBps computes amount * (10000 - cutBps) / 10000 with a 256-bit
// intermediate, so a full-range uint64 amount cannot overflow.
func MulDivBps(amount uint64, cutBps uint16) uint64 {
	if cutBps >= common.BpsDenominator {
		return 0
	}
	v := GetU256()
	f := GetU256()
	defer func() {
		PutU256(v)
		PutU256(f)
	}()

	v.SetUint64(amount)
	f.SetUint64(uint64(common.BpsDenominator - cutBps))
	v.Mul(v, f)
	v.Div(v, u256BpsDenom)
	return v.Uint64()
}

// ConstantProductOut prices a swap on the constant-product curve:
//
//	out = (in * (10000-fee)/10000) * reserveOut / (reserveIn + in * (10000-fee)/10000)
//
// All intermediates are 256-bit; overflow and drained-pool conditions are
// reported as insufficient liquidity, never as wrapped arithmetic.
func ConstantProductOut(amountIn, reserveIn, reserveOut uint64, feeBps uint16) (uint64, error) {
	if amountIn == 0 || reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("%w: empty reserves or zero input", common.ErrInsufficientLiquidity)
	}
	if feeBps >= common.BpsDenominator {
		return 0, fmt.Errorf("%w: fee rate %d bps", common.ErrInsufficientLiquidity, feeBps)
	}

	afterFee := GetU256()
	num := GetU256()
	den := GetU256()
	defer func() {
		PutU256(afterFee)
		PutU256(num)
		PutU256(den)
	}()

	afterFee.SetUint64(amountIn)
	num.SetUint64(uint64(common.BpsDenominator - feeBps))
	afterFee.Mul(afterFee, num)
	afterFee.Div(afterFee, u256BpsDenom)

	num.SetUint64(reserveOut)
	num.Mul(num, afterFee)

	den.SetUint64(reserveIn)
	den.Add(den, afterFee)

	num.Div(num, den)

	if num.IsZero() {
		return 0, fmt.Errorf("%w: output rounds to zero", common.ErrInsufficientLiquidity)
	}
	if !num.IsUint64() || num.Uint64() >= reserveOut {
		return 0, fmt.Errorf("%w: output exceeds reserve", common.ErrInsufficientLiquidity)
	}
	return num.Uint64(), nil
}

// ConstantProductImpactBps reports amountIn / reserveIn in basis points,
// clamped to the 0-10000 domain. The impact is fee-independent.
func ConstantProductImpactBps(amountIn, reserveIn uint64) uint16 {
	if reserveIn == 0 {
		return common.BpsDenominator
	}
	v := GetU256()
	defer PutU256(v)

	v.SetUint64(amountIn)
	v.Mul(v, u256BpsDenom)
	v.Div(v, uint256.NewInt(reserveIn))

	if !v.IsUint64() || v.Uint64() > common.BpsDenominator {
		return common.BpsDenominator
	}
	return uint16(v.Uint64())
}

// WhirlpoolOut prices a swap against active concentrated liquidity using a
// single-segment approximation of the tick walk: the post-fee input is scaled
// by the pool's active liquidity. Crossing into the next tick array is not
// simulated here; the impacted tick-array set is still surfaced on the quote
// so execution references every account it may touch.
func WhirlpoolOut(amountIn uint64, liquidity bin.Uint128, feeRateBps, protocolFeeRateBps uint16) (uint64, error) {
	totalFee := uint32(feeRateBps) + uint32(protocolFeeRateBps)
	if totalFee >= common.BpsDenominator {
		return 0, fmt.Errorf("%w: fee rate %d bps", common.ErrInsufficientLiquidity, totalFee)
	}

	liq := uint128ToU256(liquidity)
	defer PutU256(liq)
	if liq.IsZero() {
		return 0, fmt.Errorf("%w: no active liquidity", common.ErrInsufficientLiquidity)
	}
	if amountIn == 0 {
		return 0, fmt.Errorf("%w: zero input", common.ErrInsufficientLiquidity)
	}

	v := GetU256()
	f := GetU256()
	defer func() {
		PutU256(v)
		PutU256(f)
	}()

	v.SetUint64(amountIn)
	f.SetUint64(uint64(common.BpsDenominator) - uint64(totalFee))
	v.Mul(v, f)
	v.Div(v, u256BpsDenom)

	v.Mul(v, liq)
	v.Div(v, u256WhirlpoolScale)

	if v.IsZero() {
		return 0, fmt.Errorf("%w: output rounds to zero", common.ErrInsufficientLiquidity)
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: output exceeds u64 range", common.ErrInsufficientLiquidity)
	}
	return v.Uint64(), nil
}

// WhirlpoolImpactBps reports amountIn / activeLiquidity in basis points,
// clamped to the 0-10000 domain.
func WhirlpoolImpactBps(amountIn uint64, liquidity bin.Uint128) uint16 {
	liq := uint128ToU256(liquidity)
	defer PutU256(liq)
	if liq.IsZero() {
		return common.BpsDenominator
	}

	v := GetU256()
	defer PutU256(v)

	v.SetUint64(amountIn)
	v.Mul(v, u256BpsDenom)
	v.Div(v, liq)

	if !v.IsUint64() || v.Uint64() > common.BpsDenominator {
		return common.BpsDenominator
	}
	return uint16(v.Uint64())
}

// MinimumOut applies the slippage tolerance: out * (10000 - slippage) / 10000.
func MinimumOut(amountOut uint64, slippageBps uint16) uint64 {
	return MulDivBps(amountOut, slippageBps)
}

func uint128ToU256(v bin.Uint128) *uint256.Int {
	out := GetU256()
	b := v.BigInt()
	if b == nil {
		return out
	}
	out.SetFromBig(b)
	return out
}
