package market

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestConstantProductOutProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("output never reaches the out-side reserve", prop.ForAll(
		func(amountIn, reserveIn, reserveOut uint64) bool {
			out, err := ConstantProductOut(amountIn, reserveIn, reserveOut, 30)
			if err != nil {
				return true // rejected inputs are fine, wrapped overflow is not
			}
			return out < reserveOut
		},
		gen.UInt64Range(1, 1<<50),
		gen.UInt64Range(1, 1<<50),
		gen.UInt64Range(1, 1<<50),
	))

	properties.Property("output grows with input", prop.ForAll(
		func(amountIn, extra uint64) bool {
			const reserveIn, reserveOut = 1_000_000_000_000, 1_000_000_000_000
			small, errSmall := ConstantProductOut(amountIn, reserveIn, reserveOut, 30)
			large, errLarge := ConstantProductOut(amountIn+extra, reserveIn, reserveOut, 30)
			if errSmall != nil || errLarge != nil {
				return true
			}
			return large >= small
		},
		gen.UInt64Range(1_000, 1<<40),
		gen.UInt64Range(1, 1<<40),
	))

	properties.Property("fees only reduce output", prop.ForAll(
		func(amountIn uint64, feeBps uint16) bool {
			const reserveIn, reserveOut = 1_000_000_000_000, 1_000_000_000_000
			withFee, errFee := ConstantProductOut(amountIn, reserveIn, reserveOut, feeBps%10_000)
			noFee, errNoFee := ConstantProductOut(amountIn, reserveIn, reserveOut, 0)
			if errFee != nil || errNoFee != nil {
				return true
			}
			return withFee <= noFee
		},
		gen.UInt64Range(1_000, 1<<40),
		gen.UInt16(),
	))

	properties.TestingRun(t)
}

func TestMinimumOutProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("slippage floor never exceeds the quoted output", prop.ForAll(
		func(amountOut uint64, slippageBps uint16) bool {
			return MinimumOut(amountOut, slippageBps%10_000) <= amountOut
		},
		gen.UInt64(),
		gen.UInt16(),
	))

	properties.TestingRun(t)
}
